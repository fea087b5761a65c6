// Package publish moves language-learning content from local staging folders
// into a blob store and a relational store.
//
// A staging folder is named after the numeric id of the unit it holds ("007"
// publishes unit 7). Publishing runs one unit through a fixed sequence of
// stages: the folder is validated, audiobook pages are voiced when needed,
// every artifact is uploaded under a key derived from the unit's coordinates,
// and only then is the metadata row written in a single transaction. A unit
// that fails at any stage stops there and reports a *UnitError naming the
// stage.
//
// Keys have the form
//
//	{language}/{LEVEL}/{Topic}/{ContentType}/{id}/{artifact}
//
// and are produced by the objectkey subpackage. Blob stores live under
// storage/, repositories under repo/, and the speech provider under tts/.
//
// Uploads and metadata writes are not atomic together: when the metadata write
// fails the uploaded objects stay in place and a re-run overwrites them.
package publish
