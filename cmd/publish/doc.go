// Command publish moves staged language-learning content into the blob store
// and the relational store.
//
//	publish story 007 --language French --cefr A1 --topic Travel --date 2025-03-01
//	publish batch manifest.toml
//	publish migrate up
//
// Settings come from the environment and an optional .env file. Every command
// checks the settings it needs before reading the staging folder.
package main
