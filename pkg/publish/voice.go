package publish

// Stock voices of the speech provider
const (
	VoiceFrench  = "Ndm6bI6wo3Ycnlx1PPZS" // Luca
	VoiceSpanish = "rEVYTKPqwSMhytFPayIb" // Sandra
)

// VoiceTable maps languages to voice ids. VoiceFor is total: languages
// without an entry use Default.
type VoiceTable struct {
	Voices  map[Language]string
	Default string
}

// DefaultVoiceTable returns the stock voices. Languages without a dedicated
// voice are read by the French voice.
func DefaultVoiceTable() VoiceTable {
	return VoiceTable{
		Voices: map[Language]string{
			LanguageFrench:  VoiceFrench,
			LanguageSpanish: VoiceSpanish,
		},
		Default: VoiceFrench,
	}
}

// VoiceFor returns the voice for lang
func (t VoiceTable) VoiceFor(lang Language) string {
	if v, ok := t.Voices[lang]; ok && v != "" {
		return v
	}
	if t.Default != "" {
		return t.Default
	}
	return VoiceFrench
}

// With returns a copy of t with lang mapped to voice. An empty voice leaves
// the table unchanged.
func (t VoiceTable) With(lang Language, voice string) VoiceTable {
	if voice == "" {
		return t
	}
	voices := make(map[Language]string, len(t.Voices)+1)
	for k, v := range t.Voices {
		voices[k] = v
	}
	voices[lang] = voice
	return VoiceTable{Voices: voices, Default: t.Default}
}
