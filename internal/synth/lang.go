package synth

import "strings"

// voiceLangs maps a voice id's first letter to its espeak-ng language
// code ("cmn" for Mandarin, not "zh").
var voiceLangs = map[byte]string{
	'a': "en-us",
	'b': "en-gb",
	'j': "ja",
	'z': "cmn",
	'e': "es",
	'f': "fr-fr",
	'h': "hi",
	'i': "it",
	'p': "pt-br",
}

// LangForVoice infers the language code from a voice id, so
// "zf_xiaobei" speaks Mandarin without an explicit lang. Unknown
// prefixes fall back to en-us.
func LangForVoice(voice string) string {
	voice = strings.ToLower(strings.TrimSpace(voice))
	if voice == "" {
		return "en-us"
	}
	if lang, ok := voiceLangs[voice[0]]; ok {
		return lang
	}
	return "en-us"
}
