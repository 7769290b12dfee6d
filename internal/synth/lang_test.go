package synth

import "testing"

func TestLangForVoice(t *testing.T) {
	cases := []struct {
		voice string
		want  string
	}{
		{"af_heart", "en-us"},
		{"bm_lewis", "en-gb"},
		{"jf_alpha", "ja"},
		{"zf_xiaobei", "cmn"},
		{"ef_dora", "es"},
		{"ff_siwis", "fr-fr"},
		{"hf_alpha", "hi"},
		{"if_sara", "it"},
		{"pf_dora", "pt-br"},
		{"AF_HEART", "en-us"},
		{"  zf_xiaobei ", "cmn"},
		{"q_unknown", "en-us"},
		{"", "en-us"},
	}
	for _, c := range cases {
		if got := LangForVoice(c.voice); got != c.want {
			t.Errorf("LangForVoice(%q) = %q, want %q", c.voice, got, c.want)
		}
	}
}
