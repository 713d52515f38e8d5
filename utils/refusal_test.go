package utils

import (
	"strings"
	"testing"
)

func TestShouldRefuse(t *testing.T) {
	cases := []struct {
		message string
		want    bool
	}{
		{"bana bir logo oluştur", true},
		{"bana bir pdf hazırlar mısın", true},
		{"bir sunum dosyası üretir misin", true},
		{"make me a website", true},
		{"generate an image of my meal", true},
		{"write some code for me", true},
		{"bugün ne yedim?", false},
		{"kaç kalori almalıyım?", false},
		{"what should I eat tonight?", false},
		{"how much protein is in chicken?", false},
	}

	for _, tc := range cases {
		if got := ShouldRefuse(tc.message); got != tc.want {
			t.Errorf("ShouldRefuse(%q) = %v, want %v", tc.message, got, tc.want)
		}
	}
}

func TestRefusalMessageLocale(t *testing.T) {
	if msg := RefusalMessage("tr"); !strings.Contains(msg, "beslenme") {
		t.Errorf("turkish refusal = %q", msg)
	}
	if msg := RefusalMessage("en-US"); !strings.Contains(msg, "nutrition") {
		t.Errorf("english refusal = %q", msg)
	}
	// unknown locales fall back to english
	if msg := RefusalMessage(""); !strings.Contains(msg, "nutrition") {
		t.Errorf("fallback refusal = %q", msg)
	}
}
