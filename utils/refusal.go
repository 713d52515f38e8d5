package utils

import (
	"strings"
)

// The coach only talks about nutrition. Requests to produce files or creative
// artifacts are refused before the model is ever called. This is a cheap
// keyword heuristic, not a classifier: false positives are accepted.

var refusedFormats = []string{
	"pdf", "doc", "docx", "word dosyası", "ppt", "pptx", "powerpoint", "sunum dosyası",
}

var creationVerbs = []string{
	// tr
	"oluştur", "üret", "yarat", "tasarla", "çiz", "yap", "yaz", "hazırla",
	// en
	"create", "generate", "make", "design", "draw", "write", "build",
}

var refusedTargets = []string{
	// tr
	"görsel", "resim", "logo", "video", "kod", "script", "web sitesi", "websitesi", "uygulama",
	// en
	"image", "picture", "code", "website", "app",
}

// ShouldRefuse reports whether the message asks for something outside the
// coaching scope: a disallowed file format, or a creation verb combined with a
// disallowed target noun.
func ShouldRefuse(message string) bool {
	m := strings.ToLower(message)

	for _, f := range refusedFormats {
		if strings.Contains(m, f) {
			return true
		}
	}

	verb := false
	for _, v := range creationVerbs {
		if strings.Contains(m, v) {
			verb = true
			break
		}
	}
	if !verb {
		return false
	}
	for _, t := range refusedTargets {
		if strings.Contains(m, t) {
			return true
		}
	}
	return false
}

// RefusalMessage is the fixed reply sent instead of a model completion.
func RefusalMessage(locale string) string {
	if strings.HasPrefix(strings.ToLower(locale), "tr") {
		return "Üzgünüm, ben bir beslenme koçuyum; dosya, görsel veya kod üretemiyorum. Beslenmenle ilgili her soruda yardımcı olabilirim."
	}
	return "Sorry, I'm a nutrition coach; I can't produce files, images or code. I'm happy to help with anything about your nutrition."
}
