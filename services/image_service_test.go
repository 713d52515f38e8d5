package services

import (
	"bytes"
	"testing"
)

func TestDecodeDataURL(t *testing.T) {
	data, mimeType, err := DecodeDataURL("data:image/png;base64,aGVsbG8=")
	if err != nil {
		t.Fatalf("DecodeDataURL failed: %v", err)
	}
	if mimeType != "image/png" {
		t.Errorf("mime = %q, want image/png", mimeType)
	}
	if !bytes.Equal(data, []byte("hello")) {
		t.Errorf("data = %q", data)
	}
}

func TestDecodeDataURLRejectsGarbage(t *testing.T) {
	for _, in := range []string{
		"https://example.com/x.png",
		"data:image/png;base64,!!!not-base64!!!",
		"data:image/png,plain-payload",
	} {
		if _, _, err := DecodeDataURL(in); err == nil {
			t.Errorf("DecodeDataURL(%q) accepted invalid input", in)
		}
	}
}
