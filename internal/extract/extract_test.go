package extract

import (
	"errors"
	"testing"

	"jobboard/internal/errcode"
)

func TestSupported(t *testing.T) {
	cases := []struct {
		fileName  string
		mediaType string
		want      bool
	}{
		{"resume.pdf", "application/pdf", true},
		{"resume.pdf", "application/octet-stream", true},
		{"resume.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", true},
		{"resume.doc", "application/msword", true},
		{"resume.txt", "text/plain", false},
		{"resume.png", "image/png", false},
	}

	for _, tc := range cases {
		if got := Supported(tc.fileName, tc.mediaType); got != tc.want {
			t.Errorf("Supported(%q, %q) = %v, want %v", tc.fileName, tc.mediaType, got, tc.want)
		}
	}
}

func TestTextRejectsUnsupportedMedia(t *testing.T) {
	_, err := Text("/nonexistent", "resume.txt", "text/plain")
	if !errors.Is(err, errcode.ErrUnsupportedMedia) {
		t.Fatalf("err = %v, want ErrUnsupportedMedia", err)
	}
}
