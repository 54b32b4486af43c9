package util

import (
	"strings"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{name: "plain", in: "resume.pdf", want: "resume.pdf", ok: true},
		{name: "separators replaced", in: "a/b\\c.pdf", want: "a_b_c.pdf", ok: true},
		{name: "control chars stripped", in: "cv\x00\x1f.docx", want: "cv.docx", ok: true},
		{name: "surrounding space trimmed", in: "  cv.txt  ", want: "cv.txt", ok: true},
		{name: "traversal rejected", in: "../etc/passwd", ok: false},
		{name: "empty rejected", in: "   ", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeFileName(tt.in)
			if tt.ok != (err == nil) {
				t.Fatalf("SanitizeFileName(%q) error = %v", tt.in, err)
			}
			if tt.ok && got != tt.want {
				t.Fatalf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeFileNameClampsLongNames(t *testing.T) {
	long := strings.Repeat("x", 500) + ".pdf"
	got, err := SanitizeFileName(long)
	if err != nil {
		t.Fatalf("SanitizeFileName: %v", err)
	}
	if len([]rune(got)) != maxFileNameLen {
		t.Fatalf("expected clamp to %d runes, got %d", maxFileNameLen, len([]rune(got)))
	}
}
