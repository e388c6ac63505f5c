package format

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestFileSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0.0 B"},
		{512, "512.0 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{100 << 20, "100.0 MB"},
		{3 << 30, "3.0 GB"},
		{2 << 40, "2.0 TB"},
	}
	for _, tt := range tests {
		if got := FileSize(tt.in); got != tt.want {
			t.Errorf("FileSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSummary(t *testing.T) {
	got := Summary(2048, 1024, 50)
	for _, want := range []string{
		"Compression successful!",
		"Original size: 2.0 KB",
		"Compressed size: 1.0 KB",
		"Compression ratio: 50.0%",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Summary missing %q:\n%s", want, got)
		}
	}
}

func TestRatioNegative(t *testing.T) {
	if got := Ratio(-20); got != "-20.0%" {
		t.Errorf("Ratio(-20) = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"fits", "short", 10, "short"},
		{"exact", "abcde", 5, "abcde"},
		{"ascii cut", "abcdefgh", 4, "abcd..."},
		{"backs off a split rune", "abécd", 3, "ab..."},
		{"keeps a whole rune", "abécd", 4, "abé..."},
		{"inside a 3-byte rune", "日本語", 4, "日..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.in, tt.n)
			if got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("Truncate(%q, %d) produced invalid UTF-8: %q", tt.in, tt.n, got)
			}
		})
	}
}
