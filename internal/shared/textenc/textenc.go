// Package textenc normalises raw process output into UTF-8 text.
//
// Build tools on some hosts still emit legacy code pages (Windows consoles,
// old compilers with localised messages). Lines that are already valid UTF-8
// pass through untouched; anything else is run through charset detection
// and decoded, falling back to replacing invalid bytes.
package textenc

import (
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// minDetectLen is the shortest input worth handing to the detector.
// Shorter inputs give chardet too little signal to beat a plain latin-1 guess.
const minDetectLen = 8

// fallbackCharset is used when detection fails on short or ambiguous input.
const fallbackCharset = "windows-1252"

// DetectCharset returns the most likely charset label for data
func DetectCharset(data []byte) string {
	if utf8.Valid(data) {
		return "utf-8"
	}
	if len(data) < minDetectLen {
		return fallbackCharset
	}

	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return fallbackCharset
	}
	return strings.ToLower(result.Charset)
}

// Normalize converts a raw line to a UTF-8 string
func Normalize(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}

	label := DetectCharset(data)
	if decoded, ok := decode(data, label); ok {
		return decoded
	}
	if decoded, ok := decode(data, fallbackCharset); ok {
		return decoded
	}
	return strings.ToValidUTF8(string(data), string(utf8.RuneError))
}

func decode(data []byte, label string) (string, bool) {
	enc, _ := charset.Lookup(label)
	if enc == nil {
		return "", false
	}
	out, err := io.ReadAll(enc.NewDecoder().Reader(bytes.NewReader(data)))
	if err != nil || !utf8.Valid(out) {
		return "", false
	}
	return string(out), true
}
