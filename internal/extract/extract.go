// Package extract derives searchable text from attachment content. Formats
// it does not understand yield no text rather than an error; extraction never
// blocks ingestion.
package extract

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/tvaillant/mailarch/internal/textutil"
)

// Text returns searchable text for an attachment, or "" and false when the
// format carries none we can recover.
func Text(filename string, content []byte) (string, bool) {
	if len(content) == 0 {
		return "", false
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".text", ".log", ".csv", ".md", ".json", ".xml", ".yaml", ".yml", ".ini", ".conf":
		return plainText(content)
	case ".htm", ".html":
		return htmlText(content)
	case "":
		// No extension: accept it only if the bytes already look like text.
		if looksTextual(content) {
			return plainText(content)
		}
		return "", false
	default:
		return "", false
	}
}

func plainText(content []byte) (string, bool) {
	s := strings.TrimSpace(textutil.EnsureUTF8(string(content)))
	if s == "" {
		return "", false
	}
	return s, true
}

func htmlText(content []byte) (string, bool) {
	s := strings.TrimSpace(textutil.StripHTML(textutil.EnsureUTF8(string(content))))
	if s == "" {
		return "", false
	}
	return s, true
}

// looksTextual is a cheap sniff: valid UTF-8 with no NUL bytes in the first
// few hundred bytes.
func looksTextual(content []byte) bool {
	sample := content
	if len(sample) > 512 {
		sample = sample[:512]
	}
	for _, b := range sample {
		if b == 0 {
			return false
		}
	}
	return utf8.Valid(sample)
}
