package rag

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ErrExtraction marks failures turning an uploaded file into plain text.
// Callers match it with errors.Is.
var ErrExtraction = errors.New("rag: text extraction failed")

// maxUploadBytes bounds how much of an upload the extractor will read.
const maxUploadBytes = 10 << 20

// extractText pulls plain text out of an uploaded file. Supported types are
// decided by extension; everything text-like passes through with a UTF-8
// check, anything else is rejected before it reaches the splitter.
func extractText(r io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt", ".md", ".markdown", ".csv", ".json", ".yaml", ".yml", ".html", ".htm", "":
	default:
		return "", fmt.Errorf("%w: unsupported file type %q", ErrExtraction, ext)
	}

	data, err := io.ReadAll(io.LimitReader(r, maxUploadBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", ErrExtraction, filename, err)
	}
	if len(data) > maxUploadBytes {
		return "", fmt.Errorf("%w: %s exceeds the %d byte limit", ErrExtraction, filename, maxUploadBytes)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8 text", ErrExtraction, filename)
	}

	text := string(data)
	if ext == ".html" || ext == ".htm" {
		text = stripTags(text)
	}
	return text, nil
}

// stripTags removes markup, keeping the text content. Block tags become
// newlines so paragraph boundaries survive for the splitter.
func stripTags(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune('\n')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
