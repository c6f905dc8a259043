// Package document turns uploaded résumé bytes into normalized plain text.
// It is the single entry point of the pipeline: raw bytes plus the media
// type declared at upload time go in, clean text comes out.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// ErrUnreadable marks documents no text can be recovered from: empty
// payloads, unsupported media types, parser failures, or files that yield
// no text at all. Not retryable.
var ErrUnreadable = errors.New("unreadable document")

const (
	MimeText = "text/plain"
	MimePDF  = "application/pdf"
	MimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Raw is one uploaded document. The buffer is treated as immutable and is
// consumed exactly once.
type Raw struct {
	Data []byte
	Mime string
}

// Text extracts and normalizes the plain text of a document. When err is
// nil the returned string is never empty.
func Text(raw Raw) (string, error) {
	if len(raw.Data) == 0 {
		return "", fmt.Errorf("%w: empty payload", ErrUnreadable)
	}

	var text string
	var err error
	switch raw.Mime {
	case MimeText:
		text = string(raw.Data)
	case MimePDF:
		text, err = extractPDF(bytes.NewReader(raw.Data), int64(len(raw.Data)))
	case MimeDocx:
		text, err = extractDocx(raw.Data)
	default:
		return "", fmt.Errorf("%w: unsupported media type %q", ErrUnreadable, raw.Mime)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	norm := Normalize(text)
	if norm == "" {
		return "", fmt.Errorf("%w: no text content", ErrUnreadable)
	}
	return norm, nil
}

func extractPDF(reader io.ReaderAt, size int64) (string, error) {
	pdfReader, err := pdf.NewReader(reader, size)
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}
	var textBuilder strings.Builder
	numPages := pdfReader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, _ := page.GetPlainText(nil)
		textBuilder.WriteString(text)
		textBuilder.WriteByte('\n')
	}
	return textBuilder.String(), nil
}

var (
	xmlTags  = regexp.MustCompile(`<[^>]+>`)
	entities = strings.NewReplacer(
		"&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'",
	)
)

func extractDocx(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	// GetContent returns the raw document XML; paragraph tags become line
	// breaks so section structure survives for the rule-based extractor.
	content := doc.Editable().GetContent()
	return entities.Replace(xmlTags.ReplaceAllString(content, "\n")), nil
}

// Normalize cleans extracted text: valid UTF-8 only, unix newlines,
// control characters dropped, whitespace runs collapsed, and at most one
// blank line in a row so section boundaries stay visible.
func Normalize(text string) string {
	text = strings.ToValidUTF8(text, "")
	text = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\f", "\n", "\v", "\n").Replace(text)

	var b strings.Builder
	blanks := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(stripControl(line)), " ")
		if line == "" {
			blanks++
			if blanks > 1 {
				continue
			}
		} else {
			blanks = 0
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String())
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\t' {
			return -1
		}
		return r
	}, s)
}
