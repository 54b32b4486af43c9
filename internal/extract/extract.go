package extract

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"github.com/lex-technology/workwise-backend/internal/shared/apperr"
)

// Metadata describes the upload a text was extracted from. It is stored next
// to the parsed content so re-used resumes keep their provenance.
type Metadata struct {
	OriginalFilename string `json:"original_filename"`
	FileType         string `json:"file_type"`
	LastModified     string `json:"last_modified"`
	Version          int    `json:"version"`
}

// ExtractText pulls plain text from an uploaded resume file. The format is
// chosen by file extension; unsupported extensions fail before any work is
// done. Libraries used: github.com/ledongthuc/pdf (PDF) and
// github.com/nguyenthenguyen/docx (DOCX).
func ExtractText(ctx context.Context, data []byte, fileName string) (string, Metadata, error) {
	if err := ctx.Err(); err != nil {
		return "", Metadata{}, err
	}

	ext := strings.ToLower(filepath.Ext(fileName))

	var (
		text string
		err  error
	)
	switch ext {
	case ".pdf":
		text, err = extractPDF(data)
	case ".docx":
		text, err = extractDOCX(data)
	case ".txt":
		text, err = extractTXT(data)
	case ".rtf":
		text, err = extractRTF(data)
	default:
		return "", Metadata{}, fmt.Errorf("%w: %s", apperr.ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return "", Metadata{}, fmt.Errorf("extract %s: %w: %v", ext, apperr.ErrExtractionFailed, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", Metadata{}, fmt.Errorf("extract %s: %w: no text content", ext, apperr.ErrExtractionFailed)
	}

	meta := Metadata{
		OriginalFilename: fileName,
		FileType:         strings.TrimPrefix(ext, "."),
		LastModified:     time.Now().UTC().Format(time.RFC3339),
		Version:          1,
	}
	return text, meta, nil
}

func extractPDF(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer doc.Close()

	return stripDocxXML(doc.Editable().GetContent()), nil
}

func extractTXT(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errors.New("not valid utf-8")
	}
	return string(data), nil
}

// stripDocxXML flattens word/document.xml into plain text, turning paragraph
// and line-break elements into newlines.
func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if last := buf.Len(); last > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
