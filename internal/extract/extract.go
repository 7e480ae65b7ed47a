// Package extract turns raw document bytes into an outline heading list.
// Each extractor produces a Document whose entries carry offsets into the
// document's plain text; for markdown and plain text that text is the
// source itself, for binary formats it is the extracted rendering.
package extract

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/outlined/internal/outline"
)

// Document is an extracted document: its display title, the text that
// heading offsets index into, and the ordered heading list.
type Document struct {
	Title   string
	Text    string
	Entries []outline.Entry
}

// Extractor converts raw document bytes into a Document.
type Extractor interface {
	Extract(r io.Reader, filename string) (*Document, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate extractor for a filename.
func ForFile(filename string) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextExtractor{}, nil
	case ".md", ".markdown":
		return &MarkdownExtractor{}, nil
	case ".csv":
		return &CSVExtractor{}, nil
	case ".html", ".htm":
		return &HTMLExtractor{}, nil
	case ".pdf":
		return &PDFExtractor{}, nil
	case ".docx":
		return &DOCXExtractor{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// closeSections fills in SectionEnd for every entry: the position of the
// next heading at the same or shallower level, or the end of the text.
// Extractors guarantee ascending positions, so a clamp to pos+1 keeps a
// degenerate trailing heading from producing a zero-width section.
func closeSections(entries []outline.Entry, end int) []outline.Entry {
	for i := range entries {
		entries[i].SectionEnd = end
		for j := i + 1; j < len(entries); j++ {
			if entries[j].Level <= entries[i].Level {
				entries[i].SectionEnd = entries[j].Pos
				break
			}
		}
		if entries[i].SectionEnd <= entries[i].Pos {
			entries[i].SectionEnd = entries[i].Pos + 1
		}
	}
	return entries
}

func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
