package extract

import "io"

// TextExtractor handles plain text files. Plain text has no heading
// structure, so the document carries its full text and an empty outline.
type TextExtractor struct{}

func (x *TextExtractor) Extract(r io.Reader, filename string) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return &Document{
		Title: titleFromFilename(filename),
		Text:  string(src),
	}, nil
}
