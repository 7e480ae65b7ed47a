package extract

import (
	"strings"
	"testing"

	"github.com/dgallion1/outlined/internal/outline"
)

func TestForFile(t *testing.T) {
	tests := []struct {
		filename string
		wantErr  bool
	}{
		{"notes.md", false},
		{"notes.markdown", false},
		{"page.html", false},
		{"page.htm", false},
		{"report.docx", false},
		{"report.pdf", false},
		{"data.csv", false},
		{"plain.txt", false},
		{"IMAGE.PNG", true},
		{"noext", true},
	}

	for _, tt := range tests {
		_, err := ForFile(tt.filename)
		if (err != nil) != tt.wantErr {
			t.Errorf("ForFile(%q): err=%v, wantErr=%v", tt.filename, err, tt.wantErr)
		}
		if got := IsSupportedExtension(tt.filename); got == tt.wantErr {
			t.Errorf("IsSupportedExtension(%q) = %v", tt.filename, got)
		}
	}
}

func TestCloseSections(t *testing.T) {
	entries := []outline.Entry{
		{Level: 1, Pos: 0},
		{Level: 2, Pos: 10},
		{Level: 3, Pos: 20},
		{Level: 2, Pos: 30},
		{Level: 1, Pos: 40},
	}
	closeSections(entries, 100)

	wantEnds := []int{40, 30, 30, 40, 100}
	for i, e := range entries {
		if e.SectionEnd != wantEnds[i] {
			t.Errorf("entry %d: expected section end %d, got %d", i, wantEnds[i], e.SectionEnd)
		}
	}

	// The closed list always satisfies the builder contract.
	if _, err := outline.Build(entries); err != nil {
		t.Errorf("closed sections rejected by builder: %v", err)
	}
}

func TestCSVExtractor_RowBatches(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("name,age\n")
	for i := 0; i < 45; i++ {
		sb.WriteString("alice,30\n")
	}

	x := &CSVExtractor{}
	doc, err := x.Extract(strings.NewReader(sb.String()), "people.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 45 rows in batches of 20 -> 3 sections.
	if len(doc.Entries) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(doc.Entries))
	}
	if doc.Entries[0].Text != "Rows 2-21" {
		t.Errorf("unexpected first batch label %q", doc.Entries[0].Text)
	}
	if doc.Entries[2].Text != "Rows 42-46" {
		t.Errorf("unexpected last batch label %q", doc.Entries[2].Text)
	}
	if !strings.Contains(doc.Text, "name: alice") {
		t.Errorf("expected header-labelled cells in text")
	}

	if _, err := outline.Build(doc.Entries); err != nil {
		t.Errorf("csv entries rejected by builder: %v", err)
	}
}

func TestTextExtractor_NoHeadings(t *testing.T) {
	x := &TextExtractor{}
	doc, err := x.Extract(strings.NewReader("hello\n\nworld\n"), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", doc.Title)
	}
	if len(doc.Entries) != 0 {
		t.Errorf("expected no entries for plain text, got %d", len(doc.Entries))
	}
	if doc.Text != "hello\n\nworld\n" {
		t.Errorf("expected text preserved")
	}
}
