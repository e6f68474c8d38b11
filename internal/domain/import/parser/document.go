package parser

import (
	"strings"

	"github.com/FACorreiaa/statement-tracker/pkg/money"
)

// Table is an extracted table: rows of cells, nil for an empty cell.
type Table [][]*string

// Page is the extracted content of one document page.
type Page struct {
	Text   string
	Tables []Table
}

// Document is the extraction result handed to parsers. Parsers never open
// files; Path is carried for logging only.
type Document struct {
	Path  string
	Pages []Page
}

// FirstPageText returns the text of the first page, or "" for an empty document.
func (d *Document) FirstPageText() string {
	if d == nil || len(d.Pages) == 0 {
		return ""
	}
	return money.NormalizeSpaces(d.Pages[0].Text)
}

// FullText joins all page texts with newlines. Wide spaces are normalized.
func (d *Document) FullText() string {
	if d == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range d.Pages {
		sb.WriteString(p.Text)
		sb.WriteByte('\n')
	}
	return money.NormalizeSpaces(sb.String())
}

// Lines returns every text line of every page in order, with wide spaces
// normalized.
func (d *Document) Lines() []string {
	if d == nil {
		return nil
	}
	var lines []string
	for _, p := range d.Pages {
		if p.Text == "" {
			continue
		}
		lines = append(lines, strings.Split(money.NormalizeSpaces(p.Text), "\n")...)
	}
	return lines
}

// Tables returns the tables of every page in order.
func (d *Document) Tables() []Table {
	if d == nil {
		return nil
	}
	var tables []Table
	for _, p := range d.Pages {
		tables = append(tables, p.Tables...)
	}
	return tables
}

// Cell returns a pointer to s for building tables.
func Cell(s string) *string {
	return &s
}

// TextDocument builds a single-page document from plain text.
func TextDocument(text string) *Document {
	return &Document{Pages: []Page{{Text: text}}}
}
