// Package extractor reads statement PDFs into the page text and table form
// consumed by the vendor parsers.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/FACorreiaa/statement-tracker/internal/domain/import/parser"
)

// ErrUnreadable is returned for PDFs without an extractable text layer,
// such as scanned statements.
var ErrUnreadable = errors.New("no readable text in document")

const (
	// approximate glyph advance when the library reports no width
	defaultCharWidth = 4.5
	// horizontal whitespace that separates two table cells
	defaultColumnGap = 14.0
	minReadableRatio = 0.6
)

// PDFSource loads documents with github.com/ledongthuc/pdf.
type PDFSource struct {
	logger    *slog.Logger
	charWidth float64
	columnGap float64
}

// NewPDFSource creates a PDF document source.
func NewPDFSource(logger *slog.Logger) *PDFSource {
	return &PDFSource{
		logger:    logger,
		charWidth: defaultCharWidth,
		columnGap: defaultColumnGap,
	}
}

// Load extracts every page of the PDF at path. Rows are rebuilt from text
// positions; rows with several widely spaced cells also form the page table.
func (s *PDFSource) Load(ctx context.Context, path string) (doc *parser.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("pdf library crashed on %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("%w: pdf has no pages", ErrUnreadable)
	}

	doc = &parser.Document{Path: path, Pages: make([]parser.Page, 0, numPages)}
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			doc.Pages = append(doc.Pages, parser.Page{})
			continue
		}
		rows, rowErr := page.GetTextByRow()
		if rowErr != nil {
			s.logger.Warn("page text extraction failed",
				slog.String("path", path),
				slog.Int("page", i),
				slog.Any("error", rowErr),
			)
			doc.Pages = append(doc.Pages, parser.Page{})
			continue
		}
		doc.Pages = append(doc.Pages, s.buildPage(rows))
	}

	if !readable(doc) {
		if plain := plainText(r); plain != "" {
			doc.Pages = []parser.Page{{Text: plain}}
		}
	}
	if !readable(doc) {
		return nil, fmt.Errorf("%w: %s", ErrUnreadable, path)
	}

	s.logger.Debug("pdf extracted",
		slog.String("path", path),
		slog.Int("pages", len(doc.Pages)),
		slog.Int("tables", len(doc.Tables())),
	)
	return doc, nil
}

func (s *PDFSource) buildPage(rows pdf.Rows) parser.Page {
	var (
		lines []string
		table parser.Table
	)
	for _, row := range rows {
		cells := s.splitCells(row.Content)
		if len(cells) == 0 {
			continue
		}
		lines = append(lines, strings.Join(cells, " "))
		if len(cells) > 1 {
			out := make([]*string, len(cells))
			for i, c := range cells {
				out[i] = parser.Cell(c)
			}
			table = append(table, out)
		}
	}

	page := parser.Page{Text: strings.Join(lines, "\n")}
	if len(table) > 0 {
		page.Tables = []parser.Table{table}
	}
	return page
}

// splitCells joins the text runs of one row into cells. A gap wider than
// half a glyph becomes a space; a gap wider than the column gap starts a
// new cell.
func (s *PDFSource) splitCells(texts pdf.TextHorizontal) []string {
	var (
		cells   []string
		current strings.Builder
		prevEnd float64
	)
	flush := func() {
		if c := collapse(current.String()); c != "" {
			cells = append(cells, c)
		}
		current.Reset()
	}

	for i, t := range texts {
		if i > 0 {
			switch gap := t.X - prevEnd; {
			case gap > s.columnGap:
				flush()
			case gap > s.charWidth/2:
				current.WriteByte(' ')
			}
		}
		current.WriteString(t.S)
		width := t.W
		if width <= 0 {
			width = float64(utf8.RuneCountInString(t.S)) * s.charWidth
		}
		prevEnd = t.X + width
	}
	flush()
	return cells
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func plainText(r *pdf.Reader) string {
	reader, err := r.GetPlainText()
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// readable reports whether the document has enough text that is mostly
// letters, digits, spaces and punctuation.
func readable(doc *parser.Document) bool {
	total, good := 0, 0
	for _, p := range doc.Pages {
		for _, r := range p.Text {
			total++
			if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
				good++
			}
		}
	}
	if total < 20 {
		return false
	}
	return float64(good)/float64(total) > minReadableRatio
}
