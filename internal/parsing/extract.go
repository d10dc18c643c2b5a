package parsing

import (
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// Extractor turns raw document bytes into plain text for the parser.
type Extractor interface {
	ExtractText(data []byte) (string, error)
}

// PDFExtractor extracts text from PDF receipts using MuPDF.
type PDFExtractor struct{}

// NewPDFExtractor creates a new PDFExtractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// ExtractText renders every page of the PDF to text, joined with page
// separator lines. The separators start with the marker prefix the line
// normalizer strips, so they never leak into parsed fields.
func (e *PDFExtractor) ExtractText(data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	var b strings.Builder
	for n := 0; n < doc.NumPage(); n++ {
		text, err := doc.Text(n)
		if err != nil {
			return "", fmt.Errorf("extracting text from page %d: %w", n+1, err)
		}
		if n > 0 {
			fmt.Fprintf(&b, "%s Page %d %s\n", pageMarkerPrefix, n+1, pageMarkerPrefix)
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	return b.String(), nil
}
