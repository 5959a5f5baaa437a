package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
)

const qrSizeMM = 35.0

// Field is one labelled line of a document.
type Field struct {
	Label string
	Value string
}

// Document is a titled list of sections, each holding labelled fields.
// When QRCode is set its content is printed as a code below the footer.
type Document struct {
	Title    string
	Subtitle string
	Sections []Section
	Footer   string
	QRCode   string
}

// Section groups related fields under a heading.
type Section struct {
	Heading string
	Fields  []Field
}

// PDFExporter renders documents such as enrollment receipts.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render lays the document out on a single A4 page.
func (e *PDFExporter) Render(doc Document) ([]byte, error) {
	if doc.Title == "" {
		return nil, fmt.Errorf("pdf requires a title")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(15, 20, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr(strings.ToUpper(doc.Title)), "", 1, "C", false, 0, "")
	if doc.Subtitle != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, tr(doc.Subtitle), "", 1, "C", false, 0, "")
	}
	pdf.Ln(6)

	for _, section := range doc.Sections {
		if section.Heading != "" {
			pdf.SetFont("Arial", "B", 12)
			pdf.CellFormat(0, 8, tr(section.Heading), "B", 1, "", false, 0, "")
			pdf.Ln(2)
		}
		for _, field := range section.Fields {
			pdf.SetFont("Arial", "B", 10)
			pdf.CellFormat(55, 7, tr(field.Label), "", 0, "", false, 0, "")
			pdf.SetFont("Arial", "", 10)
			pdf.MultiCell(0, 7, tr(field.Value), "", "", false)
		}
		pdf.Ln(4)
	}

	if doc.Footer != "" {
		pdf.SetFont("Arial", "I", 9)
		pdf.MultiCell(0, 5, tr(doc.Footer), "", "C", false)
	}

	if doc.QRCode != "" {
		png, err := qrcode.Encode(doc.QRCode, qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("encode qr code: %w", err)
		}
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(png))
		pageWidth, _ := pdf.GetPageSize()
		pdf.ImageOptions("qr", (pageWidth-qrSizeMM)/2, pdf.GetY()+4, qrSizeMM, qrSizeMM, false, opts, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
