// Package export renders a stored case and its replies as a printable PDF.
package export

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/ledongthuc/pdf"

	"github.com/Skufu/vetddx/internal/analysis"
	"github.com/Skufu/vetddx/internal/model"
)

const (
	Title        = "VetDDx - Veterinary Clinical Decision Support"
	footerNotice = "AI-generated decision support. Verify all doses against current formularies."

	pageMargin = 15.0
	lineHeight = 5.5
)

var sectionOrder = []struct {
	key   analysis.Bucket
	title string
}{
	{analysis.BucketDifferentials, "Ranked Differential Diagnoses"},
	{analysis.BucketDiagnostics, "Suggested Diagnostic Steps"},
	{analysis.BucketRedFlags, "Red Flags"},
	{analysis.BucketTreatment, "Treatment Plan"},
}

type Exporter struct {
	normalizer *analysis.Normalizer
	now        func() time.Time
}

func New(n *analysis.Normalizer) *Exporter {
	if n == nil {
		n = analysis.NewNormalizer(analysis.DefaultTuning())
	}
	return &Exporter{normalizer: n, now: time.Now}
}

// Filename is the download name offered for a case export.
func Filename(rec model.CaseRecord) string {
	species := strings.ToLower(strings.Join(strings.Fields(rec.Case.Species), "-"))
	if species == "" {
		species = "case"
	}
	return fmt.Sprintf("vetddx-%s-%s.pdf", species, rec.CreatedAt.Format("20060102-150405"))
}

// Write renders rec to w. Replies are re-analyzed on every export.
func (e *Exporter) Write(w io.Writer, rec model.CaseRecord) error {
	doc := fpdf.New("P", "mm", "A4", "")
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.SetMargins(pageMargin, 28, pageMargin)
	doc.SetAutoPageBreak(true, 20)
	doc.AliasNbPages("")
	doc.SetTitle(Title, true)
	doc.SetCreator("vetddx", true)

	pageW, _ := doc.GetPageSize()
	contentW := pageW - 2*pageMargin
	generated := e.now().UTC().Format("2006-01-02 15:04 MST")

	doc.SetHeaderFunc(func() {
		doc.SetFillColor(31, 78, 121)
		doc.Rect(0, 0, pageW, 20, "F")
		doc.SetTextColor(255, 255, 255)
		doc.SetFont("Helvetica", "B", 13)
		doc.SetXY(pageMargin, 6)
		doc.CellFormat(contentW, 6, tr(Title), "", 1, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 8)
		doc.SetX(pageMargin)
		doc.CellFormat(contentW, 4, tr("Generated "+generated), "", 1, "L", false, 0, "")
		doc.SetTextColor(0, 0, 0)
		doc.SetY(28)
	})
	doc.SetFooterFunc(func() {
		doc.SetY(-14)
		doc.SetFont("Helvetica", "I", 7)
		doc.SetTextColor(110, 110, 110)
		doc.CellFormat(contentW*0.75, 5, tr(footerNotice), "T", 0, "L", false, 0, "")
		doc.CellFormat(contentW*0.25, 5, fmt.Sprintf("Page %d of {nb}", doc.PageNo()), "T", 0, "R", false, 0, "")
		doc.SetTextColor(0, 0, 0)
	})

	doc.AddPage()

	heading(doc, tr, "Patient")
	c := rec.Case
	field(doc, tr, "Species", c.Species)
	field(doc, tr, "Age", c.Age)
	field(doc, tr, "Sex", c.Sex)
	if c.Breed != "" {
		field(doc, tr, "Breed", c.Breed)
	}
	field(doc, tr, "Weight", strconv.FormatFloat(c.Weight, 'f', -1, 64)+" kg")
	field(doc, tr, "Problem list", c.ProblemList())
	if excluded := c.ExcludedList(); excluded != "" {
		field(doc, tr, "Excluded", excluded)
	}
	doc.Ln(3)

	for _, r := range rec.Replies {
		e.writeReply(doc, tr, contentW, r)
	}

	if doc.Err() {
		return fmt.Errorf("render pdf: %w", doc.Error())
	}
	if err := doc.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// Bytes renders rec into memory.
func (e *Exporter) Bytes(rec model.CaseRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Write(&buf, rec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Exporter) writeReply(doc *fpdf.Fpdf, tr func(string) string, width float64, r model.ModelReply) {
	name := r.ModelName
	if name == "" {
		name = r.Model
	}
	doc.SetFillColor(230, 238, 246)
	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(width, 8, tr(name), "", 1, "L", true, 0, "")
	doc.Ln(1)

	if r.Failed() {
		doc.SetFont("Helvetica", "", 10)
		doc.SetTextColor(170, 30, 30)
		doc.MultiCell(width, lineHeight, tr(r.Text+" ("+r.Error+")"), "", "L", false)
		doc.SetTextColor(0, 0, 0)
		doc.Ln(3)
		return
	}

	res := e.normalizer.Analyze(r.Text)
	for _, s := range sectionOrder {
		text := res.Buckets.Get(s.key)
		if text == "" {
			continue
		}
		heading(doc, tr, s.title)
		switch {
		case s.key == analysis.BucketDifferentials && len(res.Differentials) > 0:
			for i, d := range res.Differentials {
				doc.SetFont("Helvetica", "B", 10)
				doc.MultiCell(width, lineHeight, tr(fmt.Sprintf("%d. %s (%d%%)", i+1, d.Name, d.Percentage)), "", "L", false)
				if d.Description != "" {
					body(doc, tr, width, d.Description)
				}
			}
		case s.key == analysis.BucketTreatment && len(res.TreatmentCategories) > 0:
			for _, cat := range res.TreatmentCategories {
				doc.SetFont("Helvetica", "B", 10)
				doc.MultiCell(width, lineHeight, tr(cat.Title), "", "L", false)
				body(doc, tr, width, cat.Body)
			}
		default:
			body(doc, tr, width, text)
		}
		doc.Ln(2)
	}
	if res.Buckets.Other != "" {
		body(doc, tr, width, res.Buckets.Other)
	}
	doc.Ln(3)
}

func heading(doc *fpdf.Fpdf, tr func(string) string, text string) {
	doc.SetFont("Helvetica", "B", 11)
	doc.SetTextColor(31, 78, 121)
	doc.CellFormat(0, 7, tr(text), "B", 1, "L", false, 0, "")
	doc.SetTextColor(0, 0, 0)
	doc.Ln(1)
}

func field(doc *fpdf.Fpdf, tr func(string) string, label, value string) {
	doc.SetFont("Helvetica", "B", 10)
	doc.CellFormat(32, lineHeight, tr(label+":"), "", 0, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	doc.MultiCell(0, lineHeight, tr(value), "", "L", false)
}

func body(doc *fpdf.Fpdf, tr func(string) string, width float64, text string) {
	doc.SetFont("Helvetica", "", 10)
	doc.MultiCell(width, lineHeight, tr(stripMarkdown(text)), "", "L", false)
}

var markdownReplacer = strings.NewReplacer("**", "", "__", "", "`", "")

func stripMarkdown(s string) string {
	lines := strings.Split(markdownReplacer.Replace(s), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimLeft(l, "# ")
	}
	return strings.Join(lines, "\n")
}

// ReadText extracts the plain text of a PDF document.
func ReadText(r io.ReaderAt, size int64) (string, error) {
	doc, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	text, err := doc.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(text); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}

// PageCount reports how many pages a PDF document has.
func PageCount(r io.ReaderAt, size int64) (int, error) {
	doc, err := pdf.NewReader(r, size)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	return doc.NumPage(), nil
}
