package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// CertificateLine is one course attributed to a certificate.
type CertificateLine struct {
	Course         string
	Organization   string
	TheoryHours    float64
	PracticalHours float64
	CreditsUsed    float64
	CompletedOn    time.Time
}

// CertificateDocument is the printable content of an issued certificate.
type CertificateDocument struct {
	CertificateNo    string
	IssuerName       string
	StudentName      string
	StudentID        string
	Umbrella         string
	Qualification    string
	CreditsConsumed  float64
	IssuedAt         time.Time
	Courses          []CertificateLine
	VerificationCode string
}

// CertificatePDF renders certificates as single-page A4 documents.
type CertificatePDF struct{}

// NewCertificatePDF constructs the renderer.
func NewCertificatePDF() *CertificatePDF {
	return &CertificatePDF{}
}

var courseHeaders = []string{"Course", "Organization", "Theory h", "Practical h", "Credits", "Completed"}
var courseWidths = []float64{55, 45, 20, 22, 20, 28}

// Render creates the PDF. Credits are rounded here for display only.
func (r *CertificatePDF) Render(doc CertificateDocument) ([]byte, error) {
	if doc.CertificateNo == "" {
		return nil, fmt.Errorf("certificate number is required")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetTitle(doc.CertificateNo, false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 12, strings.ToUpper(doc.IssuerName), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, strings.ToUpper(doc.Qualification)+" IN "+strings.ToUpper(strings.ReplaceAll(doc.Umbrella, "_", " ")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 11)
	name := doc.StudentName
	if name == "" {
		name = doc.StudentID
	}
	pdf.MultiCell(0, 7, fmt.Sprintf("This certifies that %s has completed %.2f credits of approved coursework.", name, doc.CreditsConsumed), "", "C", false)
	pdf.Ln(2)
	pdf.CellFormat(0, 7, "Certificate No: "+doc.CertificateNo, "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 7, "Issued: "+doc.IssuedAt.Format("02 Jan 2006"), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 9)
	for i, header := range courseHeaders {
		pdf.CellFormat(courseWidths[i], 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, line := range doc.Courses {
		cells := []string{
			line.Course,
			line.Organization,
			fmt.Sprintf("%.1f", line.TheoryHours),
			fmt.Sprintf("%.1f", line.PracticalHours),
			fmt.Sprintf("%.2f", line.CreditsUsed),
			line.CompletedOn.Format("2006-01-02"),
		}
		for i, value := range cells {
			pdf.CellFormat(courseWidths[i], 7, value, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if doc.VerificationCode != "" {
		pdf.Ln(6)
		pdf.SetFont("Courier", "", 9)
		pdf.CellFormat(0, 6, "Verification code: "+doc.VerificationCode, "", 1, "R", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate pdf: %w", err)
	}
	return buf.Bytes(), nil
}
