package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// ApprovalSheet carries the fields stamped onto the approval document
// generated when a signing request is approved.
type ApprovalSheet struct {
	RequestID    string
	FileName     string
	RequesterID  int64
	ApproverID   int64
	ApprovedAt   time.Time
	AdminComment string
}

// ApprovalPDFExporter renders approval stamp sheets.
type ApprovalPDFExporter struct{}

// NewApprovalPDFExporter constructs the exporter.
func NewApprovalPDFExporter() *ApprovalPDFExporter {
	return &ApprovalPDFExporter{}
}

// Render produces the stamp sheet as PDF bytes.
func (e *ApprovalPDFExporter) Render(sheet ApprovalSheet) ([]byte, error) {
	if sheet.RequestID == "" {
		return nil, fmt.Errorf("approval sheet requires a request id")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 12, "DOCUMENT APPROVAL CERTIFICATE", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 11)
	rows := [][2]string{
		{"Request ID", sheet.RequestID},
		{"Document", sheet.FileName},
		{"Requested by", fmt.Sprintf("user %d", sheet.RequesterID)},
		{"Approved by", fmt.Sprintf("admin %d", sheet.ApproverID)},
		{"Approved at", sheet.ApprovedAt.UTC().Format(time.RFC3339)},
	}
	for _, row := range rows {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(50, 8, row[0], "1", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 8, row[1], "1", 1, "", false, 0, "")
	}

	if sheet.AdminComment != "" {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 8, "Comment", "", 1, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 6, sheet.AdminComment, "1", "", false)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render approval pdf: %w", err)
	}
	return buf.Bytes(), nil
}
