package main

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// buildAnswersPDF renders the formatted Q&A summary attached to the admin
// notification email. Nothing is written to disk.
func buildAnswersPDF(candidate Candidate, rows []FormattedAnswer) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("PAAN Application "+candidate.ReferenceNumber, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "PAAN Membership Application", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Reference: %s", candidate.ReferenceNumber), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Applicant: %s (%s)", candidate.Name, candidate.Kind), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Email: %s", candidate.Email), "", 1, "L", false, 0, "")
	if candidate.Kind == KIND_AGENCY {
		pdf.CellFormat(0, 7, fmt.Sprintf("Agency: %s, est. %s, HQ %s", candidate.AgencyName, candidate.YearEstablished, candidate.Headquarters), "", 1, "L", false, 0, "")
	} else {
		pdf.CellFormat(0, 7, fmt.Sprintf("Country: %s", candidate.Country), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 7, fmt.Sprintf("Opening: %s", candidate.OpeningID), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.MultiCell(0, 6, row.Question, "", "L", false)

		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, row.Answer, "", "L", false)
		pdf.Ln(2)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
