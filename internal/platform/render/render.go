// Package render produces printable PDF documents for payslips, invoices and report cards.
package render

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"schoolops/internal/domain/invoicing"
	"schoolops/internal/domain/payroll"
	"schoolops/internal/domain/results"
)

const ContentType = "application/pdf"

func newDocument(title string) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, title)
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	return pdf
}

func line(pdf *gofpdf.Fpdf, format string, args ...any) {
	pdf.Cell(0, 8, fmt.Sprintf(format, args...))
	pdf.Ln(7)
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func Payslip(slip payroll.Payslip) ([]byte, error) {
	pdf := newDocument("Payslip")
	line(pdf, "Employee: %s", slip.EmployeeName)
	line(pdf, "Pay period: %s", slip.PayPeriod)
	line(pdf, "Bank: %s %s (%s)", slip.BankDetails.BankName, slip.BankDetails.AccountNumber, slip.BankDetails.AccountName)
	pdf.Ln(3)
	line(pdf, "Gross: %s", slip.Gross.StringFixed(2))
	line(pdf, "Deductions: %s", slip.Deductions.StringFixed(2))
	line(pdf, "Net: %s", slip.Amount.StringFixed(2))
	return output(pdf)
}

func Invoice(inv invoicing.Invoice) ([]byte, error) {
	pdf := newDocument("Invoice " + string(inv.InvoiceNumber))
	line(pdf, "Student: %s (%s)", inv.StudentName, inv.StudentID)
	line(pdf, "Class: %s, %s, %s", inv.ClassIdentifier, inv.Session, inv.Term)
	line(pdf, "Due: %s", inv.DueDate.Format("2006-01-02"))
	pdf.Ln(3)
	for _, item := range inv.LineItems {
		pdf.CellFormat(120, 8, item.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 8, item.Amount.StringFixed(2), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(3)
	line(pdf, "Total: %s", inv.TotalAmount.StringFixed(2))
	line(pdf, "Paid: %s", inv.AmountPaid.StringFixed(2))
	line(pdf, "Balance: %s (%s)", inv.Balance.StringFixed(2), inv.Status)
	return output(pdf)
}

func ReportCard(card results.ReportCard) ([]byte, error) {
	pdf := newDocument("Report Card")
	line(pdf, "Student: %s (%s)", card.StudentName, card.StudentID)
	line(pdf, "Class: %s, %s, %s", card.Class, card.Session, card.Term)
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 11)
	for _, head := range []string{"Subject", "CA", "Exam", "Total", "Grade"} {
		width := 25.0
		if head == "Subject" {
			width = 70
		}
		pdf.CellFormat(width, 8, head, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 11)
	for _, s := range card.Subjects {
		name := s.Name
		if name == "" {
			name = string(s.Subject)
		}
		pdf.CellFormat(70, 8, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 8, fmt.Sprintf("%.2f", s.CAScore), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 8, fmt.Sprintf("%.2f", s.ExamScore), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 8, fmt.Sprintf("%.2f", s.TotalScore), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 8, s.Grade, "1", 1, "C", false, 0, "")
	}
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "", 12)
	line(pdf, "Total marks: %.2f", card.TotalMarks)
	line(pdf, "Average: %.2f  Grade: %s", card.Average, card.OverallGrade)
	line(pdf, "Position: %d of %d", card.ClassRank, card.ClassSize)
	return output(pdf)
}
