package evaluation

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

var pdfColumns = []struct {
	title string
	width float64
}{
	{"#", 8},
	{"Cat.", 12},
	{"Task", 70},
	{"Weight", 18},
	{"Self", 16},
	{"Manager", 18},
	{"Value", 18},
	{"Deadline", 24},
}

// WritePDF renders a printable evaluation form.
func WritePDF(w io.Writer, ev Evaluation) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(fmt.Sprintf("KPI %02d/%d", ev.Month, ev.Year), true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("KPI Evaluation %02d/%d", ev.Month, ev.Year))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Employee: %s <%s>", ev.UserName, ev.UserEmail)))
	pdf.Ln(6)
	if ev.DepartmentName != "" {
		pdf.Cell(0, 7, tr(fmt.Sprintf("Department: %s", ev.DepartmentName)))
		pdf.Ln(6)
	}
	pdf.Cell(0, 7, fmt.Sprintf("Status: %s", ev.Status))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Total score: %.2f  Rank: %s", ev.TotalScore, ev.Rank))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range pdfColumns {
		pdf.CellFormat(col.width, 7, col.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for i, task := range ev.Tasks {
		cells := []string{
			fmt.Sprintf("%d", i+1),
			task.Category,
			tr(truncate(task.Name, 45)),
			fmt.Sprintf("%.1f", task.Weight),
			fmt.Sprintf("%.1f", task.SelfScore),
			fmt.Sprintf("%.1f", task.ManagerScore),
			fmt.Sprintf("%.2f", task.ConvertedValue),
			task.Deadline,
		}
		for j, col := range pdfColumns {
			align := "R"
			if j == 1 || j == 2 || j == 7 {
				align = "L"
			}
			pdf.CellFormat(col.width, 6, cells[j], "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(ev.Reviews) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, "Reviews")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 10)
		for _, review := range ev.Reviews {
			line := fmt.Sprintf("%s  %s (%s)  %s  score %.2f",
				review.ReviewedAt.Format("2006-01-02"), review.ManagerName, review.ManagerRole, review.Decision, review.Score)
			pdf.Cell(0, 6, tr(line))
			pdf.Ln(5)
			if review.Comment != "" {
				pdf.MultiCell(0, 5, tr(review.Comment), "", "L", false)
			}
			pdf.Ln(2)
		}
	}

	return pdf.Output(w)
}

func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max-1]) + "…"
}
