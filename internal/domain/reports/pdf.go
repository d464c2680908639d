package reports

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/jung-kurt/gofpdf"

	"evalsphere/internal/domain/evaluation"
	"evalsphere/internal/domain/org"
)

// BuildEmployeeReport renders one employee's evaluation results as a PDF:
// category averages with the global percentage, the per-relationship
// breakdown and received comments.
func BuildEmployeeReport(company *org.Company, employee *org.Employee, result *evaluation.Result) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, tr("Reporte de Evaluación 360°"))
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, tr(fmt.Sprintf("Empresa: %s", company.Name)))
	pdf.Ln(7)
	pdf.Cell(0, 8, tr(fmt.Sprintf("Empleado: %s", employee.Name)))
	pdf.Ln(10)

	averages := result.EmployeeCategoryAverages[employee.ID]
	if len(averages) == 0 {
		pdf.Cell(0, 8, tr("Sin evaluaciones registradas"))
		return render(pdf)
	}

	if percentage, ok := evaluation.GlobalPercentage(averages); ok {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, tr(fmt.Sprintf("Puntuación global: %.2f%%", percentage)))
		pdf.Ln(10)
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, tr("Promedios por categoría"))
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	for _, category := range sortedCategories(averages) {
		pdf.Cell(0, 7, tr(fmt.Sprintf("%s: %.2f", category, averages[category])))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	if breakdown := result.RelationshipBreakdown[employee.ID]; len(breakdown) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, tr("Desglose por relación"))
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		categories := make([]string, 0, len(breakdown))
		for category := range breakdown {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		for _, category := range categories {
			for _, relationship := range []evaluation.Relationship{
				evaluation.RelationshipSelf,
				evaluation.RelationshipSuperior,
				evaluation.RelationshipPeer,
				evaluation.RelationshipSubordinate,
			} {
				if value, ok := breakdown[category][relationship]; ok {
					pdf.Cell(0, 7, tr(fmt.Sprintf("%s - %s: %.2f", category, relationship.Label(), value)))
					pdf.Ln(6)
				}
			}
		}
		pdf.Ln(4)
	}

	if comments := result.CommentsByEmployee[employee.ID]; len(comments) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, tr("Comentarios"))
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		for _, comment := range comments {
			name := comment.EvaluatorName
			if name == "" {
				name = "Anónimo"
			}
			pdf.MultiCell(0, 6, tr(fmt.Sprintf("%s (%s): %s", name, comment.Relationship, comment.Comment)), "", "L", false)
			pdf.Ln(2)
		}
	}

	return render(pdf)
}

func sortedCategories(averages map[string]float64) []string {
	out := make([]string, 0, len(averages))
	for category := range averages {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}

func render(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
