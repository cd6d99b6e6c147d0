// Package pdf implementa la representación gráfica del reporte de control
// de calidad de un lote de facturas.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Reporte QC + fecha de validación                   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: total / válidas / inválidas + conteo por regla    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  POR FACTURA: id + veredicto, errores y advertencias        │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"sort"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/tu-usuario/invoice-qc/internal/application/dto"
	"github.com/tu-usuario/invoice-qc/internal/application/ports"
)

var _ ports.ReportPDFGenerator = (*MarotoReportGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorError   = &props.Color{Red: 170, Green: 30, Blue: 30}
	colorWarn    = &props.Color{Red: 190, Green: 120, Blue: 0}
	colorOK      = &props.Color{Red: 20, Green: 120, Blue: 60}
)

// MarotoReportGenerator implementa ports.ReportPDFGenerator usando Maroto v2.
type MarotoReportGenerator struct{}

// NewMarotoReportGenerator construye el generador.
func NewMarotoReportGenerator() *MarotoReportGenerator { return &MarotoReportGenerator{} }

// GenerateReportPDF genera el PDF del reporte y devuelve sus bytes.
func (g *MarotoReportGenerator) GenerateReportPDF(_ context.Context, report *dto.BatchReportDTO) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Invoice QC Report", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(report))
	m.AddRows(line.NewRow(2, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRows(&report.Summary)...)
	m.AddRows(line.NewRow(2, props.Line{Color: colorPrimary, Thickness: 0.3}))

	for _, result := range report.Results {
		m.AddRows(resultRows(&result)...)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generar PDF del reporte: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(report *dto.BatchReportDTO) core.Row {
	return row.New(12).Add(
		col.New(8).Add(
			text.New("Reporte de control de calidad de facturas", props.Text{
				Size: 14, Style: fontstyle.Bold, Color: colorPrimary,
			}),
		),
		col.New(4).Add(
			text.New("Validado: "+report.Summary.ValidatedAt.Format("2006-01-02 15:04"), props.Text{
				Size: 8, Align: align.Right, Color: colorGray, Top: 3,
			}),
		),
	)
}

func summaryRows(s *dto.BatchSummaryDTO) []core.Row {
	rows := []core.Row{
		row.New(8).Add(
			summaryCol(4, "Total de facturas", fmt.Sprintf("%d", s.TotalInvoices), colorPrimary),
			summaryCol(4, "Válidas", fmt.Sprintf("%d", s.ValidInvoices), colorOK),
			summaryCol(4, "Inválidas", fmt.Sprintf("%d", s.InvalidInvoices), colorError),
		),
	}
	// Orden alfabético para que el reporte sea reproducible.
	rules := make([]string, 0, len(s.ErrorCounts))
	for rule := range s.ErrorCounts {
		rules = append(rules, rule)
	}
	sort.Strings(rules)
	for _, rule := range rules {
		rows = append(rows, row.New(5).Add(
			col.New(8).Add(text.New(rule, props.Text{Size: 8, Color: colorGray})),
			col.New(4).Add(text.New(fmt.Sprintf("%d", s.ErrorCounts[rule]), props.Text{Size: 8, Align: align.Right})),
		))
	}
	for _, note := range s.InfrastructureWarnings {
		rows = append(rows, row.New(5).Add(
			col.New(12).Add(text.New("⚠ "+note, props.Text{Size: 8, Color: colorWarn})),
		))
	}
	return rows
}

func summaryCol(size int, label, value string, color *props.Color) core.Col {
	return col.New(size).Add(
		text.New(label, props.Text{Size: 8, Color: colorGray}),
		text.New(value, props.Text{Size: 12, Style: fontstyle.Bold, Color: color, Top: 4}),
	)
}

func resultRows(r *dto.ValidationResultDTO) []core.Row {
	verdict := "VÁLIDA"
	verdictColor := colorOK
	if !r.IsValid {
		verdict = "INVÁLIDA"
		verdictColor = colorError
	}
	rows := []core.Row{
		row.New(8).Add(
			col.New(9).Add(text.New(r.InvoiceID, props.Text{Size: 10, Style: fontstyle.Bold, Top: 2})),
			col.New(3).Add(text.New(verdict, props.Text{
				Size: 10, Style: fontstyle.Bold, Align: align.Right, Color: verdictColor, Top: 2,
			})),
		),
	}
	for _, e := range r.Errors {
		rows = append(rows, findingRow(e, colorError))
	}
	for _, w := range r.Warnings {
		rows = append(rows, findingRow(w, colorWarn))
	}
	rows = append(rows, line.NewRow(2, props.Line{Color: colorGray, Thickness: 0.2}))
	return rows
}

func findingRow(msg string, color *props.Color) core.Row {
	return row.New(5).Add(
		col.New(12).Add(text.New("• "+msg, props.Text{Size: 8, Color: color, Left: 3})),
	)
}
