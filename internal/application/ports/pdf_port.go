package ports

import (
	"context"

	"github.com/tu-usuario/invoice-qc/internal/application/dto"
)

// ReportPDFGenerator puerto de salida para la representación gráfica del
// reporte de control de calidad de un lote.
type ReportPDFGenerator interface {
	GenerateReportPDF(ctx context.Context, report *dto.BatchReportDTO) ([]byte, error)
}
