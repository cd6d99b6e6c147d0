package ports

import (
	"context"

	"github.com/tu-usuario/invoice-qc/internal/application/dto"
)

// DocumentExtractor puerto de salida para la extracción de datos de factura
// a partir del texto de un documento. Cualquier adaptador (Gemini, regex de
// respaldo, mock) implementa este contrato; la aplicación solo conoce la
// interfaz, no la implementación.
type DocumentExtractor interface {
	// ExtractInvoice analiza el texto del documento y devuelve el mapeo de
	// campos crudos del registro. El contexto debe llevar timeout para no
	// bloquear el lote en llamadas externas.
	ExtractInvoice(ctx context.Context, documentText string) (dto.RawInvoice, error)
}
