package repository

import (
	"context"
	"time"

	"github.com/tu-usuario/invoice-qc/internal/domain/entity"
)

// InvoiceHistoryRepository contrato del histórico de facturas. La validación
// solo usa FindPrior (lectura); las escrituras ocurren fuera del núcleo,
// en la capa de interfaces, después de validar.
type InvoiceHistoryRepository interface {
	// FindPrior devuelve la factura previa que coincide exactamente en
	// (número, vendedor, fecha), o nil si no existe.
	FindPrior(ctx context.Context, invoiceNumber, sellerName string, invoiceDate time.Time) (*entity.StoredInvoice, error)

	// Save persiste una factura validada. Devuelve domain.ErrDuplicate si
	// ya existe una con la misma clave natural.
	Save(ctx context.Context, inv *entity.StoredInvoice) error

	// GetByID devuelve la factura almacenada, o nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.StoredInvoice, error)

	// List devuelve las facturas más recientes primero.
	List(ctx context.Context, limit, offset int) ([]*entity.StoredInvoice, error)

	// SaveValidationResult persiste el veredicto de validación de una
	// factura ya almacenada.
	SaveValidationResult(ctx context.Context, rec *entity.ValidationRecord) error

	// ListValidationResults devuelve los veredictos de una factura, más
	// recientes primero.
	ListValidationResults(ctx context.Context, invoiceID string) ([]*entity.ValidationRecord, error)
}
