package validation

import (
	"context"
	"fmt"
	"time"

	"github.com/tu-usuario/invoice-qc/internal/domain/entity"
)

// HistoryFinder consulta de solo lectura contra el histórico de facturas
// persistidas. Devuelve nil si no hay registro previo que coincida.
// Es el único punto del núcleo de validación que toca I/O.
type HistoryFinder interface {
	FindPrior(ctx context.Context, invoiceNumber, sellerName string, invoiceDate time.Time) (*entity.StoredInvoice, error)
}

// DuplicateChecker aplica la regla de duplicados: una factura previa con el
// mismo (número, vendedor, fecha), con igualdad exacta y case-sensitive,
// produce una advertencia, jamás un error de validación.
type DuplicateChecker struct {
	store   HistoryFinder
	timeout time.Duration
}

// NewDuplicateChecker construye el verificador. timeout acota la consulta al
// histórico; cero usa el valor por defecto (3s).
func NewDuplicateChecker(store HistoryFinder, timeout time.Duration) *DuplicateChecker {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &DuplicateChecker{store: store, timeout: timeout}
}

// Check consulta el histórico. Devuelve el hallazgo (o nil si no hay
// duplicado) y, por separado, el error de infraestructura si la consulta
// falló o expiró: en ese caso el resultado degrada a "sin duplicado" y el
// caller decide cómo surfacear el error (nunca invalida el lote).
func (c *DuplicateChecker) Check(ctx context.Context, inv *entity.Invoice) (*Finding, error) {
	// La regla exige los tres campos; sin ellos no hay clave que comparar.
	if !inv.InvoiceNumber.Present() || !inv.SellerName.Present() || !inv.InvoiceDate.Present() {
		return nil, nil
	}

	qctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	prior, err := c.store.FindPrior(qctx, inv.InvoiceNumber.Value, inv.SellerName.Value, inv.InvoiceDate.Value)
	if err != nil {
		return nil, fmt.Errorf("consulta de duplicados: %w", err)
	}
	if prior == nil {
		return nil, nil
	}
	f := warnFinding(RuleDuplicate,
		fmt.Sprintf("Duplicate invoice detected: %s from %s on %s",
			prior.InvoiceNumber, prior.SellerName, prior.InvoiceDate.Format("2006-01-02")))
	return &f, nil
}
