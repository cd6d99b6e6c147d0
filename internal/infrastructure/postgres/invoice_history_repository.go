package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tu-usuario/invoice-qc/internal/domain"
	"github.com/tu-usuario/invoice-qc/internal/domain/entity"
	"github.com/tu-usuario/invoice-qc/internal/domain/repository"
)

var _ repository.InvoiceHistoryRepository = (*InvoiceHistoryRepo)(nil)

// InvoiceHistoryRepo implementación PostgreSQL del histórico de facturas
// (usable con pool o tx vía Querier).
type InvoiceHistoryRepo struct {
	q Querier
}

// NewInvoiceHistoryRepository construye el adaptador.
func NewInvoiceHistoryRepository(q Querier) *InvoiceHistoryRepo {
	return &InvoiceHistoryRepo{q: q}
}

const storedColumns = `id, invoice_number, invoice_date, seller_name, buyer_name,
       currency, net_total, tax_amount, gross_total, payload, created_at`

// FindPrior busca una factura previa con la misma clave natural. Igualdad
// exacta y case-sensitive en los strings; la fecha compara solo el día.
func (r *InvoiceHistoryRepo) FindPrior(ctx context.Context, invoiceNumber, sellerName string, invoiceDate time.Time) (*entity.StoredInvoice, error) {
	query := `
		SELECT ` + storedColumns + `
		FROM invoices
		WHERE invoice_number = $1 AND seller_name = $2 AND invoice_date = $3
		LIMIT 1`
	row := r.q.QueryRow(ctx, query, invoiceNumber, sellerName, invoiceDate)
	inv, err := scanStored(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find prior invoice: %w", err)
	}
	return inv, nil
}

// Save persiste una factura validada en el histórico.
func (r *InvoiceHistoryRepo) Save(ctx context.Context, inv *entity.StoredInvoice) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO invoices (id, invoice_number, invoice_date, seller_name, buyer_name,
		                      currency, net_total, tax_amount, gross_total, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		inv.ID, inv.InvoiceNumber, inv.InvoiceDate, inv.SellerName, inv.BuyerName,
		inv.Currency, inv.NetTotal, inv.TaxAmount, inv.GrossTotal, inv.Payload, inv.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicate, inv.InvoiceNumber)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// GetByID obtiene una factura almacenada por su ID.
func (r *InvoiceHistoryRepo) GetByID(ctx context.Context, id string) (*entity.StoredInvoice, error) {
	query := `SELECT ` + storedColumns + ` FROM invoices WHERE id = $1`
	row := r.q.QueryRow(ctx, query, id)
	inv, err := scanStored(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

// List devuelve el histórico más reciente primero.
func (r *InvoiceHistoryRepo) List(ctx context.Context, limit, offset int) ([]*entity.StoredInvoice, error) {
	query := `
		SELECT ` + storedColumns + `
		FROM invoices
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var out []*entity.StoredInvoice
	for rows.Next() {
		inv, err := scanStored(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return out, nil
}

// SaveValidationResult persiste el veredicto de una factura ya almacenada.
// Los hallazgos viajan como JSONB para conservar el orden de evaluación.
func (r *InvoiceHistoryRepo) SaveValidationResult(ctx context.Context, rec *entity.ValidationRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.ValidatedAt.IsZero() {
		rec.ValidatedAt = time.Now().UTC()
	}
	errorsJSON, err := json.Marshal(rec.Errors)
	if err != nil {
		return fmt.Errorf("serializar errores: %w", err)
	}
	warningsJSON, err := json.Marshal(rec.Warnings)
	if err != nil {
		return fmt.Errorf("serializar advertencias: %w", err)
	}
	query := `
		INSERT INTO validation_results (id, invoice_id, is_valid, errors, warnings, validated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.q.Exec(ctx, query,
		rec.ID, rec.InvoiceID, rec.IsValid, errorsJSON, warningsJSON, rec.ValidatedAt,
	); err != nil {
		return fmt.Errorf("insert validation result: %w", err)
	}
	return nil
}

// ListValidationResults devuelve los veredictos de una factura, más
// recientes primero.
func (r *InvoiceHistoryRepo) ListValidationResults(ctx context.Context, invoiceID string) ([]*entity.ValidationRecord, error) {
	query := `
		SELECT id, invoice_id, is_valid, errors, warnings, validated_at
		FROM validation_results
		WHERE invoice_id = $1
		ORDER BY validated_at DESC`
	rows, err := r.q.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list validation results: %w", err)
	}
	defer rows.Close()

	var out []*entity.ValidationRecord
	for rows.Next() {
		var rec entity.ValidationRecord
		var errorsJSON, warningsJSON []byte
		if err := rows.Scan(&rec.ID, &rec.InvoiceID, &rec.IsValid, &errorsJSON, &warningsJSON, &rec.ValidatedAt); err != nil {
			return nil, fmt.Errorf("scan validation result: %w", err)
		}
		if len(errorsJSON) > 0 {
			if err := json.Unmarshal(errorsJSON, &rec.Errors); err != nil {
				return nil, fmt.Errorf("deserializar errores: %w", err)
			}
		}
		if len(warningsJSON) > 0 {
			if err := json.Unmarshal(warningsJSON, &rec.Warnings); err != nil {
				return nil, fmt.Errorf("deserializar advertencias: %w", err)
			}
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list validation results: %w", err)
	}
	return out, nil
}

// scanStored mapea una fila a la entidad. Los campos opcionales vienen como
// punteros para tolerar NULL.
func scanStored(row pgx.Row) (*entity.StoredInvoice, error) {
	var inv entity.StoredInvoice
	var currency *string
	err := row.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.InvoiceDate, &inv.SellerName, &inv.BuyerName,
		&currency, &inv.NetTotal, &inv.TaxAmount, &inv.GrossTotal, &inv.Payload, &inv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if currency != nil {
		inv.Currency = *currency
	}
	return &inv, nil
}
