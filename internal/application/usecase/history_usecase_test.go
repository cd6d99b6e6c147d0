package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/invoice-qc/internal/application/usecase"
	"github.com/tu-usuario/invoice-qc/internal/domain"
	"github.com/tu-usuario/invoice-qc/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Repositorio en memoria
// ──────────────────────────────────────────────────────────────────────────────

// memoryHistory histórico en memoria que registra facturas y veredictos.
// saveErr fuerza el fallo de Save para simular la caída del almacén.
type memoryHistory struct {
	invoices   []*entity.StoredInvoice
	verdicts   []*entity.ValidationRecord
	saveErr    error
	verdictErr error
}

func (m *memoryHistory) FindPrior(context.Context, string, string, time.Time) (*entity.StoredInvoice, error) {
	return nil, nil
}

func (m *memoryHistory) Save(_ context.Context, inv *entity.StoredInvoice) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	inv.ID = fmt.Sprintf("inv-%d", len(m.invoices)+1)
	inv.CreatedAt = time.Now().UTC()
	m.invoices = append(m.invoices, inv)
	return nil
}

func (m *memoryHistory) GetByID(_ context.Context, id string) (*entity.StoredInvoice, error) {
	for _, inv := range m.invoices {
		if inv.ID == id {
			return inv, nil
		}
	}
	return nil, nil
}

func (m *memoryHistory) List(context.Context, int, int) ([]*entity.StoredInvoice, error) {
	return m.invoices, nil
}

func (m *memoryHistory) SaveValidationResult(_ context.Context, rec *entity.ValidationRecord) error {
	if m.verdictErr != nil {
		return m.verdictErr
	}
	rec.ID = fmt.Sprintf("val-%d", len(m.verdicts)+1)
	rec.ValidatedAt = time.Now().UTC()
	m.verdicts = append(m.verdicts, rec)
	return nil
}

func (m *memoryHistory) ListValidationResults(_ context.Context, invoiceID string) ([]*entity.ValidationRecord, error) {
	var out []*entity.ValidationRecord
	for _, rec := range m.verdicts {
		if rec.InvoiceID == invoiceID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func historyUC(repo *memoryHistory) *usecase.HistoryUseCase {
	return usecase.NewHistoryUseCase(offlineUC(), repo, zerolog.Nop())
}

// ──────────────────────────────────────────────────────────────────────────────
// Ingesta
// ──────────────────────────────────────────────────────────────────────────────

func TestIngest_FacturaValida_PersisteFacturaYVeredicto(t *testing.T) {
	repo := &memoryHistory{}
	uc := historyUC(repo)

	stored, result, err := uc.Ingest(context.Background(), rawInvoice("F-100"))

	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "F-100", stored.InvoiceNumber)
	assert.True(t, result.IsValid)

	require.Len(t, repo.invoices, 1, "la factura debe quedar en el histórico")
	require.Len(t, repo.verdicts, 1, "el veredicto debe persistirse junto a la factura")
	assert.Equal(t, repo.invoices[0].ID, repo.verdicts[0].InvoiceID)
	assert.True(t, repo.verdicts[0].IsValid)
	assert.Empty(t, repo.verdicts[0].Errors)
}

func TestIngest_FacturaInvalida_NoPersisteNada(t *testing.T) {
	repo := &memoryHistory{}
	uc := historyUC(repo)

	raw := rawInvoice("F-101")
	delete(raw, "invoice_number")

	stored, result, err := uc.Ingest(context.Background(), raw)

	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, stored)
	require.NotNil(t, result)
	assert.False(t, result.IsValid)
	assert.NotEmpty(t, result.Errors)
	assert.Empty(t, repo.invoices, "una factura inválida no se guarda")
	assert.Empty(t, repo.verdicts, "sin factura no hay veredicto que guardar")
}

func TestIngest_ClaveDuplicada_DevuelveErrDuplicate(t *testing.T) {
	repo := &memoryHistory{saveErr: domain.ErrDuplicate}
	uc := historyUC(repo)

	stored, result, err := uc.Ingest(context.Background(), rawInvoice("F-102"))

	require.ErrorIs(t, err, domain.ErrDuplicate)
	assert.Nil(t, stored)
	require.NotNil(t, result)
	assert.Empty(t, repo.verdicts, "si la factura no entró, el veredicto tampoco")
}

func TestIngest_AlmacenCaido_DevuelveErrStoreUnavailable(t *testing.T) {
	repo := &memoryHistory{saveErr: errors.New("connection refused")}
	uc := historyUC(repo)

	_, _, err := uc.Ingest(context.Background(), rawInvoice("F-103"))

	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestIngest_FalloAlGuardarVeredicto_NoDeshaceLaIngesta(t *testing.T) {
	repo := &memoryHistory{verdictErr: errors.New("connection refused")}
	uc := historyUC(repo)

	stored, _, err := uc.Ingest(context.Background(), rawInvoice("F-104"))

	require.NoError(t, err, "el veredicto es complementario; su fallo no anula la ingesta")
	require.NotNil(t, stored)
	assert.Len(t, repo.invoices, 1)
	assert.Empty(t, repo.verdicts)
}

// ──────────────────────────────────────────────────────────────────────────────
// Consulta de veredictos
// ──────────────────────────────────────────────────────────────────────────────

func TestValidations_DevuelveLosVeredictosDeLaFactura(t *testing.T) {
	repo := &memoryHistory{}
	uc := historyUC(repo)

	stored, _, err := uc.Ingest(context.Background(), rawInvoice("F-200"))
	require.NoError(t, err)

	validations, err := uc.Validations(context.Background(), stored.ID)

	require.NoError(t, err)
	require.Len(t, validations, 1)
	assert.True(t, validations[0].IsValid)
	assert.False(t, validations[0].ValidatedAt.IsZero())
}

func TestValidations_FacturaInexistente_DevuelveErrNotFound(t *testing.T) {
	uc := historyUC(&memoryHistory{})

	_, err := uc.Validations(context.Background(), "no-existe")

	require.ErrorIs(t, err, domain.ErrNotFound)
}
