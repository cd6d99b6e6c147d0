package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tu-usuario/invoice-qc/internal/application/dto"
	"github.com/tu-usuario/invoice-qc/internal/domain"
	"github.com/tu-usuario/invoice-qc/internal/domain/entity"
	"github.com/tu-usuario/invoice-qc/internal/domain/repository"
)

// HistoryUseCase gestiona el histórico de facturas validadas: ingesta
// (validar y persistir solo si pasa), consulta y listado.
type HistoryUseCase struct {
	validate *ValidationUseCase
	repo     repository.InvoiceHistoryRepository
	log      zerolog.Logger
}

// NewHistoryUseCase construye el caso de uso del histórico.
func NewHistoryUseCase(validate *ValidationUseCase, repo repository.InvoiceHistoryRepository, log zerolog.Logger) *HistoryUseCase {
	return &HistoryUseCase{validate: validate, repo: repo, log: log}
}

// Ingest valida un registro crudo y lo persiste en el histórico solo si el
// veredicto es válido. Si es inválido devuelve el veredicto junto con
// domain.ErrInvalidInput; si la clave natural ya existe, domain.ErrDuplicate.
func (uc *HistoryUseCase) Ingest(ctx context.Context, raw dto.RawInvoice) (*dto.StoredInvoiceDTO, *dto.ValidationResultDTO, error) {
	inv, result, _ := uc.validate.ValidateRecord(ctx, raw, time.Now().UTC())
	resultDTO := toResultDTO(result)
	if !result.IsValid {
		return nil, &resultDTO, domain.ErrInvalidInput
	}

	payload, err := json.Marshal(raw)
	if err != nil {
		return nil, &resultDTO, fmt.Errorf("serializando payload: %w", err)
	}
	stored := &entity.StoredInvoice{
		InvoiceNumber: inv.InvoiceNumber.Value,
		InvoiceDate:   inv.InvoiceDate.Value,
		SellerName:    inv.SellerName.Value,
		BuyerName:     inv.BuyerName.Value,
		Currency:      inv.Currency.Value,
		NetTotal:      inv.NetTotal.Value,
		TaxAmount:     inv.TaxAmount.Value,
		GrossTotal:    inv.GrossTotal.Value,
		Payload:       payload,
	}
	if err := uc.repo.Save(ctx, stored); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, &resultDTO, err
		}
		uc.log.Error().Err(err).Str("invoice_number", stored.InvoiceNumber).
			Msg("fallo al persistir en el histórico")
		return nil, &resultDTO, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	// El veredicto se guarda junto a la factura; un fallo aquí no deshace
	// la ingesta, solo se registra.
	rec := &entity.ValidationRecord{
		InvoiceID: stored.ID,
		IsValid:   result.IsValid,
		Errors:    resultDTO.Errors,
		Warnings:  resultDTO.Warnings,
	}
	if err := uc.repo.SaveValidationResult(ctx, rec); err != nil {
		uc.log.Error().Err(err).Str("invoice_id", stored.ID).
			Msg("fallo al persistir el veredicto de validación")
	}

	uc.log.Info().Str("invoice_number", stored.InvoiceNumber).Str("id", stored.ID).
		Msg("factura validada y persistida en el histórico")
	out := toStoredDTO(stored)
	return &out, &resultDTO, nil
}

// Validations devuelve los veredictos persistidos de una factura del
// histórico, más recientes primero.
func (uc *HistoryUseCase) Validations(ctx context.Context, invoiceID string) ([]dto.StoredValidationDTO, error) {
	stored, err := uc.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, domain.ErrNotFound
	}
	recs, err := uc.repo.ListValidationResults(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StoredValidationDTO, 0, len(recs))
	for _, rec := range recs {
		out = append(out, dto.StoredValidationDTO{
			ID:          rec.ID,
			IsValid:     rec.IsValid,
			Errors:      rec.Errors,
			Warnings:    rec.Warnings,
			ValidatedAt: rec.ValidatedAt,
		})
	}
	return out, nil
}

// Get devuelve una factura del histórico por su ID.
func (uc *HistoryUseCase) Get(ctx context.Context, id string) (*dto.StoredInvoiceDTO, error) {
	stored, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, domain.ErrNotFound
	}
	out := toStoredDTO(stored)
	return &out, nil
}

// List devuelve las facturas del histórico, más recientes primero.
func (uc *HistoryUseCase) List(ctx context.Context, page dto.PageRequest) ([]dto.StoredInvoiceDTO, error) {
	page.DefaultPage()
	items, err := uc.repo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StoredInvoiceDTO, 0, len(items))
	for _, it := range items {
		out = append(out, toStoredDTO(it))
	}
	return out, nil
}

func toStoredDTO(s *entity.StoredInvoice) dto.StoredInvoiceDTO {
	return dto.StoredInvoiceDTO{
		ID:            s.ID,
		InvoiceNumber: s.InvoiceNumber,
		InvoiceDate:   s.InvoiceDate.Format("2006-01-02"),
		SellerName:    s.SellerName,
		BuyerName:     s.BuyerName,
		Currency:      s.Currency,
		NetTotal:      s.NetTotal.StringFixed(2),
		TaxAmount:     s.TaxAmount.StringFixed(2),
		GrossTotal:    s.GrossTotal.StringFixed(2),
		CreatedAt:     s.CreatedAt,
	}
}
