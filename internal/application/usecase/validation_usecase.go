package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/invoice-qc/internal/application/dto"
	"github.com/tu-usuario/invoice-qc/internal/domain/entity"
	"github.com/tu-usuario/invoice-qc/internal/domain/validation"
)

// ValidationOptions umbrales configurables del orquestador. Los ceros toman
// los valores por defecto del sistema.
type ValidationOptions struct {
	HighAmountThreshold decimal.Decimal
	Tolerance           decimal.Decimal
	// Workers registros evaluados en paralelo. La evaluación por registro es
	// independiente (solo el histórico de duplicados se comparte, y es de
	// solo lectura), así que paralelizar no altera ningún resultado.
	Workers int
}

// ValidationUseCase orquesta la validación de lotes: normaliza cada registro,
// ejecuta las reglas, consulta duplicados y agrega el resumen.
type ValidationUseCase struct {
	dup  *validation.DuplicateChecker // nil = sin histórico disponible (modo offline)
	opts ValidationOptions
	log  zerolog.Logger
}

// NewValidationUseCase construye el orquestador. dup puede ser nil (CLI sin
// base de datos): en ese caso la regla de duplicados simplemente no aplica.
func NewValidationUseCase(dup *validation.DuplicateChecker, opts ValidationOptions, log zerolog.Logger) *ValidationUseCase {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	return &ValidationUseCase{dup: dup, opts: opts, log: log}
}

// evalContext contexto de reglas con los umbrales configurados.
func (uc *ValidationUseCase) evalContext(now time.Time) *validation.Context {
	ctx := validation.NewContext(now)
	if uc.opts.HighAmountThreshold.IsPositive() {
		ctx.HighAmountThreshold = uc.opts.HighAmountThreshold
	}
	if uc.opts.Tolerance.IsPositive() {
		ctx.Tolerance = uc.opts.Tolerance
	}
	return ctx
}

// ValidateRecord valida un único registro crudo. Devuelve el registro
// canónico, el veredicto y, si la consulta de duplicados degradó, la nota
// de infraestructura correspondiente (cadena vacía si no hubo fallo).
func (uc *ValidationUseCase) ValidateRecord(ctx context.Context, raw dto.RawInvoice, now time.Time) (*entity.Invoice, *validation.Result, string) {
	inv := validation.Normalize(raw)
	findings := validation.Evaluate(inv, uc.evalContext(now))

	var infraNote string
	if uc.dup != nil {
		dupFinding, err := uc.dup.Check(ctx, inv)
		if err != nil {
			// Degradación: sin duplicado, el fallo se registra y se
			// surfacea aparte; jamás invalida el registro.
			uc.log.Warn().Err(err).Str("invoice_id", inv.ID()).
				Msg("histórico de duplicados no disponible, se omite la verificación")
			infraNote = "duplicate check unavailable for " + inv.ID() + ": " + err.Error()
		} else if dupFinding != nil {
			findings = append(findings, *dupFinding)
		}
	}

	result := validation.NewResult(inv.ID(), findings)
	return inv, result, infraNote
}

// ValidateBatch valida un lote completo preservando el orden: el resultado
// i corresponde al registro i. Los registros se evalúan en paralelo
// acotado; los duplicados se comparan solo contra lo ya persistido antes de
// la petición, nunca contra otros registros del mismo lote.
func (uc *ValidationUseCase) ValidateBatch(ctx context.Context, raws []dto.RawInvoice, now time.Time) *dto.BatchReportDTO {
	results := make([]*validation.Result, len(raws))
	infraNotes := make([]string, len(raws))

	sem := make(chan struct{}, uc.opts.Workers)
	var wg sync.WaitGroup
	for i, raw := range raws {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, raw dto.RawInvoice) {
			defer wg.Done()
			defer func() { <-sem }()
			_, result, note := uc.ValidateRecord(ctx, raw, now)
			results[i] = result
			infraNotes[i] = note
		}(i, raw)
	}
	wg.Wait()

	report := &dto.BatchReportDTO{
		Summary: dto.BatchSummaryDTO{
			TotalInvoices: len(results),
			ErrorCounts:   map[string]int{},
			ValidatedAt:   now,
		},
		Results: make([]dto.ValidationResultDTO, 0, len(results)),
	}
	for _, r := range results {
		if r.IsValid {
			report.Summary.ValidInvoices++
		} else {
			report.Summary.InvalidInvoices++
		}
		for _, f := range r.Errors {
			report.Summary.ErrorCounts[string(f.Rule)]++
		}
		report.Results = append(report.Results, toResultDTO(r))
	}
	for _, note := range infraNotes {
		if note != "" {
			report.Summary.InfrastructureWarnings = append(report.Summary.InfrastructureWarnings, note)
		}
	}

	uc.log.Info().
		Int("total", report.Summary.TotalInvoices).
		Int("valid", report.Summary.ValidInvoices).
		Int("invalid", report.Summary.InvalidInvoices).
		Msg("lote validado")
	return report
}

// toResultDTO aplana los hallazgos a los mensajes que viajan por el API,
// conservando el orden de evaluación.
func toResultDTO(r *validation.Result) dto.ValidationResultDTO {
	out := dto.ValidationResultDTO{
		InvoiceID: r.InvoiceID,
		IsValid:   r.IsValid,
		Errors:    make([]string, 0, len(r.Errors)),
		Warnings:  make([]string, 0, len(r.Warnings)),
	}
	for _, f := range r.Errors {
		out.Errors = append(out.Errors, f.Message)
	}
	for _, f := range r.Warnings {
		out.Warnings = append(out.Warnings, f.Message)
	}
	return out
}
