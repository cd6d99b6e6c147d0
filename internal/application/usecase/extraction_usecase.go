package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tu-usuario/invoice-qc/internal/application/dto"
	"github.com/tu-usuario/invoice-qc/internal/application/ports"
)

// ExtractionUseCase extrae registros de factura del texto de documentos.
// Intenta primero el extractor de IA (si está configurado) y cae al de
// respaldo cuando el primero falla o no existe: un documento ilegible
// produce un registro pobre, nunca aborta el lote.
type ExtractionUseCase struct {
	ai       ports.DocumentExtractor // nil = sin API key configurada
	fallback ports.DocumentExtractor
	log      zerolog.Logger
}

// NewExtractionUseCase construye el caso de uso. fallback es obligatorio;
// ai puede ser nil.
func NewExtractionUseCase(ai, fallback ports.DocumentExtractor, log zerolog.Logger) *ExtractionUseCase {
	return &ExtractionUseCase{ai: ai, fallback: fallback, log: log}
}

// Extract devuelve el mapeo de campos crudos de un documento. sourceFile se
// anota en el registro para poder identificarlo si no trae número de factura.
func (uc *ExtractionUseCase) Extract(ctx context.Context, documentText, sourceFile string) dto.RawInvoice {
	var raw dto.RawInvoice
	if uc.ai != nil {
		extracted, err := uc.ai.ExtractInvoice(ctx, documentText)
		if err != nil {
			uc.log.Warn().Err(err).Str("file", sourceFile).
				Msg("extracción IA falló, usando respaldo regex")
		} else {
			raw = extracted
		}
	}
	if raw == nil {
		extracted, err := uc.fallback.ExtractInvoice(ctx, documentText)
		if err != nil {
			// El extractor regex no falla en la práctica; si lo hiciera,
			// entregamos un registro vacío y la validación reporta el resto.
			uc.log.Error().Err(err).Str("file", sourceFile).Msg("extracción de respaldo falló")
			extracted = dto.RawInvoice{}
		}
		raw = extracted
	}
	raw["source_file"] = sourceFile
	return raw
}

// ExtractAndValidate extrae cada documento y valida el lote resultante en un
// solo paso. El resultado i corresponde al documento i.
func (uc *ExtractionUseCase) ExtractAndValidate(ctx context.Context, docs []dto.ExtractedDocumentDTO, validate *ValidationUseCase) *dto.ExtractAndValidateResponseDTO {
	raws := make([]dto.RawInvoice, 0, len(docs))
	for _, doc := range docs {
		raws = append(raws, uc.Extract(ctx, doc.Text, doc.Filename))
	}
	report := validate.ValidateBatch(ctx, raws, time.Now().UTC())

	out := &dto.ExtractAndValidateResponseDTO{
		TotalDocuments: len(docs),
		Results:        make([]dto.ExtractAndValidateResultDTO, 0, len(docs)),
		Summary:        report.Summary,
	}
	for i := range docs {
		out.Results = append(out.Results, dto.ExtractAndValidateResultDTO{
			Filename:      docs[i].Filename,
			ExtractedData: raws[i],
			Validation:    report.Results[i],
		})
	}
	return out
}
