package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/invoice-qc/internal/application/dto"
	"github.com/tu-usuario/invoice-qc/internal/application/ports"
	"github.com/tu-usuario/invoice-qc/internal/application/usecase"
)

// ValidationHandler maneja la validación de lotes y la extracción de
// documentos (protegido).
type ValidationHandler struct {
	validate *usecase.ValidationUseCase
	extract  *usecase.ExtractionUseCase
	pdf      ports.ReportPDFGenerator
}

// NewValidationHandler construye el handler.
func NewValidationHandler(validate *usecase.ValidationUseCase, extract *usecase.ExtractionUseCase, pdf ports.ReportPDFGenerator) *ValidationHandler {
	return &ValidationHandler{validate: validate, extract: extract, pdf: pdf}
}

// ValidateBatch valida un lote de registros ya estructurados.
// POST /api/validate-json
func (h *ValidationHandler) ValidateBatch(c *fiber.Ctx) error {
	var in dto.ValidateBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if len(in.Invoices) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "invoices no puede estar vacío"})
	}
	report := h.validate.ValidateBatch(c.Context(), in.Invoices, time.Now().UTC())
	return c.JSON(report)
}

// ExtractAndValidate extrae registros del texto de documentos y los valida.
// POST /api/extract-and-validate
func (h *ValidationHandler) ExtractAndValidate(c *fiber.Ctx) error {
	var in dto.ExtractAndValidateRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if len(in.Documents) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "documents no puede estar vacío"})
	}
	out := h.extract.ExtractAndValidate(c.Context(), in.Documents, h.validate)
	return c.JSON(out)
}

// ReportPDF valida un lote y devuelve el reporte de control de calidad en PDF.
// POST /api/reports/validation
func (h *ValidationHandler) ReportPDF(c *fiber.Ctx) error {
	var in dto.ValidateBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if len(in.Invoices) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "invoices no puede estar vacío"})
	}
	report := h.validate.ValidateBatch(c.Context(), in.Invoices, time.Now().UTC())
	pdfBytes, err := h.pdf.GenerateReportPDF(c.Context(), report)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="validation-report.pdf"`)
	return c.Send(pdfBytes)
}
