package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/invoice-qc/internal/application/ports"
	"github.com/tu-usuario/invoice-qc/internal/application/usecase"
	"github.com/tu-usuario/invoice-qc/pkg/config"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ValidationUC *usecase.ValidationUseCase
	ExtractionUC *usecase.ExtractionUseCase
	HistoryUC    *usecase.HistoryUseCase
	ReportPDF    ports.ReportPDFGenerator
	JWT          config.JWTConfig
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.JWT)
	authGroup.Post("/token", authHandler.Token)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWT.Secret))

	// Validación y extracción (protegido)
	validationHandler := NewValidationHandler(deps.ValidationUC, deps.ExtractionUC, deps.ReportPDF)
	protected.Post("/validate-json", validationHandler.ValidateBatch)
	protected.Post("/extract-and-validate", validationHandler.ExtractAndValidate)
	protected.Post("/reports/validation", validationHandler.ReportPDF)

	// Histórico de facturas (protegido)
	invoices := protected.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.HistoryUC)
	invoices.Post("/", invoiceHandler.Ingest)
	invoices.Get("/", invoiceHandler.List)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Get("/:id/validations", invoiceHandler.GetValidations)
}
