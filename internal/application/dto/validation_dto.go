package dto

import "time"

// RawInvoice mapeo de campos crudos tal como los entrega la extracción
// (AI o regex) o el cliente del API. Sin garantía de tipos: la
// normalización es la frontera que lo canoniza.
type RawInvoice map[string]any

// ValidateBatchRequest cuerpo del endpoint de validación por lote.
type ValidateBatchRequest struct {
	Invoices []RawInvoice `json:"invoices"`
}

// ExtractAndValidateRequest cuerpo del endpoint extract-and-validate.
type ExtractAndValidateRequest struct {
	Documents []ExtractedDocumentDTO `json:"documents"`
}

// ValidationResultDTO veredicto por registro, en el mismo orden en que
// llegaron los registros al lote.
type ValidationResultDTO struct {
	InvoiceID string   `json:"invoice_id"`
	IsValid   bool     `json:"is_valid"`
	Errors    []string `json:"errors"`
	Warnings  []string `json:"warnings"`
}

// BatchSummaryDTO resumen agregado del lote. ErrorCounts agrupa por la
// identidad de la regla que produjo el error (no por texto del mensaje).
// InfrastructureWarnings surfacea fallos degradados del histórico de
// duplicados; no son hallazgos de validación.
type BatchSummaryDTO struct {
	TotalInvoices          int            `json:"total_invoices"`
	ValidInvoices          int            `json:"valid_invoices"`
	InvalidInvoices        int            `json:"invalid_invoices"`
	ErrorCounts            map[string]int `json:"error_counts"`
	InfrastructureWarnings []string       `json:"infrastructure_warnings,omitempty"`
	ValidatedAt            time.Time      `json:"validation_timestamp"`
}

// BatchReportDTO salida completa de validate_batch.
type BatchReportDTO struct {
	Summary BatchSummaryDTO       `json:"summary"`
	Results []ValidationResultDTO `json:"results"`
}

// ExtractedDocumentDTO entrada del endpoint de extracción: texto ya
// extraído de un documento (el PDF→texto queda fuera de este servicio).
type ExtractedDocumentDTO struct {
	Filename string `json:"filename"`
	Text     string `json:"text"`
}

// ExtractAndValidateResultDTO resultado por documento extraído.
type ExtractAndValidateResultDTO struct {
	Filename      string              `json:"filename"`
	ExtractedData RawInvoice          `json:"extracted_data"`
	Validation    ValidationResultDTO `json:"validation"`
}

// ExtractAndValidateResponseDTO respuesta del endpoint extract-and-validate.
type ExtractAndValidateResponseDTO struct {
	TotalDocuments int                           `json:"total_documents"`
	Results        []ExtractAndValidateResultDTO `json:"results"`
	Summary        BatchSummaryDTO               `json:"summary"`
}

// StoredValidationDTO veredicto persistido de una factura del histórico.
type StoredValidationDTO struct {
	ID          string    `json:"id"`
	IsValid     bool      `json:"is_valid"`
	Errors      []string  `json:"errors"`
	Warnings    []string  `json:"warnings"`
	ValidatedAt time.Time `json:"validated_at"`
}

// StoredInvoiceDTO factura del histórico para respuestas del API.
type StoredInvoiceDTO struct {
	ID            string    `json:"id"`
	InvoiceNumber string    `json:"invoice_number"`
	InvoiceDate   string    `json:"invoice_date"`
	SellerName    string    `json:"seller_name"`
	BuyerName     string    `json:"buyer_name"`
	Currency      string    `json:"currency"`
	NetTotal      string    `json:"net_total"`
	TaxAmount     string    `json:"tax_amount"`
	GrossTotal    string    `json:"gross_total"`
	CreatedAt     time.Time `json:"created_at"`
}
