package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tu-usuario/invoice-qc/internal/application/dto"
	"github.com/tu-usuario/invoice-qc/internal/application/ports"
)

// Verificar en tiempo de compilación que GeminiExtractor implementa el puerto.
var _ ports.DocumentExtractor = (*GeminiExtractor)(nil)

const (
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s"

	// systemPrompt define el rol del modelo y el contrato de salida.
	// response_mime_type=application/json obliga a Gemini a devolver
	// JSON puro, sin bloques de markdown que limpiar.
	systemPrompt = `Eres un sistema experto de extracción de datos de facturas. Dado el texto de un documento, devuelve ÚNICAMENTE un objeto JSON con esta estructura exacta:
{
  "invoice_number": "número de factura u orden de compra",
  "invoice_date": "fecha en formato YYYY-MM-DD",
  "due_date": "fecha de vencimiento YYYY-MM-DD o null",
  "seller_name": "nombre del vendedor/proveedor",
  "seller_address": "dirección del vendedor o null",
  "seller_tax_id": "NIT/VAT del vendedor o null",
  "buyer_name": "nombre del comprador/cliente",
  "buyer_address": "dirección del comprador o null",
  "buyer_tax_id": "NIT/VAT del comprador o null",
  "currency": "código de moneda: EUR, USD, GBP o INR",
  "net_total": "monto neto como número sin símbolo de moneda",
  "tax_rate": "porcentaje de impuesto como número o null",
  "tax_amount": "monto de impuesto como número",
  "gross_total": "monto total con impuestos como número",
  "line_items": [{"description": "...", "quantity": 1, "unit_price": 0.0, "line_total": 0.0}]
}

Reglas:
- Usa null (no "null", no "N/A", no string vacío) para campos ausentes.
- Convierte TODAS las fechas a YYYY-MM-DD sin importar el formato de origen.
- Convierte TODOS los montos a números planos (sin símbolos, espacios ni comas).
- Formato alemán de números: 1.234,56 → 1234.56.
- Identifica la moneda por símbolo: € = EUR, $ = USD, £ = GBP, ₹ = INR.
- Si aparecen varias empresas, el vendedor suele ser el proveedor (pie de página) y el comprador el cliente (encabezado).`
)

// GeminiExtractor adaptador que implementa DocumentExtractor llamando a la
// API REST de Google Gemini. Usa únicamente la librería estándar (net/http)
// para no añadir dependencias externas.
type GeminiExtractor struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewGeminiExtractor construye el adaptador. model suele ser "gemini-1.5-flash".
func NewGeminiExtractor(apiKey, model string) *GeminiExtractor {
	return &GeminiExtractor{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: 30 * time.Second, // timeout de red; el caller también pone WithTimeout
		},
	}
}

// ── Estructuras internas para la API de Gemini ────────────────────────────────

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"system_instruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  genConfig       `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type genConfig struct {
	ResponseMIMEType string  `json:"responseMimeType"` // "application/json" → JSON puro garantizado
	Temperature      float32 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ── Implementación del puerto ─────────────────────────────────────────────────

// ExtractInvoice envía el texto del documento a Gemini y devuelve el mapeo
// de campos crudos que entrega el modelo.
func (s *GeminiExtractor) ExtractInvoice(ctx context.Context, documentText string) (dto.RawInvoice, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("AI: GEMINI_API_KEY no configurado")
	}

	payload := geminiRequest{
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: systemPrompt}},
		},
		Contents: []geminiContent{
			{
				Role:  "user",
				Parts: []geminiPart{{Text: "Texto del documento:\n\n" + documentText}},
			},
		},
		GenerationConfig: genConfig{
			ResponseMIMEType: "application/json",
			Temperature:      0.2, // baja temperatura para extracción determinista
			MaxOutputTokens:  2048,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("AI: serializar request: %w", err)
	}

	url := fmt.Sprintf(geminiBaseURL, s.model, s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("AI: crear HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("AI: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("AI: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 256*1024))
	if err != nil {
		return nil, fmt.Errorf("AI: leer respuesta: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp geminiResponse
		if jsonErr := json.Unmarshal(rawBody, &errResp); jsonErr == nil && errResp.Error != nil {
			return nil, fmt.Errorf("AI: Gemini error %d: %s", errResp.Error.Code, errResp.Error.Message)
		}
		return nil, fmt.Errorf("AI: Gemini HTTP %d", resp.StatusCode)
	}

	var gemResp geminiResponse
	if err := json.Unmarshal(rawBody, &gemResp); err != nil {
		return nil, fmt.Errorf("AI: deserializar respuesta Gemini: %w", err)
	}
	if len(gemResp.Candidates) == 0 || len(gemResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("AI: Gemini devolvió respuesta vacía")
	}

	rawJSON := strings.TrimSpace(gemResp.Candidates[0].Content.Parts[0].Text)

	var fields dto.RawInvoice
	if err := json.Unmarshal([]byte(rawJSON), &fields); err != nil {
		return nil, fmt.Errorf("AI: respuesta del modelo no es JSON válido: %w", err)
	}
	if _, ok := fields["line_items"]; !ok {
		fields["line_items"] = []any{}
	}
	return fields, nil
}
