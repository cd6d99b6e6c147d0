// Package extraction implementa el extractor de respaldo basado en patrones.
// Es deliberadamente simple: cuando no hay API key de Gemini (o la llamada
// falla) produce un registro aproximado que la validación se encarga de
// juzgar. Agnóstico de idioma donde es posible.
package extraction

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tu-usuario/invoice-qc/internal/application/dto"
	"github.com/tu-usuario/invoice-qc/internal/application/ports"
)

var _ ports.DocumentExtractor = (*RegexExtractor)(nil)

// RegexExtractor extractor de respaldo sin dependencias externas.
type RegexExtractor struct{}

// NewRegexExtractor construye el extractor.
func NewRegexExtractor() *RegexExtractor { return &RegexExtractor{} }

// ── Patrones ──────────────────────────────────────────────────────────────────

var (
	// Números de factura / orden en varios idiomas. AUFNR va primero porque
	// las órdenes de compra alemanas llevan el prefijo pegado al número.
	invoicePatterns = []*regexp.Regexp{
		regexp.MustCompile(`AUFNR(\d+)`),
		regexp.MustCompile(`(?i)(?:Invoice|Rechnung|Facture|Factura)[:\s#]*([A-Z0-9-]+)`),
		regexp.MustCompile(`(?i)(?:Order|Bestellung|Commande|Pedido)[:\s#]*([A-Z0-9-]+)`),
		regexp.MustCompile(`(?i)(?:PO|REF)[:\s#-]*([A-Z0-9-]+)`),
		regexp.MustCompile(`\b([A-Z]{2,}\d{4,})\b`),
	}

	datePattern = regexp.MustCompile(`\d{2}\.\d{2}\.\d{4}|\d{2}/\d{2}/\d{4}|\d{4}-\d{2}-\d{2}`)

	// Indicadores de entidad legal para detectar nombres de empresa. El
	// nombre no cruza saltos de línea; si no, dos empresas en líneas
	// consecutivas se fusionarían en un solo match.
	companyPattern = regexp.MustCompile(`([A-Z][A-Za-z ]+(?:Corporation|Corp|GmbH|gGmbH|Ltd|LLC|Inc|AG|Pvt|Limited))`)

	// Montos con 2 decimales (formato alemán o inglés).
	amountPattern = regexp.MustCompile(`[\d.,]+\d{2}`)
)

// dateLayouts prioridad de parseo del extractor (misma que la normalización).
var dateLayouts = []string{"2006-01-02", "02.01.2006", "02/01/2006"}

// ExtractInvoice aplica los patrones sobre el texto y arma el mapeo crudo.
// Nunca devuelve error: lo que no se encuentra queda ausente y la
// validación lo reporta.
func (e *RegexExtractor) ExtractInvoice(_ context.Context, text string) (dto.RawInvoice, error) {
	raw := dto.RawInvoice{"line_items": []any{}}

	if num := extractInvoiceNumber(text); num != "" {
		raw["invoice_number"] = num
	}

	// Primeras dos fechas encontradas: factura y vencimiento, en ese orden.
	dates := datePattern.FindAllString(text, 2)
	for i, ds := range dates {
		iso, ok := parseToISO(ds)
		if !ok {
			continue
		}
		if i == 0 {
			raw["invoice_date"] = iso
		} else {
			raw["due_date"] = iso
		}
	}

	if cur := detectCurrency(text); cur != "" {
		raw["currency"] = cur
	}

	companies := extractCompanies(text)
	if len(companies) >= 1 {
		raw["seller_name"] = companies[0]
	}
	if len(companies) >= 2 {
		raw["buyer_name"] = companies[1]
	}

	// El monto más alto suele ser el bruto; después neto e impuesto.
	amounts := extractAmounts(text)
	if len(amounts) >= 1 {
		raw["gross_total"] = amounts[0]
	}
	if len(amounts) >= 2 {
		raw["net_total"] = amounts[1]
	}
	if len(amounts) >= 3 {
		raw["tax_amount"] = amounts[2]
	}

	return raw, nil
}

func extractInvoiceNumber(text string) string {
	for i, p := range invoicePatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if i == 0 {
			return "AUFNR" + m[1]
		}
		return strings.TrimSpace(m[1])
	}
	return ""
}

func parseToISO(s string) (string, bool) {
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d.Format("2006-01-02"), true
		}
	}
	return "", false
}

func detectCurrency(text string) string {
	switch {
	case strings.Contains(text, "€") || strings.Contains(text, "EUR"):
		return "EUR"
	case strings.Contains(text, "$") || strings.Contains(text, "USD"):
		return "USD"
	case strings.Contains(text, "£") || strings.Contains(text, "GBP"):
		return "GBP"
	case strings.Contains(text, "₹") || strings.Contains(text, "INR") || strings.Contains(text, "Rs"):
		return "INR"
	}
	return ""
}

func extractCompanies(text string) []string {
	matches := companyPattern.FindAllString(text, -1)
	seen := map[string]bool{}
	var out []string
	for _, m := range matches {
		m = strings.TrimSpace(m)
		if len(m) <= 5 || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// extractAmounts devuelve los montos detectados ordenados de mayor a menor.
func extractAmounts(text string) []float64 {
	var out []float64
	for _, m := range amountPattern.FindAllString(text, -1) {
		if v, ok := parseAmount(m); ok {
			out = append(out, v)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(out)))
	return out
}

// parseAmount tolera formato alemán (1.234,56) e inglés (1,234.56).
func parseAmount(s string) (float64, bool) {
	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")
	switch {
	case hasComma && hasDot:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		last := strings.LastIndex(s, ",")
		if len(s)-last-1 == 2 {
			s = s[:last] + "." + s[last+1:]
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
