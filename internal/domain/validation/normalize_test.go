package validation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/invoice-qc/internal/domain/entity"
	"github.com/tu-usuario/invoice-qc/internal/domain/validation"
)

// ──────────────────────────────────────────────────────────────────────────────
// Normalización de fechas
// ──────────────────────────────────────────────────────────────────────────────

func TestNormalize_FechaISO(t *testing.T) {
	inv := validation.Normalize(map[string]any{"invoice_date": "2024-03-15"})

	require.True(t, inv.InvoiceDate.Present(), "la fecha ISO debe parsear")
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), inv.InvoiceDate.Value)
}

func TestNormalize_FechaEuropeaConPuntos(t *testing.T) {
	inv := validation.Normalize(map[string]any{"invoice_date": "15.03.2024"})

	require.True(t, inv.InvoiceDate.Present())
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), inv.InvoiceDate.Value)
}

func TestNormalize_FechaEuropeaConBarras(t *testing.T) {
	inv := validation.Normalize(map[string]any{"invoice_date": "15/03/2024"})

	require.True(t, inv.InvoiceDate.Present())
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), inv.InvoiceDate.Value)
}

// La ambigüedad DD/MM no se resuelve: "03/04/2024" es siempre 3 de abril,
// nunca 4 de marzo.
func TestNormalize_FechaAmbigua_SiempreDiaMes(t *testing.T) {
	inv := validation.Normalize(map[string]any{"invoice_date": "03/04/2024"})

	require.True(t, inv.InvoiceDate.Present())
	assert.Equal(t, time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC), inv.InvoiceDate.Value,
		"03/04/2024 debe interpretarse como 3 de abril (día/mes)")
}

func TestNormalize_FechaImparseable_ConservaCrudo(t *testing.T) {
	inv := validation.Normalize(map[string]any{"invoice_date": "March 15, 2024"})

	assert.Equal(t, entity.FieldUnparseable, inv.InvoiceDate.State)
	assert.Equal(t, "March 15, 2024", inv.InvoiceDate.Raw,
		"el valor crudo debe conservarse para el mensaje de error")
}

func TestNormalize_FechaAusente(t *testing.T) {
	inv := validation.Normalize(map[string]any{})

	assert.Equal(t, entity.FieldMissing, inv.InvoiceDate.State)
	assert.Equal(t, entity.FieldMissing, inv.DueDate.State)
}

// ──────────────────────────────────────────────────────────────────────────────
// Normalización de montos
// ──────────────────────────────────────────────────────────────────────────────

func TestNormalize_MontoNumericoJSON(t *testing.T) {
	inv := validation.Normalize(map[string]any{"net_total": 1234.56})

	require.True(t, inv.NetTotal.Present())
	assert.Equal(t, "1234.56", inv.NetTotal.Value.String())
}

func TestNormalize_MontoFormatoAleman(t *testing.T) {
	inv := validation.Normalize(map[string]any{"net_total": "1.234,56"})

	require.True(t, inv.NetTotal.Present(), "1.234,56 debe parsear (punto = miles)")
	assert.Equal(t, "1234.56", inv.NetTotal.Value.String())
}

func TestNormalize_MontoFormatoIngles(t *testing.T) {
	inv := validation.Normalize(map[string]any{"net_total": "1,234.56"})

	require.True(t, inv.NetTotal.Present(), "1,234.56 debe parsear (coma = miles)")
	assert.Equal(t, "1234.56", inv.NetTotal.Value.String())
}

func TestNormalize_MontoComaDecimal(t *testing.T) {
	inv := validation.Normalize(map[string]any{"net_total": "1234,56"})

	require.True(t, inv.NetTotal.Present(), "coma seguida de 2 dígitos = decimal")
	assert.Equal(t, "1234.56", inv.NetTotal.Value.String())
}

func TestNormalize_MontoComaMiles(t *testing.T) {
	inv := validation.Normalize(map[string]any{"net_total": "1,234"})

	require.True(t, inv.NetTotal.Present(), "coma seguida de 3 dígitos = miles")
	assert.Equal(t, "1234", inv.NetTotal.Value.String())
}

func TestNormalize_MontoImparseable(t *testing.T) {
	inv := validation.Normalize(map[string]any{"net_total": "mil doscientos"})

	assert.Equal(t, entity.FieldUnparseable, inv.NetTotal.State)
	assert.Equal(t, "mil doscientos", inv.NetTotal.Raw)
}

func TestNormalize_MontoStringVacio_EsAusente(t *testing.T) {
	inv := validation.Normalize(map[string]any{"net_total": "   "})

	assert.Equal(t, entity.FieldMissing, inv.NetTotal.State,
		"un string de solo espacios cuenta como ausente, no como ilegible")
}

// ──────────────────────────────────────────────────────────────────────────────
// Normalización de texto y moneda
// ──────────────────────────────────────────────────────────────────────────────

func TestNormalize_TextoSoloEspacios_EsAusente(t *testing.T) {
	inv := validation.Normalize(map[string]any{"seller_name": "  \t "})

	assert.Equal(t, entity.FieldMissing, inv.SellerName.State)
}

func TestNormalize_TextoConEspacios_SeRecorta(t *testing.T) {
	inv := validation.Normalize(map[string]any{"seller_name": "  Acme GmbH  "})

	require.True(t, inv.SellerName.Present())
	assert.Equal(t, "Acme GmbH", inv.SellerName.Value)
}

func TestNormalize_NumeroDeFacturaNumerico(t *testing.T) {
	// Los parsers JSON entregan números como float64.
	inv := validation.Normalize(map[string]any{"invoice_number": float64(20240101)})

	require.True(t, inv.InvoiceNumber.Present())
	assert.Equal(t, "20240101", inv.InvoiceNumber.Value)
}

func TestNormalize_MonedaEnMinusculas_SeNormaliza(t *testing.T) {
	inv := validation.Normalize(map[string]any{"currency": "eur"})

	require.True(t, inv.Currency.Present())
	assert.Equal(t, "EUR", inv.Currency.Value)
}

// ──────────────────────────────────────────────────────────────────────────────
// Líneas de detalle
// ──────────────────────────────────────────────────────────────────────────────

func TestNormalize_LineItems(t *testing.T) {
	inv := validation.Normalize(map[string]any{
		"line_items": []any{
			map[string]any{"description": "Widget", "quantity": 2.0, "unit_price": 10.0, "line_total": 20.0},
			map[string]any{"description": "Gadget", "quantity": 1.0, "unit_price": 5.5, "line_total": 5.5},
		},
	})

	require.Len(t, inv.LineItems, 2)
	assert.Equal(t, "Widget", inv.LineItems[0].Description)
	assert.Equal(t, "20", inv.LineItems[0].LineTotal.String())
}

func TestNormalize_LineItemIlegible_SeDescarta(t *testing.T) {
	inv := validation.Normalize(map[string]any{
		"line_items": []any{
			map[string]any{"description": "OK", "quantity": 1.0, "unit_price": 10.0, "line_total": 10.0},
			map[string]any{"description": "rota", "quantity": "dos", "unit_price": 10.0, "line_total": 20.0},
		},
	})

	require.Len(t, inv.LineItems, 1, "la línea con cantidad ilegible debe descartarse")
	assert.Equal(t, "OK", inv.LineItems[0].Description)
}

// ──────────────────────────────────────────────────────────────────────────────
// Identificador del registro
// ──────────────────────────────────────────────────────────────────────────────

func TestInvoiceID_ConNumero(t *testing.T) {
	inv := validation.Normalize(map[string]any{"invoice_number": "INV-001"})
	assert.Equal(t, "INV-001", inv.ID())
}

func TestInvoiceID_SinNumeroConArchivo(t *testing.T) {
	inv := validation.Normalize(map[string]any{"source_file": "scan_042.txt"})
	assert.Equal(t, "UNKNOWN_scan_042.txt", inv.ID())
}

func TestInvoiceID_SinNumeroNiArchivo(t *testing.T) {
	inv := validation.Normalize(map[string]any{})
	assert.Equal(t, "UNKNOWN_NO_FILE", inv.ID())
}
