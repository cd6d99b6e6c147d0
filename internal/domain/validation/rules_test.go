package validation_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/invoice-qc/internal/domain/validation"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

// fixedNow fecha de proceso inyectada: las reglas jamás leen el reloj del
// sistema, así que los tests son estables en el tiempo.
var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// validRaw registro completo y coherente que pasa todas las reglas sin
// errores ni advertencias.
func validRaw() map[string]any {
	return map[string]any{
		"invoice_number": "INV-2024-001",
		"invoice_date":   "2024-03-15",
		"due_date":       "2024-04-15",
		"seller_name":    "Acme GmbH",
		"seller_tax_id":  "DE123456789",
		"buyer_name":     "Globex Corp",
		"buyer_tax_id":   "GB987654321",
		"currency":       "EUR",
		"net_total":      100.0,
		"tax_amount":     19.0,
		"gross_total":    119.0,
		"line_items": []any{
			map[string]any{"description": "Servicio", "quantity": 2.0, "unit_price": 50.0, "line_total": 100.0},
		},
	}
}

// evaluate normaliza y evalúa con los umbrales por defecto.
func evaluate(t *testing.T, raw map[string]any) *validation.Result {
	t.Helper()
	inv := validation.Normalize(raw)
	findings := validation.Evaluate(inv, validation.NewContext(fixedNow))
	return validation.NewResult(inv.ID(), findings)
}

func errorMessages(r *validation.Result) []string {
	out := make([]string, 0, len(r.Errors))
	for _, f := range r.Errors {
		out = append(out, f.Message)
	}
	return out
}

func warningMessages(r *validation.Result) []string {
	out := make([]string, 0, len(r.Warnings))
	for _, f := range r.Warnings {
		out = append(out, f.Message)
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Registro válido
// ──────────────────────────────────────────────────────────────────────────────

func TestEvaluate_FacturaValidaSinHallazgos(t *testing.T) {
	r := evaluate(t, validRaw())

	assert.True(t, r.IsValid, "una factura coherente debe ser válida")
	assert.Empty(t, r.Errors)
	assert.Empty(t, r.Warnings)
	assert.Equal(t, "INV-2024-001", r.InvoiceID)
}

// Evaluate es pura: evaluar dos veces el mismo registro produce exactamente
// los mismos hallazgos en el mismo orden.
func TestEvaluate_Idempotente(t *testing.T) {
	raw := validRaw()
	raw["currency"] = "XYZ"
	delete(raw, "due_date")

	r1 := evaluate(t, raw)
	r2 := evaluate(t, raw)

	assert.Equal(t, r1.Errors, r2.Errors)
	assert.Equal(t, r1.Warnings, r2.Warnings)
}

// ──────────────────────────────────────────────────────────────────────────────
// Completitud
// ──────────────────────────────────────────────────────────────────────────────

func TestEvaluate_CampoObligatorioAusente(t *testing.T) {
	raw := validRaw()
	delete(raw, "seller_name")

	r := evaluate(t, raw)

	assert.False(t, r.IsValid)
	assert.Contains(t, errorMessages(r), "Missing required field: seller_name")
}

func TestEvaluate_TodosLosObligatoriosAusentes(t *testing.T) {
	r := evaluate(t, map[string]any{})

	assert.False(t, r.IsValid)
	msgs := errorMessages(r)
	for _, field := range []string{
		"invoice_number", "invoice_date", "seller_name", "buyer_name",
		"currency", "net_total", "tax_amount", "gross_total",
	} {
		assert.Contains(t, msgs, "Missing required field: "+field)
	}
	assert.Equal(t, "UNKNOWN_NO_FILE", r.InvoiceID)
}

func TestEvaluate_MontoIlegible_EsErrorDeCompletitud(t *testing.T) {
	raw := validRaw()
	raw["net_total"] = "mil doscientos"

	r := evaluate(t, raw)

	assert.False(t, r.IsValid)
	assert.Contains(t, errorMessages(r), "Invalid value in required field: net_total")
}

// Una fecha ilegible se reporta una sola vez, con su valor crudo, por la
// regla de formato de fechas; la de campos obligatorios no la duplica.
func TestEvaluate_FechaIlegible_SeReportaUnaVez(t *testing.T) {
	raw := validRaw()
	raw["invoice_date"] = "March 15, 2024"

	r := evaluate(t, raw)

	assert.False(t, r.IsValid)
	msgs := errorMessages(r)
	assert.Contains(t, msgs, "Invalid invoice_date format: March 15, 2024")
	assert.NotContains(t, msgs, "Missing required field: invoice_date")
	assert.NotContains(t, msgs, "Invalid value in required field: invoice_date")
}

func TestEvaluate_DueDateIlegible(t *testing.T) {
	raw := validRaw()
	raw["due_date"] = "pronto"

	r := evaluate(t, raw)

	assert.False(t, r.IsValid)
	assert.Contains(t, errorMessages(r), "Invalid due_date format: pronto")
}

func TestEvaluate_MontoNegativo(t *testing.T) {
	raw := validRaw()
	raw["net_total"] = -100.0
	raw["gross_total"] = -81.0

	r := evaluate(t, raw)

	assert.False(t, r.IsValid)
	msgs := errorMessages(r)
	assert.Contains(t, msgs, "Negative amount not allowed: net_total = -100")
	assert.Contains(t, msgs, "Negative amount not allowed: gross_total = -81")
}

func TestEvaluate_MonedaNoPermitida(t *testing.T) {
	raw := validRaw()
	raw["currency"] = "JPY"

	r := evaluate(t, raw)

	assert.False(t, r.IsValid)
	assert.Contains(t, errorMessages(r),
		"Invalid currency: JPY. Must be one of EUR, USD, GBP, INR")
}

func TestEvaluate_MonedaMinusculas_PasaPorNormalizacion(t *testing.T) {
	raw := validRaw()
	raw["currency"] = "usd"

	r := evaluate(t, raw)

	assert.True(t, r.IsValid, "usd debe normalizarse a USD y aceptarse")
}

// ──────────────────────────────────────────────────────────────────────────────
// Consistencia de negocio
// ──────────────────────────────────────────────────────────────────────────────

func TestEvaluate_TotalesNoCuadran(t *testing.T) {
	raw := validRaw()
	raw["gross_total"] = 120.0 // 100 + 19 != 120

	r := evaluate(t, raw)

	assert.False(t, r.IsValid)
	assert.Contains(t, errorMessages(r),
		"Total calculation mismatch: net (100.00) + tax (19.00) != gross (120.00), discrepancy 1.00")
}

// La discrepancia de exactamente 0.01 cae dentro de la tolerancia.
func TestEvaluate_TotalesEnElBordeDeLaTolerancia(t *testing.T) {
	raw := validRaw()
	raw["gross_total"] = 119.01

	r := evaluate(t, raw)

	assert.True(t, r.IsValid, "una discrepancia de 0.01 debe tolerarse")
}

func TestEvaluate_TotalesJustoFueraDeLaTolerancia(t *testing.T) {
	raw := validRaw()
	raw["gross_total"] = 119.02

	r := evaluate(t, raw)

	assert.False(t, r.IsValid, "una discrepancia de 0.02 debe reportarse")
}

// Si falta alguno de los tres montos la identidad no se evalúa: la ausencia
// ya la reportó la regla de completitud.
func TestEvaluate_TotalesNoSeEvaluanSiFaltaUnMonto(t *testing.T) {
	raw := validRaw()
	delete(raw, "tax_amount")

	r := evaluate(t, raw)

	msgs := errorMessages(r)
	assert.Contains(t, msgs, "Missing required field: tax_amount")
	for _, m := range msgs {
		assert.NotContains(t, m, "Total calculation mismatch",
			"sin tax_amount la identidad de totales no debe evaluarse")
	}
}

func TestEvaluate_VencimientoAnteriorALaFactura(t *testing.T) {
	raw := validRaw()
	raw["due_date"] = "2024-03-01" // antes del 2024-03-15

	r := evaluate(t, raw)

	assert.False(t, r.IsValid)
	assert.Contains(t, errorMessages(r), "Due date cannot be before invoice date")
}

func TestEvaluate_VencimientoMismoDia_EsValido(t *testing.T) {
	raw := validRaw()
	raw["due_date"] = "2024-03-15"

	r := evaluate(t, raw)

	assert.True(t, r.IsValid, "vencimiento el mismo día de la factura es válido")
}

func TestEvaluate_FechaFutura(t *testing.T) {
	raw := validRaw()
	raw["invoice_date"] = "2024-06-02" // fixedNow es 2024-06-01
	raw["due_date"] = "2024-07-02"

	r := evaluate(t, raw)

	assert.False(t, r.IsValid)
	assert.Contains(t, errorMessages(r), "Invoice date cannot be in the future")
}

func TestEvaluate_FechaDeHoy_NoEsFutura(t *testing.T) {
	raw := validRaw()
	raw["invoice_date"] = "2024-06-01"
	raw["due_date"] = "2024-07-01"

	r := evaluate(t, raw)

	assert.True(t, r.IsValid, "la fecha de proceso misma no cuenta como futura")
}

func TestEvaluate_SumaDeLineasNoCuadra_EsAdvertencia(t *testing.T) {
	raw := validRaw()
	raw["line_items"] = []any{
		map[string]any{"description": "A", "quantity": 1.0, "unit_price": 60.0, "line_total": 60.0},
		map[string]any{"description": "B", "quantity": 1.0, "unit_price": 30.0, "line_total": 30.0},
	}

	r := evaluate(t, raw)

	assert.True(t, r.IsValid, "la suma de líneas que no cuadra es advertencia, no error")
	assert.Contains(t, warningMessages(r),
		"Line items sum (90.00) does not match net total (100.00)")
}

func TestEvaluate_AritmeticaDeLinea(t *testing.T) {
	raw := validRaw()
	raw["line_items"] = []any{
		map[string]any{"description": "A", "quantity": 2.0, "unit_price": 50.0, "line_total": 100.0},
		map[string]any{"description": "B", "quantity": 3.0, "unit_price": 10.0, "line_total": 35.0},
	}
	raw["net_total"] = 135.0
	raw["gross_total"] = 154.0 // 135 + 19

	r := evaluate(t, raw)

	assert.True(t, r.IsValid)
	assert.Contains(t, warningMessages(r),
		"Line item 2: quantity * unit_price != line_total")
}

// Una línea con cantidad (o precio o total) en cero se omite: no hay
// aritmética que verificar sobre ella.
func TestEvaluate_LineaConCantidadCero_NoSeEvalua(t *testing.T) {
	raw := validRaw()
	raw["line_items"] = []any{
		map[string]any{"description": "A", "quantity": 0.0, "unit_price": 10.0, "line_total": 50.0},
		map[string]any{"description": "B", "quantity": 1.0, "unit_price": 50.0, "line_total": 50.0},
	}

	r := evaluate(t, raw)

	for _, w := range warningMessages(r) {
		assert.NotContains(t, w, "quantity * unit_price != line_total",
			"una línea con cantidad cero no debe evaluarse")
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Anomalías
// ──────────────────────────────────────────────────────────────────────────────

func TestEvaluate_MontoInusualmenteAlto_EsAdvertencia(t *testing.T) {
	raw := validRaw()
	raw["net_total"] = 1_500_000.0
	raw["tax_amount"] = 0.0
	raw["gross_total"] = 1_500_000.0
	raw["line_items"] = []any{
		map[string]any{"description": "Maquinaria", "quantity": 1.0, "unit_price": 1_500_000.0, "line_total": 1_500_000.0},
	}

	r := evaluate(t, raw)

	assert.True(t, r.IsValid, "el monto alto no invalida")
	assert.Contains(t, warningMessages(r),
		"Unusually high gross total: 1500000.00 (threshold: 1000000.00)")
}

func TestEvaluate_MontoExactamenteEnElUmbral_SinAdvertencia(t *testing.T) {
	raw := validRaw()
	raw["net_total"] = 1_000_000.0
	raw["tax_amount"] = 0.0
	raw["gross_total"] = 1_000_000.0
	raw["line_items"] = []any{
		map[string]any{"description": "Maquinaria", "quantity": 1.0, "unit_price": 1_000_000.0, "line_total": 1_000_000.0},
	}

	r := evaluate(t, raw)

	assert.Empty(t, r.Warnings, "el umbral exacto no debe disparar la advertencia")
}

func TestEvaluate_CamposOpcionalesAusentes_EnOrden(t *testing.T) {
	raw := validRaw()
	delete(raw, "seller_tax_id")
	delete(raw, "buyer_tax_id")
	delete(raw, "due_date")

	r := evaluate(t, raw)

	assert.True(t, r.IsValid, "las advertencias no afectan el veredicto")
	assert.Equal(t, []string{
		"Seller tax ID is missing",
		"Buyer tax ID is missing",
		"Due date is missing",
	}, warningMessages(r))
}

// Un due_date ilegible ya produjo un error de formato; la advertencia de
// "ausente" no aplica porque el campo sí vino.
func TestEvaluate_DueDateIlegible_NoCuentaComoAusente(t *testing.T) {
	raw := validRaw()
	raw["due_date"] = "pronto"

	r := evaluate(t, raw)

	assert.NotContains(t, warningMessages(r), "Due date is missing")
}

// Una factura sin líneas de detalle se advierte pero sigue siendo válida.
func TestEvaluate_SinLineItems_EsAdvertencia(t *testing.T) {
	raw := validRaw()
	delete(raw, "line_items")

	r := evaluate(t, raw)

	assert.True(t, r.IsValid, "la ausencia de líneas no invalida")
	assert.Equal(t, []string{"No line items found in invoice"}, warningMessages(r))
}

func TestEvaluate_TaxIDConFormatoSospechoso(t *testing.T) {
	raw := validRaw()
	raw["seller_tax_id"] = "DE-123/456?"

	r := evaluate(t, raw)

	assert.True(t, r.IsValid)
	assert.Contains(t, warningMessages(r),
		"Seller tax ID format may be invalid: DE-123/456?")
}

func TestEvaluate_TaxIDConGuionesYEspacios_EsValido(t *testing.T) {
	raw := validRaw()
	raw["seller_tax_id"] = "DE 123-456-789"

	r := evaluate(t, raw)

	assert.Empty(t, warningMessages(r), "guiones y espacios son separadores aceptados")
}

// ──────────────────────────────────────────────────────────────────────────────
// Orden de evaluación y umbrales configurables
// ──────────────────────────────────────────────────────────────────────────────

// Los hallazgos salen siempre en el orden de las categorías: completitud,
// negocio, anomalías.
func TestEvaluate_OrdenDeCategorias(t *testing.T) {
	raw := validRaw()
	delete(raw, "buyer_name")    // completitud
	raw["gross_total"] = 200.0   // negocio
	delete(raw, "seller_tax_id") // anomalía (advertencia)

	r := evaluate(t, raw)

	require.Len(t, r.Errors, 2)
	assert.Equal(t, validation.RuleRequiredField, r.Errors[0].Rule)
	assert.Equal(t, validation.RuleTotalsMismatch, r.Errors[1].Rule)
}

func TestEvaluate_UmbralDeMontoConfigurable(t *testing.T) {
	inv := validation.Normalize(validRaw())
	ctx := validation.NewContext(fixedNow)
	ctx.HighAmountThreshold = decimal.NewFromInt(100)

	findings := validation.Evaluate(inv, ctx)
	r := validation.NewResult(inv.ID(), findings)

	assert.Contains(t, warningMessages(r),
		"Unusually high gross total: 119.00 (threshold: 100.00)")
}

func TestEvaluate_ToleranciaConfigurable(t *testing.T) {
	raw := validRaw()
	raw["gross_total"] = 119.5

	inv := validation.Normalize(raw)
	ctx := validation.NewContext(fixedNow)
	ctx.Tolerance = decimal.NewFromFloat(0.5)

	findings := validation.Evaluate(inv, ctx)
	r := validation.NewResult(inv.ID(), findings)

	assert.True(t, r.IsValid, "con tolerancia 0.5 la discrepancia de 0.5 se acepta")
}

func TestSeverity_String(t *testing.T) {
	assert.Equal(t, "error", validation.SeverityError.String())
	assert.Equal(t, "warning", validation.SeverityWarning.String())
}
