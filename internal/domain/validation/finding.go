// Package validation implementa el núcleo de control de calidad de facturas:
// normalización de campos extraídos, reglas de negocio por categorías y
// detección de duplicados contra el histórico.
//
// Todo resultado de regla es un dato (Finding), nunca un error de Go: los
// errores se reservan para fallos de infraestructura o de programación.
package validation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/invoice-qc/internal/domain/entity"
)

// Severity severidad de un hallazgo. Solo los errores invalidan el registro;
// las advertencias nunca afectan el veredicto.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// String representación legible de la severidad.
func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// RuleID identidad estable de la regla que produjo un hallazgo. El resumen
// de lote agrupa los errores por esta identidad, no por el texto del
// mensaje, para que montos variables no fragmenten los contadores.
type RuleID string

const (
	RuleRequiredField   RuleID = "missing_required_field"
	RuleNegativeAmount  RuleID = "negative_amount"
	RuleCurrency        RuleID = "invalid_currency"
	RuleDateFormat      RuleID = "invalid_date"
	RuleTotalsMismatch  RuleID = "totals_mismatch"
	RuleLineItemsSum    RuleID = "line_items_sum_mismatch"
	RuleDueDateOrder    RuleID = "due_date_before_invoice"
	RuleFutureDate      RuleID = "future_invoice_date"
	RuleLineItemMath    RuleID = "line_item_math"
	RuleHighAmount      RuleID = "high_amount"
	RuleMissingOptional RuleID = "missing_optional_field"
	RuleNoLineItems     RuleID = "no_line_items"
	RuleTaxIDFormat     RuleID = "tax_id_format"
	RuleDuplicate       RuleID = "duplicate_invoice"
)

// Finding resultado individual de una regla.
type Finding struct {
	Rule     RuleID
	Severity Severity
	Message  string
}

// Atajos para construir hallazgos.
func errorFinding(rule RuleID, msg string) Finding {
	return Finding{Rule: rule, Severity: SeverityError, Message: msg}
}

func warnFinding(rule RuleID, msg string) Finding {
	return Finding{Rule: rule, Severity: SeverityWarning, Message: msg}
}

// Result veredicto de validación de un registro. Errors y Warnings conservan
// el orden de evaluación (completitud, negocio, anomalías).
type Result struct {
	InvoiceID string
	IsValid   bool
	Errors    []Finding
	Warnings  []Finding
}

// NewResult clasifica los hallazgos por severidad y deriva IsValid.
func NewResult(invoiceID string, findings []Finding) *Result {
	r := &Result{InvoiceID: invoiceID}
	for _, f := range findings {
		if f.Severity == SeverityError {
			r.Errors = append(r.Errors, f)
		} else {
			r.Warnings = append(r.Warnings, f)
		}
	}
	r.IsValid = len(r.Errors) == 0
	return r
}

// Context parámetros de evaluación que van más allá del registro individual.
// Now se inyecta siempre desde el borde (HTTP, CLI, tests); las reglas jamás
// leen el reloj del sistema.
type Context struct {
	Now                 time.Time
	AllowedCurrencies   []string
	HighAmountThreshold decimal.Decimal
	Tolerance           decimal.Decimal
}

// NewContext contexto de evaluación con los umbrales por defecto del sistema.
func NewContext(now time.Time) *Context {
	return &Context{
		Now:                 now,
		AllowedCurrencies:   entity.AllowedCurrencies,
		HighAmountThreshold: decimal.NewFromInt(1_000_000),
		Tolerance:           decimal.NewFromFloat(0.01),
	}
}

// currencyAllowed membresía case-sensitive: la normalización ya dejó el
// código en mayúsculas.
func (c *Context) currencyAllowed(code string) bool {
	for _, allowed := range c.AllowedCurrencies {
		if code == allowed {
			return true
		}
	}
	return false
}
