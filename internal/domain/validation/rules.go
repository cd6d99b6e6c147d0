package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/invoice-qc/internal/domain/entity"
)

// ruleFunc contrato común de todas las reglas: registro + contexto →
// hallazgos. Las reglas son independientes entre sí; ninguna depende del
// resultado de otra, solo de la presencia de campos.
type ruleFunc func(inv *entity.Invoice, ctx *Context) []Finding

// Las tres categorías se evalúan siempre en este orden fijo:
// completitud, negocio, anomalías. El orden dentro de cada categoría
// también es fijo; los contadores del resumen y los tests dependen de él.
var (
	completenessRules = []ruleFunc{
		checkRequiredFields,
		checkNonNegativeAmounts,
		checkCurrency,
		checkDateFormats,
	}
	businessRules = []ruleFunc{
		checkTotals,
		checkLineItemsSum,
		checkDueDateOrder,
		checkFutureDate,
		checkLineItemMath,
	}
	anomalyRules = []ruleFunc{
		checkHighAmount,
		checkMissingOptionalFields,
		checkLineItemsPresence,
		checkTaxIDFormat,
	}
)

// Evaluate ejecuta todas las categorías de reglas sobre un registro canónico
// y devuelve los hallazgos en orden estable. Es una función pura: la única
// regla con estado externo (duplicados) vive en DuplicateChecker y la añade
// el orquestador al final de la lista.
func Evaluate(inv *entity.Invoice, ctx *Context) []Finding {
	var findings []Finding
	for _, rules := range [][]ruleFunc{completenessRules, businessRules, anomalyRules} {
		for _, rule := range rules {
			findings = append(findings, rule(inv, ctx)...)
		}
	}
	return findings
}

// ── Completitud ───────────────────────────────────────────────────────────────

// requiredField campo obligatorio con acceso uniforme a su estado.
type requiredField struct {
	name  string
	state func(inv *entity.Invoice) entity.FieldState
}

var requiredFields = []requiredField{
	{"invoice_number", func(i *entity.Invoice) entity.FieldState { return i.InvoiceNumber.State }},
	{"invoice_date", func(i *entity.Invoice) entity.FieldState { return i.InvoiceDate.State }},
	{"seller_name", func(i *entity.Invoice) entity.FieldState { return i.SellerName.State }},
	{"buyer_name", func(i *entity.Invoice) entity.FieldState { return i.BuyerName.State }},
	{"currency", func(i *entity.Invoice) entity.FieldState { return i.Currency.State }},
	{"net_total", func(i *entity.Invoice) entity.FieldState { return i.NetTotal.State }},
	{"tax_amount", func(i *entity.Invoice) entity.FieldState { return i.TaxAmount.State }},
	{"gross_total", func(i *entity.Invoice) entity.FieldState { return i.GrossTotal.State }},
}

// checkRequiredFields un error por cada campo obligatorio ausente. Un monto
// presente pero ilegible también es un fallo de completitud (las fechas
// ilegibles las reporta checkDateFormats con su valor crudo).
func checkRequiredFields(inv *entity.Invoice, _ *Context) []Finding {
	var out []Finding
	for _, rf := range requiredFields {
		switch rf.state(inv) {
		case entity.FieldMissing:
			out = append(out, errorFinding(RuleRequiredField,
				fmt.Sprintf("Missing required field: %s", rf.name)))
		case entity.FieldUnparseable:
			if rf.name == "invoice_date" {
				continue
			}
			out = append(out, errorFinding(RuleRequiredField,
				fmt.Sprintf("Invalid value in required field: %s", rf.name)))
		}
	}
	return out
}

// checkNonNegativeAmounts todos los montos, y la tarifa de impuesto si viene,
// deben ser ≥ 0.
func checkNonNegativeAmounts(inv *entity.Invoice, _ *Context) []Finding {
	amounts := []struct {
		name  string
		field entity.AmountField
	}{
		{"net_total", inv.NetTotal},
		{"tax_amount", inv.TaxAmount},
		{"gross_total", inv.GrossTotal},
		{"tax_rate", inv.TaxRate},
	}
	var out []Finding
	for _, a := range amounts {
		if a.field.Present() && a.field.Value.IsNegative() {
			out = append(out, errorFinding(RuleNegativeAmount,
				fmt.Sprintf("Negative amount not allowed: %s = %s", a.name, a.field.Value.String())))
		}
	}
	return out
}

// checkCurrency la moneda debe pertenecer al conjunto permitido.
func checkCurrency(inv *entity.Invoice, ctx *Context) []Finding {
	if !inv.Currency.Present() {
		return nil
	}
	if ctx.currencyAllowed(inv.Currency.Value) {
		return nil
	}
	return []Finding{errorFinding(RuleCurrency,
		fmt.Sprintf("Invalid currency: %s. Must be one of %s",
			inv.Currency.Value, strings.Join(ctx.AllowedCurrencies, ", ")))}
}

// checkDateFormats fechas presentes pero imparseables, reportadas con el
// valor crudo original.
func checkDateFormats(inv *entity.Invoice, _ *Context) []Finding {
	var out []Finding
	if inv.InvoiceDate.State == entity.FieldUnparseable {
		out = append(out, errorFinding(RuleDateFormat,
			fmt.Sprintf("Invalid invoice_date format: %s", inv.InvoiceDate.Raw)))
	}
	if inv.DueDate.State == entity.FieldUnparseable {
		out = append(out, errorFinding(RuleDateFormat,
			fmt.Sprintf("Invalid due_date format: %s", inv.DueDate.Raw)))
	}
	return out
}

// ── Reglas de negocio ─────────────────────────────────────────────────────────

// checkTotals identidad neto + impuesto = bruto con tolerancia de ±0.01 para
// absorber ruido de redondeo. La comparación se hace a 2 decimales
// (redondeo half-up); el valor sin redondear se conserva en el registro.
func checkTotals(inv *entity.Invoice, ctx *Context) []Finding {
	if !inv.NetTotal.Present() || !inv.TaxAmount.Present() || !inv.GrossTotal.Present() {
		return nil
	}
	net := inv.NetTotal.Value.Round(2)
	tax := inv.TaxAmount.Value.Round(2)
	gross := inv.GrossTotal.Value.Round(2)
	expected := net.Add(tax)
	diff := expected.Sub(gross).Abs()
	if diff.LessThanOrEqual(ctx.Tolerance) {
		return nil
	}
	return []Finding{errorFinding(RuleTotalsMismatch,
		fmt.Sprintf("Total calculation mismatch: net (%s) + tax (%s) != gross (%s), discrepancy %s",
			net.StringFixed(2), tax.StringFixed(2), gross.StringFixed(2), diff.StringFixed(2)))}
}

// checkLineItemsSum la suma de line_total debe cuadrar con el neto; es solo
// advertencia porque los totales de línea suelen venir de extracción ruidosa.
func checkLineItemsSum(inv *entity.Invoice, ctx *Context) []Finding {
	if len(inv.LineItems) == 0 || !inv.NetTotal.Present() {
		return nil
	}
	sum := decimal.Zero
	for _, item := range inv.LineItems {
		sum = sum.Add(item.LineTotal)
	}
	sum = sum.Round(2)
	net := inv.NetTotal.Value.Round(2)
	if sum.Sub(net).Abs().LessThanOrEqual(ctx.Tolerance) {
		return nil
	}
	return []Finding{warnFinding(RuleLineItemsSum,
		fmt.Sprintf("Line items sum (%s) does not match net total (%s)",
			sum.StringFixed(2), net.StringFixed(2)))}
}

// checkDueDateOrder el vencimiento no puede ser anterior a la fecha de factura.
func checkDueDateOrder(inv *entity.Invoice, _ *Context) []Finding {
	if !inv.DueDate.Present() || !inv.InvoiceDate.Present() {
		return nil
	}
	if !inv.DueDate.Value.Before(inv.InvoiceDate.Value) {
		return nil
	}
	return []Finding{errorFinding(RuleDueDateOrder, "Due date cannot be before invoice date")}
}

// checkFutureDate la fecha de factura no puede superar la fecha de proceso
// inyectada en el contexto. Se compara a granularidad de día.
func checkFutureDate(inv *entity.Invoice, ctx *Context) []Finding {
	if !inv.InvoiceDate.Present() {
		return nil
	}
	today := dateOnly(ctx.Now)
	if !inv.InvoiceDate.Value.After(today) {
		return nil
	}
	return []Finding{errorFinding(RuleFutureDate, "Invoice date cannot be in the future")}
}

// checkLineItemMath por línea: cantidad × precio unitario debe cuadrar con el
// total de línea, con la misma tolerancia que los totales. Una línea con
// cantidad, precio o total en cero se omite: no hay aritmética que verificar.
func checkLineItemMath(inv *entity.Invoice, ctx *Context) []Finding {
	var out []Finding
	for idx, item := range inv.LineItems {
		if item.Quantity.IsZero() || item.UnitPrice.IsZero() || item.LineTotal.IsZero() {
			continue
		}
		expected := item.Quantity.Mul(item.UnitPrice).Round(2)
		if expected.Sub(item.LineTotal.Round(2)).Abs().LessThanOrEqual(ctx.Tolerance) {
			continue
		}
		out = append(out, warnFinding(RuleLineItemMath,
			fmt.Sprintf("Line item %d: quantity * unit_price != line_total", idx+1)))
	}
	return out
}

// ── Anomalías ─────────────────────────────────────────────────────────────────

// checkHighAmount alerta por monto inusualmente alto, en la moneda de la
// propia factura (sin conversión).
func checkHighAmount(inv *entity.Invoice, ctx *Context) []Finding {
	if !inv.GrossTotal.Present() || !inv.GrossTotal.Value.GreaterThan(ctx.HighAmountThreshold) {
		return nil
	}
	return []Finding{warnFinding(RuleHighAmount,
		fmt.Sprintf("Unusually high gross total: %s (threshold: %s)",
			inv.GrossTotal.Value.Round(2).StringFixed(2), ctx.HighAmountThreshold.StringFixed(2)))}
}

// checkMissingOptionalFields campos opcionales pero esperados en una factura
// bien formada; su ausencia es advertencia, nunca bloquea.
func checkMissingOptionalFields(inv *entity.Invoice, _ *Context) []Finding {
	var out []Finding
	if !inv.SellerTaxID.Present() {
		out = append(out, warnFinding(RuleMissingOptional, "Seller tax ID is missing"))
	}
	if !inv.BuyerTaxID.Present() {
		out = append(out, warnFinding(RuleMissingOptional, "Buyer tax ID is missing"))
	}
	if inv.DueDate.State == entity.FieldMissing {
		out = append(out, warnFinding(RuleMissingOptional, "Due date is missing"))
	}
	return out
}

// checkLineItemsPresence una factura sin líneas de detalle es sospechosa;
// se advierte pero no bloquea.
func checkLineItemsPresence(inv *entity.Invoice, _ *Context) []Finding {
	if len(inv.LineItems) > 0 {
		return nil
	}
	return []Finding{warnFinding(RuleNoLineItems, "No line items found in invoice")}
}

// checkTaxIDFormat un tax ID presente debería ser alfanumérico (se toleran
// guiones y espacios como separadores).
func checkTaxIDFormat(inv *entity.Invoice, _ *Context) []Finding {
	var out []Finding
	if inv.SellerTaxID.Present() && !isAlnumID(inv.SellerTaxID.Value) {
		out = append(out, warnFinding(RuleTaxIDFormat,
			fmt.Sprintf("Seller tax ID format may be invalid: %s", inv.SellerTaxID.Value)))
	}
	if inv.BuyerTaxID.Present() && !isAlnumID(inv.BuyerTaxID.Value) {
		out = append(out, warnFinding(RuleTaxIDFormat,
			fmt.Sprintf("Buyer tax ID format may be invalid: %s", inv.BuyerTaxID.Value)))
	}
	return out
}

// dateOnly trunca un instante al día, en UTC, para comparar contra fechas
// canónicas (que no llevan hora).
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func isAlnumID(s string) bool {
	stripped := strings.NewReplacer("-", "", " ", "").Replace(s)
	if stripped == "" {
		return false
	}
	for _, r := range stripped {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}
