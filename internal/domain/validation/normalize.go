package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/invoice-qc/internal/domain/entity"
)

// dateLayouts formatos de fecha aceptados, en orden de prioridad: gana el
// primero que parsea. La ambigüedad DD/MM vs MM/DD no se resuelve: "03/04/2024"
// es siempre 3 de abril. Cambiar este orden cambia el significado de fechas
// ambiguas ya aceptadas, así que no se reordena.
var dateLayouts = []string{
	"2006-01-02", // ISO
	"02.01.2006", // europeo con puntos
	"02/01/2006", // europeo con barras
}

// Normalize convierte el mapeo de campos crudos que entrega la extracción
// (strings, números sueltos, fechas en varios formatos) en el registro
// canónico. Es una transformación pura: un valor imparseable queda marcado
// en el propio campo y lo reportan las reglas de completitud; nunca se
// aborta el registro ni el lote.
func Normalize(raw map[string]any) *entity.Invoice {
	inv := &entity.Invoice{
		InvoiceNumber: normString(raw["invoice_number"]),
		InvoiceDate:   normDate(raw["invoice_date"]),
		DueDate:       normDate(raw["due_date"]),
		SellerName:    normString(raw["seller_name"]),
		SellerAddress: normString(raw["seller_address"]),
		SellerTaxID:   normString(raw["seller_tax_id"]),
		BuyerName:     normString(raw["buyer_name"]),
		BuyerAddress:  normString(raw["buyer_address"]),
		BuyerTaxID:    normString(raw["buyer_tax_id"]),
		Currency:      normCurrency(raw["currency"]),
		NetTotal:      normAmount(raw["net_total"]),
		TaxRate:       normAmount(raw["tax_rate"]),
		TaxAmount:     normAmount(raw["tax_amount"]),
		GrossTotal:    normAmount(raw["gross_total"]),
		LineItems:     normLineItems(raw["line_items"]),
	}
	if sf := normString(raw["source_file"]); sf.Present() {
		inv.SourceFile = sf.Value
	}
	return inv
}

// normString texto: vacío o solo espacios cuenta como ausente, no como
// string vacío distinto. Números sueltos (p.ej. un invoice_number numérico)
// se convierten a su representación textual.
func normString(v any) entity.StringField {
	var s string
	switch t := v.(type) {
	case nil:
		return entity.StringField{State: entity.FieldMissing}
	case string:
		s = t
	case float64:
		s = trimFloat(t)
	case int:
		s = fmt.Sprintf("%d", t)
	default:
		s = fmt.Sprint(t)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return entity.StringField{State: entity.FieldMissing}
	}
	return entity.StringField{State: entity.FieldPresent, Value: s}
}

func normCurrency(v any) entity.StringField {
	f := normString(v)
	if f.Present() {
		f.Value = strings.ToUpper(f.Value)
	}
	return f
}

// normDate intenta los formatos de dateLayouts en orden.
func normDate(v any) entity.DateField {
	f := normString(v)
	if !f.Present() {
		return entity.DateField{State: entity.FieldMissing}
	}
	for _, layout := range dateLayouts {
		if d, err := timeParseDate(layout, f.Value); err == nil {
			return entity.DateField{State: entity.FieldPresent, Value: d, Raw: f.Value}
		}
	}
	return entity.DateField{State: entity.FieldUnparseable, Raw: f.Value}
}

// normAmount montos: acepta números JSON y strings con separadores de miles
// y un separador decimal. Rechaza todo lo demás en lugar de adivinar.
func normAmount(v any) entity.AmountField {
	switch t := v.(type) {
	case nil:
		return entity.AmountField{State: entity.FieldMissing}
	case float64:
		return entity.AmountField{State: entity.FieldPresent, Value: decimal.NewFromFloat(t), Raw: trimFloat(t)}
	case int:
		return entity.AmountField{State: entity.FieldPresent, Value: decimal.NewFromInt(int64(t)), Raw: fmt.Sprintf("%d", t)}
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return entity.AmountField{State: entity.FieldMissing}
		}
		d, err := parseAmountString(s)
		if err != nil {
			return entity.AmountField{State: entity.FieldUnparseable, Raw: s}
		}
		return entity.AmountField{State: entity.FieldPresent, Value: d, Raw: s}
	default:
		return entity.AmountField{State: entity.FieldUnparseable, Raw: fmt.Sprint(v)}
	}
}

// parseAmountString normaliza separadores antes de parsear:
//
//	"1.234,56" → 1234.56   (formato alemán: punto = miles, coma = decimal)
//	"1,234.56" → 1234.56   (formato inglés: coma = miles, punto = decimal)
//	"1234,56"  → 1234.56   (coma seguida de 2 dígitos = decimal)
//	"1,234"    → 1234      (coma seguida de 3 dígitos = miles)
func parseAmountString(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(s, " ", "")

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
			// coma decimal: "1234,56" → "1234.56"
			s = s[:last] + "." + s[last+1:]
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasDot && strings.Count(s, ".") > 1:
		// varios puntos: todos son separadores de miles ("1.234.567")
		s = strings.ReplaceAll(s, ".", "")
	}
	return decimal.NewFromString(s)
}

// normLineItems líneas de detalle. Una línea cuyos campos numéricos no
// parsean se descarta: las reglas sobre line_items solo operan sobre
// líneas con montos utilizables.
func normLineItems(v any) []entity.LineItem {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return nil
	}
	items := make([]entity.LineItem, 0, len(list))
	for _, el := range list {
		m, ok := el.(map[string]any)
		if !ok {
			continue
		}
		qty := normAmount(m["quantity"])
		unit := normAmount(m["unit_price"])
		total := normAmount(m["line_total"])
		if !qty.Present() || !unit.Present() || !total.Present() {
			continue
		}
		item := entity.LineItem{
			Quantity:  qty.Value,
			UnitPrice: unit.Value,
			LineTotal: total.Value,
		}
		if desc := normString(m["description"]); desc.Present() {
			item.Description = desc.Value
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil
	}
	return items
}

// timeParseDate parsea con el layout dado y trunca al día en UTC:
// el registro canónico no tiene componente horario.
func timeParseDate(layout, s string) (time.Time, error) {
	d, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
}

// trimFloat representación compacta de un float JSON (sin ceros colgantes).
func trimFloat(f float64) string {
	return decimal.NewFromFloat(f).String()
}
