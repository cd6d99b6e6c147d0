package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Monedas aceptadas por el sistema de control de calidad.
var AllowedCurrencies = []string{"EUR", "USD", "GBP", "INR"}

// FieldState estado de un campo tras la normalización.
// Un campo puede existir y ser parseable, no existir (o venir vacío),
// o existir pero con un valor que no se pudo convertir al tipo canónico.
type FieldState int

const (
	FieldMissing     FieldState = iota // ausente, vacío o solo espacios
	FieldPresent                       // presente y parseado
	FieldUnparseable                   // presente pero no convertible
)

// StringField campo de texto del registro canónico.
type StringField struct {
	State FieldState
	Value string
}

// Present indica si el campo tiene valor utilizable.
func (f StringField) Present() bool { return f.State == FieldPresent }

// DateField campo de fecha (sin componente horario). Raw conserva el valor
// original cuando el parseo falla, para poder reportarlo tal cual llegó.
type DateField struct {
	State FieldState
	Value time.Time
	Raw   string
}

// Present indica si la fecha se parseó correctamente.
func (f DateField) Present() bool { return f.State == FieldPresent }

// AmountField campo monetario. Value conserva el valor sin redondear;
// el redondeo a 2 decimales se aplica solo al comparar.
type AmountField struct {
	State FieldState
	Value decimal.Decimal
	Raw   string
}

// Present indica si el monto se parseó correctamente.
func (f AmountField) Present() bool { return f.State == FieldPresent }

// LineItem línea de detalle de una factura extraída.
type LineItem struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

// Invoice registro canónico de factura tras la normalización. Cada campo
// lleva su estado para que las reglas de completitud puedan distinguir
// "falta" de "vino ilegible".
type Invoice struct {
	InvoiceNumber StringField
	InvoiceDate   DateField
	DueDate       DateField

	SellerName    StringField
	SellerAddress StringField
	SellerTaxID   StringField
	BuyerName     StringField
	BuyerAddress  StringField
	BuyerTaxID    StringField

	Currency   StringField
	NetTotal   AmountField
	TaxRate    AmountField
	TaxAmount  AmountField
	GrossTotal AmountField

	LineItems []LineItem

	// SourceFile nombre del documento de origen (si la extracción lo aporta).
	SourceFile string
}

// ID identificador del registro para el resultado de validación.
// Si no hay número de factura usable se deriva del archivo de origen,
// igual que hace el pipeline de extracción.
func (inv *Invoice) ID() string {
	if inv.InvoiceNumber.Present() {
		return inv.InvoiceNumber.Value
	}
	source := inv.SourceFile
	if source == "" {
		source = "NO_FILE"
	}
	return fmt.Sprintf("UNKNOWN_%s", source)
}

// StoredInvoice factura ya persistida en el histórico. Es lo que consulta el
// detector de duplicados y lo que guarda la capa de interfaces tras validar.
type StoredInvoice struct {
	ID            string
	InvoiceNumber string
	InvoiceDate   time.Time
	SellerName    string
	BuyerName     string
	Currency      string
	NetTotal      decimal.Decimal
	TaxAmount     decimal.Decimal
	GrossTotal    decimal.Decimal
	Payload       []byte // JSON original del registro extraído
	CreatedAt     time.Time
}

// ValidationRecord veredicto de validación persistido junto a una factura
// del histórico. Cada ingesta deja su propio registro, así que una factura
// puede acumular varios veredictos a lo largo del tiempo.
type ValidationRecord struct {
	ID          string
	InvoiceID   string
	IsValid     bool
	Errors      []string
	Warnings    []string
	ValidatedAt time.Time
}
