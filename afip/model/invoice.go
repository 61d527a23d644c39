// Package model holds the in-memory representation of an invoice being
// assembled for CAE authorization, with the structural and numeric
// invariants checked before anything goes over the wire.
package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Concept describes what the voucher covers.
type Concept int

const (
	ConceptProducts Concept = 1
	ConceptServices Concept = 2
	ConceptMixed    Concept = 3
)

// Subtotals are the voucher amount fields. Total must equal the sum of the
// other five within a tolerance of 0.01.
type Subtotals struct {
	Net        decimal.Decimal // imp_neto: net taxed amount
	Exempt     decimal.Decimal // imp_op_ex: VAT exempt operations
	Untaxed    decimal.Decimal // imp_tot_conc: amounts outside VAT scope
	Vat        decimal.Decimal // imp_iva
	OtherTaxes decimal.Decimal // imp_trib
	Total      decimal.Decimal // imp_total
}

// Tolerance is the accepted rounding slack on the subtotal sum.
var Tolerance = decimal.New(1, -2)

// Header identifies the voucher and carries its dates and currency.
type Header struct {
	Concept      Concept
	DocType      int // receiver document type, e.g. 80 = CUIT
	DocNumber    string
	VoucherType  int // e.g. 1 = factura A, 6 = factura B
	PointOfSale  int
	NumberFrom   int64
	NumberTo     int64
	IssueDate    time.Time
	DueDate      time.Time
	ServiceFrom  time.Time
	ServiceTo    time.Time
	Currency     string // e.g. "PES"
	CurrencyRate decimal.Decimal
	Totals       Subtotals
}

// VatDetail is one VAT rate line. RateID references the AFIP rate table
// (e.g. 5 = 21%).
type VatDetail struct {
	RateID int
	Base   decimal.Decimal
	Amount decimal.Decimal
}

// OtherTax is one non-VAT tax line (gross income, municipal, internal...).
type OtherTax struct {
	TaxID       int
	Description string
	Base        decimal.Decimal
	Rate        decimal.Decimal
	Amount      decimal.Decimal
}

// AssociatedVoucher references the original invoice from a credit or debit
// note.
type AssociatedVoucher struct {
	VoucherType int
	PointOfSale int
	Number      int64
}

// Optional is an authority-defined key/value extension field.
type Optional struct {
	ID    string
	Value string
}

// noteVoucherTypes are the credit/debit note types that may carry
// associated vouchers.
var noteVoucherTypes = map[int]bool{
	2: true, 3: true, 7: true, 8: true, 12: true, 13: true,
	52: true, 53: true,
	202: true, 203: true, 207: true, 208: true, 212: true, 213: true,
}

// Invoice accumulates one voucher before submission. Construction and every
// mutator validate against the header, so an Invoice never holds a state
// the authority could not be asked to authorize. After Validate it is
// treated as read-only by the authorization client.
type Invoice struct {
	header     Header
	vat        []VatDetail
	taxes      []OtherTax
	associated []AssociatedVoucher
	optionals  []Optional
	validated  bool
}

// New builds an invoice from its header, checking the header-level
// invariants that later mutators depend on.
func New(header Header) (*Invoice, error) {
	var v violations

	if header.PointOfSale <= 0 {
		v.addf("point of sale must be positive, got %d", header.PointOfSale)
	}
	if header.VoucherType <= 0 {
		v.addf("voucher type must be positive, got %d", header.VoucherType)
	}
	switch header.Concept {
	case ConceptProducts:
		if !header.ServiceFrom.IsZero() || !header.ServiceTo.IsZero() {
			v.addf("service period not allowed for concept %d", header.Concept)
		}
	case ConceptServices, ConceptMixed:
		if header.ServiceFrom.IsZero() || header.ServiceTo.IsZero() {
			v.addf("service period required for concept %d", header.Concept)
		}
	default:
		v.addf("unknown concept %d", header.Concept)
	}
	if header.NumberFrom != 0 || header.NumberTo != 0 {
		if header.NumberFrom > header.NumberTo {
			v.addf("voucher number range inverted: %d > %d", header.NumberFrom, header.NumberTo)
		}
	}
	if header.IssueDate.IsZero() {
		v.add("issue date is required")
	}
	if header.Currency == "" {
		v.add("currency code is required")
	}
	if header.CurrencyRate.Sign() <= 0 {
		v.add("currency rate must be positive")
	}

	if err := v.err(); err != nil {
		return nil, err
	}
	return &Invoice{header: header}, nil
}

// AddVat appends a VAT line. Rate ids must be unique across the invoice.
func (inv *Invoice) AddVat(d VatDetail) error {
	for _, existing := range inv.vat {
		if existing.RateID == d.RateID {
			return singleViolation(fmt.Sprintf("duplicate VAT rate id %d", d.RateID))
		}
	}
	if d.Amount.Sign() < 0 || d.Base.Sign() < 0 {
		return singleViolation(fmt.Sprintf("VAT rate id %d has negative amounts", d.RateID))
	}
	inv.vat = append(inv.vat, d)
	inv.validated = false
	return nil
}

// AddOtherTax appends a non-VAT tax line.
func (inv *Invoice) AddOtherTax(t OtherTax) error {
	if t.Amount.Sign() < 0 {
		return singleViolation(fmt.Sprintf("tax id %d has negative amount", t.TaxID))
	}
	inv.taxes = append(inv.taxes, t)
	inv.validated = false
	return nil
}

// AddAssociatedVoucher appends a reference to the original invoice. Legal
// only when the header voucher type is a credit or debit note.
func (inv *Invoice) AddAssociatedVoucher(a AssociatedVoucher) error {
	if !noteVoucherTypes[inv.header.VoucherType] {
		return singleViolation(fmt.Sprintf(
			"associated vouchers not allowed for voucher type %d", inv.header.VoucherType))
	}
	inv.associated = append(inv.associated, a)
	inv.validated = false
	return nil
}

// SetOptional sets an authority-defined optional field. Keys are unique;
// setting an existing key replaces its value.
func (inv *Invoice) SetOptional(id, value string) error {
	if id == "" {
		return singleViolation("optional field id is empty")
	}
	for i := range inv.optionals {
		if inv.optionals[i].ID == id {
			inv.optionals[i].Value = value
			inv.validated = false
			return nil
		}
	}
	inv.optionals = append(inv.optionals, Optional{ID: id, Value: value})
	inv.validated = false
	return nil
}

// AssignNumber sets the voucher number for a single-voucher invoice, the
// hand-off point from the sequence tracker.
func (inv *Invoice) AssignNumber(n int64) {
	inv.header.NumberFrom = n
	inv.header.NumberTo = n
	inv.validated = false
}

// Validate checks the cross-field invariants: the additive subtotal
// equation within Tolerance and VAT rate id uniqueness. Idempotent; may be
// called any number of times before submission.
func (inv *Invoice) Validate() error {
	var v violations

	t := inv.header.Totals
	sum := t.Net.Add(t.Exempt).Add(t.Untaxed).Add(t.Vat).Add(t.OtherTaxes)
	if diff := t.Total.Sub(sum).Abs(); diff.GreaterThan(Tolerance) {
		v.addf("total %s does not match subtotal sum %s (diff %s)",
			t.Total.StringFixed(2), sum.StringFixed(2), diff.StringFixed(2))
	}

	seen := map[int]bool{}
	for _, d := range inv.vat {
		if seen[d.RateID] {
			v.addf("duplicate VAT rate id %d", d.RateID)
		}
		seen[d.RateID] = true
	}

	if inv.header.NumberFrom <= 0 || inv.header.NumberTo <= 0 {
		v.add("voucher number not assigned")
	}

	if err := v.err(); err != nil {
		return err
	}
	inv.validated = true
	return nil
}

// Validated reports whether the invoice passed Validate since its last
// mutation.
func (inv *Invoice) Validated() bool { return inv.validated }

func (inv *Invoice) Header() Header                          { return inv.header }
func (inv *Invoice) Vat() []VatDetail                        { return inv.vat }
func (inv *Invoice) OtherTaxes() []OtherTax                  { return inv.taxes }
func (inv *Invoice) AssociatedVouchers() []AssociatedVoucher { return inv.associated }
func (inv *Invoice) Optionals() []Optional                   { return inv.optionals }
