package model

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHeader() Header {
	return Header{
		Concept:      ConceptProducts,
		DocType:      80,
		DocNumber:    "30000000007",
		VoucherType:  1,
		PointOfSale:  4000,
		NumberFrom:   1,
		NumberTo:     1,
		IssueDate:    time.Date(2011, 3, 10, 0, 0, 0, 0, time.UTC),
		Currency:     "PES",
		CurrencyRate: decimal.NewFromInt(1),
		Totals: Subtotals{
			Net:        decimal.NewFromFloat(100.00),
			Exempt:     decimal.NewFromFloat(2.00),
			Untaxed:    decimal.NewFromFloat(3.00),
			Vat:        decimal.NewFromFloat(21.00),
			OtherTaxes: decimal.NewFromFloat(1.00),
			Total:      decimal.NewFromFloat(127.00),
		},
	}
}

func TestValidate(t *testing.T) {

	inv, err := New(testHeader())
	require.NoError(t, err)

	err = inv.AddVat(VatDetail{
		RateID: 5,
		Base:   decimal.NewFromFloat(100.00),
		Amount: decimal.NewFromFloat(21.00),
	})
	require.NoError(t, err)

	require.NoError(t, inv.Validate())
	assert.True(t, inv.Validated())

	// idempotent
	require.NoError(t, inv.Validate())
}

func TestValidateTotalMismatch(t *testing.T) {

	h := testHeader()
	h.Totals.Total = decimal.NewFromFloat(130.00)

	inv, err := New(h)
	require.NoError(t, err)

	err = inv.Validate()
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Violations, 1)
	assert.False(t, inv.Validated())
}

func TestValidateToleranceBoundary(t *testing.T) {

	// off by exactly the tolerance: accepted
	h := testHeader()
	h.Totals.Total = decimal.NewFromFloat(127.01)
	inv, err := New(h)
	require.NoError(t, err)
	assert.NoError(t, inv.Validate())

	// one cent past the tolerance: rejected
	h.Totals.Total = decimal.NewFromFloat(127.02)
	inv, err = New(h)
	require.NoError(t, err)
	assert.Error(t, inv.Validate())
}

func TestValidateRandomizedSubtotals(t *testing.T) {

	rnd := rand.New(rand.NewSource(42))

	cents := func(max int64) decimal.Decimal {
		return decimal.New(rnd.Int63n(max), -2)
	}

	for i := 0; i < 200; i++ {
		h := testHeader()
		h.Totals = Subtotals{
			Net:        cents(1000000),
			Exempt:     cents(100000),
			Untaxed:    cents(100000),
			Vat:        cents(200000),
			OtherTaxes: cents(50000),
		}
		sum := h.Totals.Net.Add(h.Totals.Exempt).Add(h.Totals.Untaxed).
			Add(h.Totals.Vat).Add(h.Totals.OtherTaxes)

		// random offset in cents; within one cent it must pass, beyond fail
		offset := rnd.Int63n(11) - 5
		h.Totals.Total = sum.Add(decimal.New(offset, -2))

		inv, err := New(h)
		require.NoError(t, err)

		err = inv.Validate()
		if offset >= -1 && offset <= 1 {
			assert.NoError(t, err, fmt.Sprintf("offset %d cents", offset))
		} else {
			assert.Error(t, err, fmt.Sprintf("offset %d cents", offset))
		}
	}
}

func TestNewRequiresServicePeriod(t *testing.T) {

	h := testHeader()
	h.Concept = ConceptServices

	_, err := New(h)
	require.Error(t, err)

	h.ServiceFrom = time.Date(2011, 2, 1, 0, 0, 0, 0, time.UTC)
	h.ServiceTo = time.Date(2011, 2, 28, 0, 0, 0, 0, time.UTC)
	_, err = New(h)
	require.NoError(t, err)
}

func TestNewRejectsServicePeriodForProducts(t *testing.T) {

	h := testHeader()
	h.ServiceFrom = time.Date(2011, 2, 1, 0, 0, 0, 0, time.UTC)
	h.ServiceTo = time.Date(2011, 2, 28, 0, 0, 0, 0, time.UTC)

	_, err := New(h)
	require.Error(t, err)
}

func TestAddVatDuplicateRate(t *testing.T) {

	inv, err := New(testHeader())
	require.NoError(t, err)

	d := VatDetail{RateID: 5, Base: decimal.NewFromInt(100), Amount: decimal.NewFromInt(21)}
	require.NoError(t, inv.AddVat(d))

	err = inv.AddVat(d)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestAssociatedVoucherOnlyForNotes(t *testing.T) {

	inv, err := New(testHeader()) // voucher type 1: factura A, not a note
	require.NoError(t, err)

	err = inv.AddAssociatedVoucher(AssociatedVoucher{VoucherType: 1, PointOfSale: 4000, Number: 10})
	require.Error(t, err)

	h := testHeader()
	h.VoucherType = 3 // nota de crédito A
	note, err := New(h)
	require.NoError(t, err)

	err = note.AddAssociatedVoucher(AssociatedVoucher{VoucherType: 1, PointOfSale: 4000, Number: 10})
	require.NoError(t, err)
	assert.Len(t, note.AssociatedVouchers(), 1)
}

func TestSetOptionalReplacesValue(t *testing.T) {

	inv, err := New(testHeader())
	require.NoError(t, err)

	require.NoError(t, inv.SetOptional("23", "1"))
	require.NoError(t, inv.SetOptional("23", "2"))

	opts := inv.Optionals()
	require.Len(t, opts, 1)
	assert.Equal(t, "2", opts[0].Value)

	require.Error(t, inv.SetOptional("", "x"))
}

func TestMutationResetsValidated(t *testing.T) {

	inv, err := New(testHeader())
	require.NoError(t, err)
	require.NoError(t, inv.Validate())

	inv.AssignNumber(2)
	assert.False(t, inv.Validated())
}

func TestOverall(t *testing.T) {

	approved := AuthorizationResult{Outcome: Approved}
	rejected := AuthorizationResult{Outcome: Rejected}

	assert.Equal(t, Approved, Overall([]AuthorizationResult{approved, approved}))
	assert.Equal(t, Rejected, Overall([]AuthorizationResult{rejected}))
	assert.Equal(t, PartiallyApproved, Overall([]AuthorizationResult{approved, rejected}))
}
