package qr

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afipcloud/go-afip-client/afip/model"
)

func approvedInvoice(t *testing.T) (*model.Invoice, model.AuthorizationResult) {
	t.Helper()

	inv, err := model.New(model.Header{
		Concept:      model.ConceptProducts,
		DocType:      80,
		DocNumber:    "20000000001",
		VoucherType:  6,
		PointOfSale:  10,
		NumberFrom:   94,
		NumberTo:     94,
		IssueDate:    time.Date(2020, 10, 13, 0, 0, 0, 0, time.UTC),
		Currency:     "PES",
		CurrencyRate: decimal.NewFromInt(1),
		Totals: model.Subtotals{
			Net:   decimal.NewFromFloat(10000.00),
			Vat:   decimal.NewFromFloat(2100.00),
			Total: decimal.NewFromFloat(12100.00),
		},
	})
	require.NoError(t, err)

	res := model.AuthorizationResult{
		Outcome:       model.Approved,
		CAE:           "70417054367476",
		VoucherNumber: 94,
	}
	return inv, res
}

func TestVerificationURL(t *testing.T) {

	inv, res := approvedInvoice(t)

	data, err := ForInvoice(30000000007, inv, res)
	require.NoError(t, err)

	url, err := VerificationURL(data)
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(url, "https://www.afip.gob.ar/fe/qr/?p="))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "https://www.afip.gob.ar/fe/qr/?p="))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, float64(1), decoded["ver"])
	assert.Equal(t, "2020-10-13", decoded["fecha"])
	assert.Equal(t, float64(30000000007), decoded["cuit"])
	assert.Equal(t, float64(10), decoded["ptoVta"])
	assert.Equal(t, float64(94), decoded["nroCmp"])
	assert.Equal(t, float64(12100), decoded["importe"])
	assert.Equal(t, "PES", decoded["moneda"])
	assert.Equal(t, "E", decoded["tipoCodAut"])
	assert.Equal(t, float64(70417054367476), decoded["codAut"])
}

func TestForInvoiceRequiresApproval(t *testing.T) {

	inv, res := approvedInvoice(t)
	res.Outcome = model.Rejected
	res.CAE = ""

	_, err := ForInvoice(30000000007, inv, res)
	require.Error(t, err)
}

func TestPNG(t *testing.T) {

	inv, res := approvedInvoice(t)

	data, err := ForInvoice(30000000007, inv, res)
	require.NoError(t, err)

	png, err := PNG(data, 256)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}
