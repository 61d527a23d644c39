// Package qr builds the AFIP invoice verification QR code: a URL carrying
// the voucher identification as base64 JSON, per the fiscal QR
// specification (afip.gob.ar/fe/qr).
package qr

import (
	"encoding/base64"
	"encoding/json"
	"strconv"

	"github.com/go-faster/errors"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/afipcloud/go-afip-client/afip/model"
)

const baseURL = "https://www.afip.gob.ar/fe/qr/?p="

// VoucherData is the JSON payload embedded in the QR URL. Field names are
// fixed by the specification.
type VoucherData struct {
	Version      int     `json:"ver"`
	Date         string  `json:"fecha"` // yyyy-mm-dd
	Cuit         int64   `json:"cuit"`
	PointOfSale  int     `json:"ptoVta"`
	VoucherType  int     `json:"tipoCmp"`
	Number       int64   `json:"nroCmp"`
	Amount       float64 `json:"importe"`
	Currency     string  `json:"moneda"`
	Rate         float64 `json:"ctz"`
	RecDocType   int     `json:"tipoDocRec"`
	RecDocNumber int64   `json:"nroDocRec"`
	AuthType     string  `json:"tipoCodAut"` // "E" = CAE
	AuthCode     int64   `json:"codAut"`
}

// ForInvoice assembles the payload from an authorized invoice and its
// result.
func ForInvoice(cuit int64, inv *model.Invoice, res model.AuthorizationResult) (VoucherData, error) {
	h := inv.Header()

	if res.Outcome != model.Approved || res.CAE == "" {
		return VoucherData{}, errors.New("QR code requires an approved voucher with CAE")
	}
	cae, err := strconv.ParseInt(res.CAE, 10, 64)
	if err != nil {
		return VoucherData{}, errors.Wrap(err, "parse CAE")
	}
	recDoc, err := strconv.ParseInt(h.DocNumber, 10, 64)
	if err != nil {
		return VoucherData{}, errors.Wrap(err, "parse receiver document number")
	}

	amount, _ := h.Totals.Total.Float64()
	rate, _ := h.CurrencyRate.Float64()

	return VoucherData{
		Version:      1,
		Date:         h.IssueDate.Format("2006-01-02"),
		Cuit:         cuit,
		PointOfSale:  h.PointOfSale,
		VoucherType:  h.VoucherType,
		Number:       res.VoucherNumber,
		Amount:       amount,
		Currency:     h.Currency,
		Rate:         rate,
		RecDocType:   h.DocType,
		RecDocNumber: recDoc,
		AuthType:     "E",
		AuthCode:     cae,
	}, nil
}

// VerificationURL renders the payload into the scannable URL.
func VerificationURL(d VoucherData) (string, error) {
	payload, err := json.Marshal(d)
	if err != nil {
		return "", errors.Wrap(err, "marshal QR payload")
	}
	return baseURL + base64.StdEncoding.EncodeToString(payload), nil
}

// PNG renders the QR image, size pixels per side.
func PNG(d VoucherData, size int) ([]byte, error) {
	url, err := VerificationURL(d)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(url, qrcode.Low, size)
}

// WriteFile renders the QR image into a PNG file.
func WriteFile(d VoucherData, size int, filename string) error {
	url, err := VerificationURL(d)
	if err != nil {
		return err
	}
	return qrcode.WriteFile(url, qrcode.Low, size, filename)
}
