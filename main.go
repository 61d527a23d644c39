package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/afipcloud/go-afip-client/afip"
	"github.com/afipcloud/go-afip-client/afip/model"
	"github.com/afipcloud/go-afip-client/afip/qr"
	"github.com/afipcloud/go-afip-client/afip/sign"
	"github.com/afipcloud/go-afip-client/afip/soap"
	"github.com/afipcloud/go-afip-client/afip/util"
	"github.com/afipcloud/go-afip-client/afip/wsaa"
	"github.com/afipcloud/go-afip-client/afip/wsfe"
)

func main() {

	logrus.SetLevel(logrus.DebugLevel)

	cuit := util.GetEnvOrFailed("AFIP_CUIT")
	certPath := util.GetEnvOrFailed("AFIP_CERT")
	keyPath := util.GetEnvOrFailed("AFIP_KEY")

	env := afip.Testing
	if raw, ok := os.LookupEnv("AFIP_ENV"); ok {
		if err := env.UnmarshalText([]byte(raw)); err != nil {
			panic(err)
		}
	}

	signer, err := sign.NewCMSSignerFromFiles(certPath, keyPath, nil)
	if err != nil {
		panic(err)
	}

	auth := wsaa.NewService(soap.New(env.WsaaURL()), signer)
	invoicing := wsfe.NewService(soap.New(env.WsfeURL()), cuit)
	sequence := wsfe.NewSequenceTracker(invoicing)

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	ticket, err := auth.Authenticate(ctx, wsfe.ServiceName)
	if err != nil {
		panic(err)
	}

	const (
		pointOfSale = 4000
		voucherType = 6 // factura B
	)

	next, err := sequence.NextNumber(ctx, ticket, pointOfSale, voucherType)
	if err != nil {
		panic(err)
	}
	fmt.Println("next voucher number:", next)

	invoice, err := model.New(model.Header{
		Concept:      model.ConceptProducts,
		DocType:      80,
		DocNumber:    "30000000007",
		VoucherType:  voucherType,
		PointOfSale:  pointOfSale,
		IssueDate:    time.Now(),
		Currency:     "PES",
		CurrencyRate: decimal.NewFromInt(1),
		Totals: model.Subtotals{
			Net:   decimal.NewFromFloat(100.00),
			Vat:   decimal.NewFromFloat(21.00),
			Total: decimal.NewFromFloat(121.00),
		},
	})
	if err != nil {
		panic(err)
	}

	if err := invoice.AddVat(model.VatDetail{
		RateID: 5, // 21%
		Base:   decimal.NewFromFloat(100.00),
		Amount: decimal.NewFromFloat(21.00),
	}); err != nil {
		panic(err)
	}

	invoice.AssignNumber(next)
	if err := invoice.Validate(); err != nil {
		panic(err)
	}

	results, err := invoicing.Authorize(ctx, ticket, invoice)
	if err != nil {
		panic(err)
	}

	res := results[0]
	fmt.Printf("outcome: %s reprocessed: %v\n", res.Outcome, res.Reprocessed)
	for _, obs := range res.Observations {
		fmt.Printf("observation %d: %s\n", obs.Code, obs.Message)
	}
	for _, e := range res.Errors {
		fmt.Printf("error %d: %s\n", e.Code, e.Message)
	}

	if res.Outcome != model.Approved {
		return
	}
	fmt.Printf("CAE: %s expires: %s\n", res.CAE, res.CAEExpiration.Format("2006-01-02"))

	cuitNum, err := strconv.ParseInt(cuit, 10, 64)
	if err != nil {
		panic(err)
	}
	payload, err := qr.ForInvoice(cuitNum, invoice, res)
	if err != nil {
		panic(err)
	}
	if err := qr.WriteFile(payload, 256, "invoice-qr.png"); err != nil {
		panic(err)
	}
	fmt.Println("QR image written to invoice-qr.png")
}
