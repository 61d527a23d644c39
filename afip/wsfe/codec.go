package wsfe

import (
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/afipcloud/go-afip-client/afip/model"
	"github.com/afipcloud/go-afip-client/afip/wsaa"
)

const (
	serviceNS  = "http://ar.gov.afip.dif.FEV1/"
	dateLayout = "20060102"
)

func soapAction(op string) string { return serviceNS + op }

func authElement(parent *etree.Element, ticket *wsaa.Ticket, cuit string) {
	auth := parent.CreateElement("Auth")
	auth.CreateElement("Token").SetText(ticket.Token)
	auth.CreateElement("Sign").SetText(ticket.Sign)
	auth.CreateElement("Cuit").SetText(cuit)
}

func buildCAERequest(cuit string, ticket *wsaa.Ticket, invoices []*model.Invoice) *etree.Element {

	root := etree.NewElement("FECAESolicitar")
	root.CreateAttr("xmlns", serviceNS)
	authElement(root, ticket, cuit)

	first := invoices[0].Header()

	req := root.CreateElement("FeCAEReq")
	cab := req.CreateElement("FeCabReq")
	cab.CreateElement("CantReg").SetText(strconv.Itoa(len(invoices)))
	cab.CreateElement("PtoVta").SetText(strconv.Itoa(first.PointOfSale))
	cab.CreateElement("CbteTipo").SetText(strconv.Itoa(first.VoucherType))

	det := req.CreateElement("FeDetReq")
	for _, inv := range invoices {
		encodeDetail(det.CreateElement("FECAEDetRequest"), inv)
	}
	return root
}

func encodeDetail(el *etree.Element, inv *model.Invoice) {
	h := inv.Header()
	t := h.Totals

	el.CreateElement("Concepto").SetText(strconv.Itoa(int(h.Concept)))
	el.CreateElement("DocTipo").SetText(strconv.Itoa(h.DocType))
	el.CreateElement("DocNro").SetText(h.DocNumber)
	el.CreateElement("CbteDesde").SetText(strconv.FormatInt(h.NumberFrom, 10))
	el.CreateElement("CbteHasta").SetText(strconv.FormatInt(h.NumberTo, 10))
	el.CreateElement("CbteFch").SetText(h.IssueDate.Format(dateLayout))
	el.CreateElement("ImpTotal").SetText(t.Total.StringFixed(2))
	el.CreateElement("ImpTotConc").SetText(t.Untaxed.StringFixed(2))
	el.CreateElement("ImpNeto").SetText(t.Net.StringFixed(2))
	el.CreateElement("ImpOpEx").SetText(t.Exempt.StringFixed(2))
	el.CreateElement("ImpTrib").SetText(t.OtherTaxes.StringFixed(2))
	el.CreateElement("ImpIVA").SetText(t.Vat.StringFixed(2))

	// service period and due date travel only for service/mixed concepts
	if h.Concept != model.ConceptProducts {
		el.CreateElement("FchServDesde").SetText(h.ServiceFrom.Format(dateLayout))
		el.CreateElement("FchServHasta").SetText(h.ServiceTo.Format(dateLayout))
		if !h.DueDate.IsZero() {
			el.CreateElement("FchVtoPago").SetText(h.DueDate.Format(dateLayout))
		}
	}

	el.CreateElement("MonId").SetText(h.Currency)
	el.CreateElement("MonCotiz").SetText(h.CurrencyRate.String())

	if assoc := inv.AssociatedVouchers(); len(assoc) > 0 {
		list := el.CreateElement("CbtesAsoc")
		for _, a := range assoc {
			item := list.CreateElement("CbteAsoc")
			item.CreateElement("Tipo").SetText(strconv.Itoa(a.VoucherType))
			item.CreateElement("PtoVta").SetText(strconv.Itoa(a.PointOfSale))
			item.CreateElement("Nro").SetText(strconv.FormatInt(a.Number, 10))
		}
	}

	if taxes := inv.OtherTaxes(); len(taxes) > 0 {
		list := el.CreateElement("Tributos")
		for _, tr := range taxes {
			item := list.CreateElement("Tributo")
			item.CreateElement("Id").SetText(strconv.Itoa(tr.TaxID))
			item.CreateElement("Desc").SetText(tr.Description)
			item.CreateElement("BaseImp").SetText(tr.Base.StringFixed(2))
			item.CreateElement("Alic").SetText(tr.Rate.StringFixed(2))
			item.CreateElement("Importe").SetText(tr.Amount.StringFixed(2))
		}
	}

	if vat := inv.Vat(); len(vat) > 0 {
		list := el.CreateElement("Iva")
		for _, d := range vat {
			item := list.CreateElement("AlicIva")
			item.CreateElement("Id").SetText(strconv.Itoa(d.RateID))
			item.CreateElement("BaseImp").SetText(d.Base.StringFixed(2))
			item.CreateElement("Importe").SetText(d.Amount.StringFixed(2))
		}
	}

	if opts := inv.Optionals(); len(opts) > 0 {
		list := el.CreateElement("Opcionales")
		for _, o := range opts {
			item := list.CreateElement("Opcional")
			item.CreateElement("Id").SetText(o.ID)
			item.CreateElement("Valor").SetText(o.Value)
		}
	}
}

// caeDetail is one FECAEDetResponse entry.
type caeDetail struct {
	result        model.Outcome
	cae           string
	caeExpiration time.Time
	numberTo      int64
	observations  []model.CodedMessage
}

// caeResponse is the decoded FECAESolicitarResult.
type caeResponse struct {
	outcome model.Outcome
	details []caeDetail
	errs    []model.CodedMessage
}

func parseCAEResponse(body *etree.Element) (*caeResponse, error) {
	result := body.FindElement(".//FECAESolicitarResult")
	if result == nil {
		return nil, errors.New("no FECAESolicitarResult in response")
	}

	resp := &caeResponse{errs: parseCodedList(result, ".//Errors/Err")}

	if cab := result.FindElement("FeCabResp"); cab != nil {
		resp.outcome = model.Outcome(childText(cab, "Resultado"))
	}

	for _, det := range result.FindElements(".//FeDetResp/FECAEDetResponse") {
		d := caeDetail{
			result:       model.Outcome(childText(det, "Resultado")),
			cae:          childText(det, "CAE"),
			observations: parseCodedList(det, "Observaciones/Obs"),
		}
		if raw := childText(det, "CAEFchVto"); raw != "" {
			ts, err := time.Parse(dateLayout, raw)
			if err != nil {
				return nil, errors.Wrap(err, "parse CAEFchVto")
			}
			d.caeExpiration = ts
		}
		if raw := childText(det, "CbteHasta"); raw != "" {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, errors.Wrap(err, "parse CbteHasta")
			}
			d.numberTo = n
		}
		resp.details = append(resp.details, d)
	}

	return resp, nil
}

func buildLastAuthorizedRequest(cuit string, ticket *wsaa.Ticket, pointOfSale, voucherType int) *etree.Element {
	root := etree.NewElement("FECompUltimoAutorizado")
	root.CreateAttr("xmlns", serviceNS)
	authElement(root, ticket, cuit)
	root.CreateElement("PtoVta").SetText(strconv.Itoa(pointOfSale))
	root.CreateElement("CbteTipo").SetText(strconv.Itoa(voucherType))
	return root
}

func parseLastAuthorizedResponse(body *etree.Element) (int64, error) {
	result := body.FindElement(".//FECompUltimoAutorizadoResult")
	if result == nil {
		return 0, errors.New("no FECompUltimoAutorizadoResult in response")
	}
	if errs := parseCodedList(result, ".//Errors/Err"); len(errs) > 0 {
		return 0, &ServiceError{Op: "FECompUltimoAutorizado", Errors: errs}
	}
	raw := childText(result, "CbteNro")
	if raw == "" {
		return 0, errors.New("no CbteNro in response")
	}
	return strconv.ParseInt(raw, 10, 64)
}

func buildQueryVoucherRequest(cuit string, ticket *wsaa.Ticket, voucherType, pointOfSale int, number int64) *etree.Element {
	root := etree.NewElement("FECompConsultar")
	root.CreateAttr("xmlns", serviceNS)
	authElement(root, ticket, cuit)
	req := root.CreateElement("FeCompConsReq")
	req.CreateElement("CbteTipo").SetText(strconv.Itoa(voucherType))
	req.CreateElement("CbteNro").SetText(strconv.FormatInt(number, 10))
	req.CreateElement("PtoVta").SetText(strconv.Itoa(pointOfSale))
	return root
}

func parseVoucherRecord(body *etree.Element) (*VoucherRecord, error) {
	result := body.FindElement(".//FECompConsultarResult")
	if result == nil {
		return nil, errors.New("no FECompConsultarResult in response")
	}
	if errs := parseCodedList(result, ".//Errors/Err"); len(errs) > 0 {
		return nil, &ServiceError{Op: "FECompConsultar", Errors: errs}
	}
	get := result.FindElement("ResultGet")
	if get == nil {
		return nil, errors.New("no ResultGet in response")
	}

	rec := &VoucherRecord{
		EmissionType:      childText(get, "EmisionTipo"),
		AuthorizationCode: childText(get, "CodAutorizacion"),
		Result:            model.Outcome(childText(get, "Resultado")),
		DocNumber:         childText(get, "DocNro"),
		Currency:          childText(get, "MonId"),
	}

	var err error
	if rec.Concept, err = childInt(get, "Concepto"); err != nil {
		return nil, err
	}
	if rec.DocType, err = childInt(get, "DocTipo"); err != nil {
		return nil, err
	}
	if rec.VoucherType, err = childInt(get, "CbteTipo"); err != nil {
		return nil, err
	}
	if rec.PointOfSale, err = childInt(get, "PtoVta"); err != nil {
		return nil, err
	}
	if rec.NumberFrom, err = childInt64(get, "CbteDesde"); err != nil {
		return nil, err
	}
	if rec.NumberTo, err = childInt64(get, "CbteHasta"); err != nil {
		return nil, err
	}
	if rec.Total, err = childDecimal(get, "ImpTotal"); err != nil {
		return nil, err
	}
	if rec.Net, err = childDecimal(get, "ImpNeto"); err != nil {
		return nil, err
	}
	if rec.Vat, err = childDecimal(get, "ImpIVA"); err != nil {
		return nil, err
	}
	if raw := childText(get, "CbteFch"); raw != "" {
		if rec.IssueDate, err = time.Parse(dateLayout, raw); err != nil {
			return nil, errors.Wrap(err, "parse CbteFch")
		}
	}
	if raw := childText(get, "FchVto"); raw != "" {
		if rec.Expiration, err = time.Parse(dateLayout, raw); err != nil {
			return nil, errors.Wrap(err, "parse FchVto")
		}
	}
	return rec, nil
}

func buildDummyRequest() *etree.Element {
	root := etree.NewElement("FEDummy")
	root.CreateAttr("xmlns", serviceNS)
	return root
}

func parseDummyResponse(body *etree.Element) (*ServerStatus, error) {
	result := body.FindElement(".//FEDummyResult")
	if result == nil {
		return nil, errors.New("no FEDummyResult in response")
	}
	return &ServerStatus{
		AppServer:  childText(result, "AppServer"),
		DbServer:   childText(result, "DbServer"),
		AuthServer: childText(result, "AuthServer"),
	}, nil
}

func parseCodedList(el *etree.Element, path string) []model.CodedMessage {
	var out []model.CodedMessage
	for _, item := range el.FindElements(path) {
		code, _ := strconv.Atoi(childText(item, "Code"))
		out = append(out, model.CodedMessage{
			Code:    code,
			Message: childText(item, "Msg"),
		})
	}
	return out
}

func childText(el *etree.Element, tag string) string {
	if ch := el.SelectElement(tag); ch != nil {
		return ch.Text()
	}
	return ""
}

func childInt(el *etree.Element, tag string) (int, error) {
	raw := childText(el, tag)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s", tag)
	}
	return n, nil
}

func childInt64(el *etree.Element, tag string) (int64, error) {
	raw := childText(el, tag)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s", tag)
	}
	return n, nil
}

func childDecimal(el *etree.Element, tag string) (decimal.Decimal, error) {
	raw := childText(el, tag)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse %s", tag)
	}
	return d, nil
}
