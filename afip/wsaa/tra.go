package wsaa

import (
	"strconv"
	"time"

	"github.com/beevik/etree"
)

// AccessTicketRequest is the TRA (Ticket de Requerimiento de Acceso) sent
// to WSAA: which service is requested and for how long. It lives only for
// the duration of one Authenticate call.
type AccessTicketRequest struct {
	Service    string
	Generated  time.Time
	Expiration time.Time
}

// XML renders the TRA as the loginTicketRequest document WSAA signs off on.
func (r AccessTicketRequest) XML() ([]byte, error) {

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("loginTicketRequest")
	root.CreateAttr("version", "1.0")

	header := root.CreateElement("header")
	header.CreateElement("uniqueId").SetText(strconv.FormatInt(r.Generated.Unix(), 10))
	header.CreateElement("generationTime").SetText(r.Generated.Format(time.RFC3339))
	header.CreateElement("expirationTime").SetText(r.Expiration.Format(time.RFC3339))

	root.CreateElement("service").SetText(r.Service)

	doc.Indent(2)
	return doc.WriteToBytes()
}
