// Package soap implements the minimal SOAP 1.1 transport shared by the WSAA
// and WSFEv1 services: envelope wrapping, HTTP POST with a bounded timeout
// and fault extraction.
package soap

import (
	"context"
	"time"

	"github.com/beevik/etree"
	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"

	"github.com/afipcloud/go-afip-client/afip/util"
)

var logger = log.WithField("component", "afip.soap")

const (
	envelopeNS     = "http://schemas.xmlsoap.org/soap/envelope/"
	DefaultTimeout = 30 * time.Second
)

// Client posts one SOAP body element to a fixed endpoint and returns the
// first element of the response body. A SOAP fault is returned as *Fault,
// transport and HTTP-level failures as *RequestError.
type Client interface {
	Call(ctx context.Context, action string, body *etree.Element) (*etree.Element, error)
}

type client struct {
	rest     *resty.Client
	endpoint string
}

type Option func(*client)

func WithTimeout(d time.Duration) Option {
	return func(c *client) { c.rest.SetTimeout(d) }
}

func New(endpoint string, opts ...Option) Client {
	restyClient := resty.New().SetTimeout(DefaultTimeout)
	c := &client{rest: restyClient, endpoint: endpoint}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *client) Call(ctx context.Context, action string, body *etree.Element) (*etree.Element, error) {

	payload, err := wrap(body)
	if err != nil {
		return nil, &RequestError{Endpoint: c.endpoint, Err: err}
	}

	if util.DebugEnabled() {
		logger.WithField("endpoint", c.endpoint).Debugf("request: %s", payload)
	}

	r := c.rest.R().SetContext(ctx)
	if util.HttpTraceEnabled() {
		r.EnableTrace()
	}

	resp, err := r.
		SetBody(payload).
		SetHeader("Content-Type", `text/xml; charset="utf-8"`).
		SetHeader("SOAPAction", action).
		Post(c.endpoint)
	if err != nil {
		return nil, &RequestError{Endpoint: c.endpoint, Err: err}
	}

	if util.DebugEnabled() {
		logger.WithField("endpoint", c.endpoint).Debugf("response: %s", resp.Body())
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(resp.Body()); err != nil {
		return nil, &RequestError{
			Endpoint:   c.endpoint,
			StatusCode: resp.StatusCode(),
			Body:       resp.String(),
			Err:        err,
		}
	}

	if fault := findFault(doc); fault != nil {
		return nil, fault
	}

	if resp.IsError() {
		return nil, &RequestError{
			Endpoint:   c.endpoint,
			StatusCode: resp.StatusCode(),
			Body:       resp.String(),
		}
	}

	return firstBodyElement(doc)
}

// wrap puts body inside a soapenv Envelope/Body pair.
func wrap(body *etree.Element) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	env := doc.CreateElement("soapenv:Envelope")
	env.CreateAttr("xmlns:soapenv", envelopeNS)
	env.CreateElement("soapenv:Header")
	env.CreateElement("soapenv:Body").AddChild(body)

	return doc.WriteToBytes()
}

func firstBodyElement(doc *etree.Document) (*etree.Element, error) {
	root := doc.Root()
	if root == nil {
		return nil, &RequestError{Err: ErrEmptyEnvelope}
	}
	for _, ch := range root.ChildElements() {
		if ch.Tag != "Body" {
			continue
		}
		elements := ch.ChildElements()
		if len(elements) == 0 {
			return nil, &RequestError{Err: ErrEmptyEnvelope}
		}
		return elements[0], nil
	}
	return nil, &RequestError{Err: ErrEmptyEnvelope}
}

func findFault(doc *etree.Document) *Fault {
	el := doc.FindElement("//Fault")
	if el == nil {
		return nil
	}
	f := &Fault{}
	if code := el.SelectElement("faultcode"); code != nil {
		f.Code = code.Text()
	}
	if msg := el.SelectElement("faultstring"); msg != nil {
		f.Message = msg.Text()
	}
	return f
}
