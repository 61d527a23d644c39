package wsaa

import (
	"time"

	"github.com/beevik/etree"
	"github.com/go-faster/errors"
)

// Ticket is the access ticket (TA) returned by a successful loginCms call:
// the token/sign pair proving authentication for one service, valid until
// Expiration. Tickets are immutable; renewal produces a new value.
type Ticket struct {
	Token      string
	Sign       string
	Service    string
	Generated  time.Time
	Expiration time.Time
}

// Valid reports whether the ticket can still be used at the given instant.
func (t *Ticket) Valid(now time.Time) bool {
	return t != nil && now.Before(t.Expiration)
}

// ValidFor reports whether the ticket remains usable for at least margin,
// the renewal safety window.
func (t *Ticket) ValidFor(now time.Time, margin time.Duration) bool {
	return t != nil && t.Expiration.Sub(now) > margin
}

// ParseLoginTicketResponse extracts a Ticket from the loginTicketResponse
// XML document carried inside loginCmsReturn.
func ParseLoginTicketResponse(xml []byte, service string) (*Ticket, error) {

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xml); err != nil {
		return nil, errors.Wrap(err, "parse loginTicketResponse")
	}

	token := doc.FindElement("//credentials/token")
	sign := doc.FindElement("//credentials/sign")
	if token == nil || sign == nil {
		return nil, errors.New("loginTicketResponse has no credentials")
	}

	ticket := &Ticket{
		Token:   token.Text(),
		Sign:    sign.Text(),
		Service: service,
	}

	if el := doc.FindElement("//header/generationTime"); el != nil {
		ts, err := time.Parse(time.RFC3339, el.Text())
		if err != nil {
			return nil, errors.Wrap(err, "parse generationTime")
		}
		ticket.Generated = ts
	}

	el := doc.FindElement("//header/expirationTime")
	if el == nil {
		return nil, errors.New("loginTicketResponse has no expirationTime")
	}
	ts, err := time.Parse(time.RFC3339, el.Text())
	if err != nil {
		return nil, errors.Wrap(err, "parse expirationTime")
	}
	ticket.Expiration = ts

	return ticket, nil
}
