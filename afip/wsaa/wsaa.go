// Package wsaa implements the AFIP authentication service client: it
// exchanges a signed access ticket request (TRA) for a token/sign pair and
// caches the resulting ticket until shortly before expiration.
package wsaa

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/beevik/etree"
	"github.com/go-faster/errors"
	log "github.com/sirupsen/logrus"

	"github.com/afipcloud/go-afip-client/afip"
	"github.com/afipcloud/go-afip-client/afip/sign"
	"github.com/afipcloud/go-afip-client/afip/soap"
)

var logger = log.WithField("component", "afip.wsaa")

const loginNS = "http://wsaa.view.sua.dvadac.desein.afip.gov"

const (
	// DefaultTTL is the lifetime requested for new tickets. WSAA caps it
	// server-side at twelve hours.
	DefaultTTL = 5 * time.Hour
	// DefaultSafetyMargin is how long before expiration a cached ticket is
	// already considered stale and renewed.
	DefaultSafetyMargin = 5 * time.Minute
)

type Service interface {
	// Authenticate returns a valid ticket for the named service (e.g.
	// "wsfe"), reusing the cached one when it has not entered the safety
	// margin, renewing it otherwise.
	Authenticate(ctx context.Context, service string) (*Ticket, error)
}

type session struct {
	client soap.Client
	signer sign.Signer
	cache  *TicketCache
	ttl    time.Duration
	margin time.Duration
	now    func() time.Time
}

type Option func(*session)

func WithTTL(d time.Duration) Option {
	return func(s *session) { s.ttl = d }
}

func WithSafetyMargin(d time.Duration) Option {
	return func(s *session) { s.margin = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *session) { s.now = now }
}

func WithCache(cache *TicketCache) Option {
	return func(s *session) { s.cache = cache }
}

func NewService(client soap.Client, signer sign.Signer, opts ...Option) Service {
	s := &session{
		client: client,
		signer: signer,
		cache:  NewTicketCache(),
		ttl:    DefaultTTL,
		margin: DefaultSafetyMargin,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *session) Authenticate(ctx context.Context, service string) (*Ticket, error) {

	// losers of the renewal race wait here and pick up the winner's ticket
	s.cache.lockService(service)
	defer s.cache.unlockService(service)

	now := s.now()
	if t := s.cache.GetValid(service, now, s.margin); t != nil {
		logger.WithField("service", service).Debug("Reusing cached access ticket")
		return t, nil
	}

	logger.WithField("service", service).Debug("Requesting new access ticket")

	tra := AccessTicketRequest{
		Service:    service,
		Generated:  now,
		Expiration: now.Add(s.ttl),
	}

	traXML, err := tra.XML()
	if err != nil {
		return nil, errors.Wrap(err, "build TRA")
	}

	cms, err := s.signer.Sign(traXML)
	if err != nil {
		// *sign.SigningError passes through untouched
		return nil, err
	}

	ticket, err := s.loginCms(ctx, cms, service)
	if err != nil {
		return nil, err
	}

	s.cache.Put(ticket)
	logger.WithFields(log.Fields{
		"service":    service,
		"expiration": ticket.Expiration,
	}).Debug("Access ticket stored")

	return ticket, nil
}

func (s *session) loginCms(ctx context.Context, cms []byte, service string) (*Ticket, error) {

	body := etree.NewElement("loginCms")
	body.CreateAttr("xmlns", loginNS)
	body.CreateElement("in0").SetText(base64.StdEncoding.EncodeToString(cms))

	resp, err := s.client.Call(ctx, "", body)
	if err != nil {
		var fault *soap.Fault
		if errors.As(err, &fault) {
			// WSAA signals rejected envelopes (cms.bad, cms.expired,
			// alreadyAuthenticated...) as SOAP faults
			return nil, &afip.AuthError{Code: fault.Code, Message: fault.Message}
		}
		return nil, err
	}

	ret := resp.FindElement(".//loginCmsReturn")
	if ret == nil {
		return nil, &afip.AuthError{Code: "invalid-response", Message: "no loginCmsReturn in response"}
	}

	ticket, err := ParseLoginTicketResponse([]byte(ret.Text()), service)
	if err != nil {
		return nil, &afip.AuthError{Code: "invalid-response", Message: err.Error()}
	}
	return ticket, nil
}
