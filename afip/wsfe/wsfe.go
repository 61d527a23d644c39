// Package wsfe implements the WSFEv1 client: CAE authorization for invoice
// batches, last-authorized-number queries, voucher lookup and the
// duplicate-submission reprocessing policy.
package wsfe

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/afipcloud/go-afip-client/afip"
	"github.com/afipcloud/go-afip-client/afip/model"
	"github.com/afipcloud/go-afip-client/afip/soap"
	"github.com/afipcloud/go-afip-client/afip/wsaa"
)

var logger = log.WithField("component", "afip.wsfe")

// ServiceName is the WSAA service name tickets must be issued for.
const ServiceName = "wsfe"

type Service interface {
	// Authorize submits a batch of validated invoices and returns one
	// result per invoice, in submission order. Business rejections are
	// returned inside the results, never as errors.
	Authorize(ctx context.Context, ticket *wsaa.Ticket, invoices ...*model.Invoice) ([]model.AuthorizationResult, error)

	// LastAuthorized returns the highest voucher number the authority has
	// authorized for the (point of sale, voucher type) pair, 0 when none.
	LastAuthorized(ctx context.Context, ticket *wsaa.Ticket, pointOfSale, voucherType int) (int64, error)

	// QueryVoucher fetches the authority's record of an already-submitted
	// voucher.
	QueryVoucher(ctx context.Context, ticket *wsaa.Ticket, voucherType, pointOfSale int, number int64) (*VoucherRecord, error)

	// Dummy probes the service status endpoints.
	Dummy(ctx context.Context) (*ServerStatus, error)
}

// VoucherRecord is the authority's registered view of one voucher, as
// returned by FECompConsultar.
type VoucherRecord struct {
	Concept           int
	DocType           int
	DocNumber         string
	VoucherType       int
	PointOfSale       int
	NumberFrom        int64
	NumberTo          int64
	IssueDate         time.Time
	Total             decimal.Decimal
	Net               decimal.Decimal
	Vat               decimal.Decimal
	Currency          string
	EmissionType      string // "CAE" or "CAEA"
	AuthorizationCode string
	Expiration        time.Time
	Result            model.Outcome
}

// ServerStatus is the FEDummy reply; "OK" per server means reachable.
type ServerStatus struct {
	AppServer  string
	DbServer   string
	AuthServer string
}

// ServiceError carries authority-reported errors for calls where they
// preclude any usable result (queries, never authorization outcomes).
type ServiceError struct {
	Op     string
	Errors []model.CodedMessage
}

func (e *ServiceError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("%s: %d: %s", e.Op, e.Errors[0].Code, e.Errors[0].Message)
	}
	return e.Op + ": unknown service error"
}

type service struct {
	client         soap.Client
	cuit           string
	duplicateCodes map[int]bool
}

type Option func(*service)

// WithDuplicateCodes overrides the set of authority error codes treated as
// "voucher already authorized with identical content". The set is
// service-version specific, hence configurable.
func WithDuplicateCodes(codes ...int) Option {
	return func(s *service) {
		s.duplicateCodes = make(map[int]bool, len(codes))
		for _, c := range codes {
			s.duplicateCodes[c] = true
		}
	}
}

// DefaultDuplicateCodes is the duplicate-submission signal of the current
// WSFEv1 deployment.
var DefaultDuplicateCodes = []int{10016}

func NewService(client soap.Client, cuit string, opts ...Option) Service {
	s := &service{client: client, cuit: cuit}
	WithDuplicateCodes(DefaultDuplicateCodes...)(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Authorize(ctx context.Context, ticket *wsaa.Ticket, invoices ...*model.Invoice) ([]model.AuthorizationResult, error) {

	if len(invoices) == 0 {
		return nil, afip.ErrEmptyBatch
	}
	if !ticket.Valid(time.Now()) {
		return nil, afip.ErrNoTicket
	}
	if err := checkBatch(invoices); err != nil {
		return nil, err
	}

	logger.WithFields(log.Fields{
		"count":       len(invoices),
		"pointOfSale": invoices[0].Header().PointOfSale,
		"voucherType": invoices[0].Header().VoucherType,
	}).Debug("Requesting CAE")

	body, err := s.client.Call(ctx, soapAction("FECAESolicitar"), buildCAERequest(s.cuit, ticket, invoices))
	if err != nil {
		return nil, err
	}

	resp, err := parseCAEResponse(body)
	if err != nil {
		return nil, err
	}
	if len(resp.details) != len(invoices) {
		// header-level rejection: no per-voucher entries came back
		if len(resp.details) == 0 && len(resp.errs) > 0 {
			return rejectAll(invoices, resp.errs), nil
		}
		return nil, errors.Errorf("submitted %d invoices, got %d results",
			len(invoices), len(resp.details))
	}

	results := make([]model.AuthorizationResult, len(invoices))
	for i, det := range resp.details {
		results[i] = s.interpretDetail(ctx, ticket, invoices[i], det, resp.errs)
	}
	return results, nil
}

// checkBatch refuses unvalidated invoices and mixed batches: one
// FECAESolicitar call covers a single (point of sale, voucher type) pair.
func checkBatch(invoices []*model.Invoice) error {
	first := invoices[0].Header()
	var v []string
	for i, inv := range invoices {
		if !inv.Validated() {
			v = append(v, fmt.Sprintf("invoice %d not validated", i))
			continue
		}
		h := inv.Header()
		if h.PointOfSale != first.PointOfSale || h.VoucherType != first.VoucherType {
			v = append(v, fmt.Sprintf(
				"invoice %d (pos %d type %d) does not match batch key (pos %d type %d)",
				i, h.PointOfSale, h.VoucherType, first.PointOfSale, first.VoucherType))
		}
	}
	if len(v) > 0 {
		return &model.ValidationError{Violations: v}
	}
	return nil
}

func (s *service) interpretDetail(ctx context.Context, ticket *wsaa.Ticket, inv *model.Invoice, det caeDetail, batchErrs []model.CodedMessage) model.AuthorizationResult {

	res := model.AuthorizationResult{
		Outcome:       det.result,
		CAE:           det.cae,
		CAEExpiration: det.caeExpiration,
		VoucherNumber: det.numberTo,
		Observations:  det.observations,
	}
	if res.VoucherNumber == 0 {
		res.VoucherNumber = inv.Header().NumberTo
	}
	if det.result == model.Rejected {
		res.Errors = append(res.Errors, det.observations...)
		res.Errors = append(res.Errors, batchErrs...)
		res.Observations = nil

		if dup, ok := s.duplicateSignal(res.Errors); ok {
			return s.reprocess(ctx, ticket, inv, dup)
		}
	}
	return res
}

func (s *service) duplicateSignal(msgs []model.CodedMessage) (model.CodedMessage, bool) {
	for _, m := range msgs {
		if s.duplicateCodes[m.Code] {
			return m, true
		}
	}
	return model.CodedMessage{}, false
}

func rejectAll(invoices []*model.Invoice, errs []model.CodedMessage) []model.AuthorizationResult {
	results := make([]model.AuthorizationResult, len(invoices))
	for i, inv := range invoices {
		results[i] = model.AuthorizationResult{
			Outcome:       model.Rejected,
			VoucherNumber: inv.Header().NumberTo,
			Errors:        errs,
		}
	}
	return results
}

func (s *service) LastAuthorized(ctx context.Context, ticket *wsaa.Ticket, pointOfSale, voucherType int) (int64, error) {
	if !ticket.Valid(time.Now()) {
		return 0, afip.ErrNoTicket
	}
	body, err := s.client.Call(ctx, soapAction("FECompUltimoAutorizado"),
		buildLastAuthorizedRequest(s.cuit, ticket, pointOfSale, voucherType))
	if err != nil {
		return 0, err
	}
	return parseLastAuthorizedResponse(body)
}

func (s *service) QueryVoucher(ctx context.Context, ticket *wsaa.Ticket, voucherType, pointOfSale int, number int64) (*VoucherRecord, error) {
	if !ticket.Valid(time.Now()) {
		return nil, afip.ErrNoTicket
	}
	body, err := s.client.Call(ctx, soapAction("FECompConsultar"),
		buildQueryVoucherRequest(s.cuit, ticket, voucherType, pointOfSale, number))
	if err != nil {
		return nil, err
	}
	return parseVoucherRecord(body)
}

func (s *service) Dummy(ctx context.Context) (*ServerStatus, error) {
	body, err := s.client.Call(ctx, soapAction("FEDummy"), buildDummyRequest())
	if err != nil {
		return nil, err
	}
	return parseDummyResponse(body)
}
