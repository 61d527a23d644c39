package wsfe

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/afipcloud/go-afip-client/afip/model"
	"github.com/afipcloud/go-afip-client/afip/wsaa"
)

// reprocess recovers the outcome of a voucher the authority reports as
// already authorized: instead of retrying the submission, it queries the
// registered record and rebuilds the result from it. Attempted at most once
// per invoice; any failure or content mismatch surfaces as a rejection
// carrying the original duplicate error.
func (s *service) reprocess(ctx context.Context, ticket *wsaa.Ticket, inv *model.Invoice, dup model.CodedMessage) model.AuthorizationResult {

	h := inv.Header()

	logger.WithFields(log.Fields{
		"pointOfSale": h.PointOfSale,
		"voucherType": h.VoucherType,
		"number":      h.NumberFrom,
		"code":        dup.Code,
	}).Debug("Duplicate submission signal, recovering registered voucher")

	rejected := model.AuthorizationResult{
		Outcome:       model.Rejected,
		VoucherNumber: h.NumberTo,
		Errors:        []model.CodedMessage{dup},
		Reprocessed:   true,
	}

	rec, err := s.QueryVoucher(ctx, ticket, h.VoucherType, h.PointOfSale, h.NumberFrom)
	if err != nil {
		logger.WithError(err).Debug("Voucher recovery query failed")
		return rejected
	}

	if rec.EmissionType != "CAE" || rec.AuthorizationCode == "" || !recordMatches(rec, inv) {
		logger.Debug("Registered voucher does not match submitted content")
		return rejected
	}

	return model.AuthorizationResult{
		Outcome:       model.Approved,
		CAE:           rec.AuthorizationCode,
		CAEExpiration: rec.Expiration,
		VoucherNumber: rec.NumberTo,
		Reprocessed:   true,
	}
}

// recordMatches verifies the authority's registered voucher carries the
// same identifying fields and amounts as the invoice we tried to submit.
func recordMatches(rec *VoucherRecord, inv *model.Invoice) bool {
	h := inv.Header()
	t := h.Totals

	switch {
	case rec.Concept != int(h.Concept),
		rec.DocType != h.DocType,
		rec.DocNumber != h.DocNumber,
		rec.VoucherType != h.VoucherType,
		rec.NumberFrom != h.NumberFrom,
		rec.NumberTo != h.NumberTo:
		return false
	}
	if !rec.IssueDate.IsZero() && rec.IssueDate.Format(dateLayout) != h.IssueDate.Format(dateLayout) {
		return false
	}
	if !rec.Total.Equal(t.Total) || !rec.Net.Equal(t.Net) || !rec.Vat.Equal(t.Vat) {
		return false
	}
	if rec.Currency != "" && rec.Currency != h.Currency {
		return false
	}
	return true
}
