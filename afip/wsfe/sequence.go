package wsfe

import (
	"context"

	"github.com/afipcloud/go-afip-client/afip"
	"github.com/afipcloud/go-afip-client/afip/wsaa"
)

// SequenceTracker derives the next voucher number from the authority's
// last-authorized record, so local numbering survives process restarts.
// The authority exposes no atomic reservation, only the last number:
// callers must serialize submissions per (point of sale, voucher type) key
// or two clients may compute the same next number.
type SequenceTracker struct {
	svc Service
}

func NewSequenceTracker(svc Service) *SequenceTracker {
	return &SequenceTracker{svc: svc}
}

// NextNumber returns lastAuthorized + 1 for the key; 1 when no voucher has
// been authorized yet.
func (t *SequenceTracker) NextNumber(ctx context.Context, ticket *wsaa.Ticket, pointOfSale, voucherType int) (int64, error) {
	last, err := t.svc.LastAuthorized(ctx, ticket, pointOfSale, voucherType)
	if err != nil {
		return 0, &afip.QueryError{Op: "FECompUltimoAutorizado", Err: err}
	}
	return last + 1, nil
}
