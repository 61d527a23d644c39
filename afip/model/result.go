package model

import "time"

// Outcome is the authority's verdict on a voucher or batch, the Resultado
// field of the WSFE response.
type Outcome string

const (
	Approved          Outcome = "A"
	Rejected          Outcome = "R"
	PartiallyApproved Outcome = "P"
)

func (o Outcome) String() string {
	switch o {
	case Approved:
		return "approved"
	case Rejected:
		return "rejected"
	case PartiallyApproved:
		return "partially approved"
	}
	return string(o)
}

// CodedMessage is one authority observation or error: numeric code plus
// free text.
type CodedMessage struct {
	Code    int
	Message string
}

// AuthorizationResult is the structured outcome of one invoice submission.
// A rejection is an expected protocol outcome, not an error: it is carried
// here, with Errors populated and CAE empty.
type AuthorizationResult struct {
	Outcome       Outcome
	CAE           string
	CAEExpiration time.Time
	VoucherNumber int64
	// Observations are non-fatal remarks attached to an approved voucher.
	Observations []CodedMessage
	// Errors are the rejection reasons reported by the authority.
	Errors []CodedMessage
	// Reprocessed marks a result recovered from the authority's record
	// after a duplicate-submission signal.
	Reprocessed bool
}

// Overall folds per-invoice outcomes into a batch verdict: approved or
// rejected when unanimous, partially approved when mixed.
func Overall(results []AuthorizationResult) Outcome {
	approved, rejected := 0, 0
	for _, r := range results {
		if r.Outcome == Approved {
			approved++
		} else {
			rejected++
		}
	}
	switch {
	case rejected == 0:
		return Approved
	case approved == 0:
		return Rejected
	default:
		return PartiallyApproved
	}
}
