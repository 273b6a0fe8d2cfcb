package domain

import "net/http"

// OutcomeKind enumerates the terminal states of a redirect request.
type OutcomeKind int

const (
	OutcomeRedirect OutcomeKind = iota
	OutcomeNotFound
	OutcomeInactive
	OutcomeExpired
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeRedirect:
		return "redirect"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeInactive:
		return "inactive"
	case OutcomeExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// RedirectOutcome is the result of resolving a short code. Destination and
// Status are set only for OutcomeRedirect.
type RedirectOutcome struct {
	Kind        OutcomeKind
	Destination string
	Status      int
	CacheHit    bool
}

func Redirect(destination string, cacheHit bool) RedirectOutcome {
	return RedirectOutcome{
		Kind:        OutcomeRedirect,
		Destination: destination,
		Status:      http.StatusTemporaryRedirect,
		CacheHit:    cacheHit,
	}
}

func NotFound() RedirectOutcome { return RedirectOutcome{Kind: OutcomeNotFound} }
func Inactive() RedirectOutcome { return RedirectOutcome{Kind: OutcomeInactive} }
func Expired() RedirectOutcome  { return RedirectOutcome{Kind: OutcomeExpired} }
