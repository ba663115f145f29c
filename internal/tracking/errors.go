// Package tracking holds the flight-status rules shared by every consumer:
// flight-number normalization, the Status Resolver that turns a provider
// payload (or its absence) into one status kind, and the eligibility
// predicates that decide which flights are polled and which are historical.
//
// Everything here is a pure function of its inputs and the supplied clock,
// except Resolver.Resolve, which makes at most one provider call.
package tracking

import "errors"

// Provider failure kinds. Provider implementations wrap or return these so
// the resolver and its callers can tell fatal conditions from per-flight ones.
var (
	// ErrProviderAuth means the provider rejected the credential. It affects
	// every flight, so a sweep must stop and surface it.
	ErrProviderAuth = errors.New("flight status provider rejected credentials")

	// ErrProviderRateLimited means the provider is throttling us. The current
	// sweep must stop and back off until the next cycle.
	ErrProviderRateLimited = errors.New("flight status provider rate limit exceeded")

	// ErrProviderNotFound means the provider has no record of the ident. The
	// resolver folds it into StatusUnknown rather than reporting an error.
	ErrProviderNotFound = errors.New("flight not found at provider")
)

// IsFatal reports whether err must abort a bulk sweep.
func IsFatal(err error) bool {
	return errors.Is(err, ErrProviderAuth) || errors.Is(err, ErrProviderRateLimited)
}
