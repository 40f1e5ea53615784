package registration

import (
	"fmt"
	"strings"
)

// AttestationRequest is one credential request within a disclosure request, grouping
// the claim paths asked of one or more attestation types (mdoc requests name exactly
// one doctype; SD-JWT requests may accept several vct values interchangeably).
type AttestationRequest struct {
	AttestationTypes []string
	Paths            []Path
}

// UnregisteredAttributesError reports, per requested attestation type, which claim
// paths the reader or issuer registration does not authorize.
type UnregisteredAttributesError struct {
	Unregistered map[string][]Path
}

func (e *UnregisteredAttributesError) Error() string {
	var b strings.Builder
	b.WriteString("requested unregistered attributes: ")
	first := true
	for attestationType, paths := range e.Unregistered {
		if !first {
			b.WriteString(" / ")
		}
		first = false
		fmt.Fprintf(&b, "(%s): ", attestationType)
		for i, p := range paths {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "[%s]", p.String())
		}
	}
	return b.String()
}

// VerifyRequestedAttributes checks that every claim path in requests is authorized for
// every attestation type it names, returning *UnregisteredAttributesError grouped by
// attestation type when any are not.
func VerifyRequestedAttributes(authorized AuthorizedAttributes, requests []AttestationRequest) error {
	unregistered := map[string]map[string]Path{}

	for _, request := range requests {
		for _, attestationType := range request.AttestationTypes {
			authorizedSet := map[string]struct{}{}
			for _, p := range authorized[attestationType] {
				authorizedSet[p.canonical()] = struct{}{}
			}

			for _, p := range request.Paths {
				if _, ok := authorizedSet[p.canonical()]; ok {
					continue
				}
				if unregistered[attestationType] == nil {
					unregistered[attestationType] = map[string]Path{}
				}
				unregistered[attestationType][p.canonical()] = p
			}
		}
	}

	if len(unregistered) == 0 {
		return nil
	}

	result := make(map[string][]Path, len(unregistered))
	for attestationType, paths := range unregistered {
		for _, p := range paths {
			result[attestationType] = append(result[attestationType], p)
		}
	}
	return &UnregisteredAttributesError{Unregistered: result}
}
