// Package registration implements reader/issuer registration: the trust-anchor-signed
// statement of which attributes a reader is authorized to request, or an issuer is
// authorized to issue, carried as a custom X.509 certificate extension.
package registration

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ClaimPathKind selects how one segment of a ClaimPath addresses into a credential's
// claim structure, mirroring the OpenID4VP DCQL claims path pointer grammar.
type ClaimPathKind int

const (
	// SelectByKey selects a named member of a map (an mdoc namespace, an SD-JWT
	// object member).
	SelectByKey ClaimPathKind = iota
	// SelectByIndex selects a numbered element of an array.
	SelectByIndex
	// SelectAll selects every element of an array.
	SelectAll
)

// ClaimPath is one segment of a path into a credential's claim structure. A full path
// is a slice of ClaimPath, outermost first (e.g. mdoc namespace then element identifier).
type ClaimPath struct {
	Kind  ClaimPathKind
	Key   string
	Index int
}

// Key builds a ClaimPath segment that selects a named member.
func Key(key string) ClaimPath { return ClaimPath{Kind: SelectByKey, Key: key} }

// Index builds a ClaimPath segment that selects a numbered array element.
func Index(i int) ClaimPath { return ClaimPath{Kind: SelectByIndex, Index: i} }

// All builds a ClaimPath segment that selects every array element.
func All() ClaimPath { return ClaimPath{Kind: SelectAll} }

func (p ClaimPath) String() string {
	switch p.Kind {
	case SelectByKey:
		return p.Key
	case SelectByIndex:
		return fmt.Sprintf("[%d]", p.Index)
	case SelectAll:
		return "[*]"
	default:
		return "?"
	}
}

// Path is a full claim path, outermost segment first.
type Path []ClaimPath

func (p Path) String() string {
	segments := make([]string, len(p))
	for i, seg := range p {
		segments[i] = seg.String()
	}
	return strings.Join(segments, ".")
}

// canonical returns a string uniquely identifying p, suitable as a Go map key (Path
// itself is a slice and cannot be used as one directly).
func (p Path) canonical() string {
	return p.String()
}

type claimPathJSON struct {
	Kind  string `json:"kind"`
	Key   string `json:"key,omitempty"`
	Index int    `json:"index,omitempty"`
}

// MarshalJSON renders a ClaimPath the way the wallet-core claims path pointer does:
// a string for SelectByKey, a number for SelectByIndex, and null for SelectAll.
func (p ClaimPath) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case SelectByKey:
		return json.Marshal(p.Key)
	case SelectByIndex:
		return json.Marshal(p.Index)
	case SelectAll:
		return json.Marshal(nil)
	default:
		return nil, fmt.Errorf("registration: unknown claim path kind %d", p.Kind)
	}
}

// UnmarshalJSON parses a claims path pointer segment.
func (p *ClaimPath) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*p = All()
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Key(s)
		return nil
	}
	var i int
	if err := json.Unmarshal(data, &i); err != nil {
		return fmt.Errorf("registration: invalid claim path segment %q: %w", trimmed, err)
	}
	*p = Index(i)
	return nil
}
