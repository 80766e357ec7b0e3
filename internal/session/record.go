package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedRecord is returned when session data does not decode into a
// well-formed identity record.
var ErrMalformedRecord = errors.New("malformed session record")

// Record is a parsed session record for one role namespace. Raw holds the
// original JSON so that opaque profile fields round-trip verbatim into and
// out of the store.
type Record struct {
	Role       string
	IsLoggedIn bool
	Raw        []byte
}

// wireRecord detects field presence; a well-formed identity payload must
// carry at least a role string and an isLoggedIn flag.
type wireRecord struct {
	Role       *string `json:"role"`
	IsLoggedIn *bool   `json:"isLoggedIn"`
}

// ParseRecord parses a JSON-serialized session record. The record must be a
// JSON object with `role` (string) and `isLoggedIn` (boolean) fields; any
// additional fields are preserved untouched in Raw.
func ParseRecord(data []byte) (Record, error) {
	var wire wireRecord
	if err := json.Unmarshal(data, &wire); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if wire.Role == nil || wire.IsLoggedIn == nil {
		return Record{}, fmt.Errorf("%w: missing role or isLoggedIn", ErrMalformedRecord)
	}
	return Record{
		Role:       *wire.Role,
		IsLoggedIn: *wire.IsLoggedIn,
		Raw:        data,
	}, nil
}

// RoleSet is a set of lowercase role identifiers allowed through a guard.
type RoleSet map[string]struct{}

// NewRoleSet builds a RoleSet, normalizing each role to lowercase.
func NewRoleSet(roles ...string) RoleSet {
	set := make(RoleSet, len(roles))
	for _, role := range roles {
		set[strings.ToLower(role)] = struct{}{}
	}
	return set
}

// Contains reports whether the set holds the given role (case-insensitive).
func (s RoleSet) Contains(role string) bool {
	_, ok := s[strings.ToLower(role)]
	return ok
}

// Satisfies reports whether a single record authorizes access: the record
// must be logged in and its role must be in the allowed set.
func (r Record) Satisfies(allowed RoleSet) bool {
	return r.IsLoggedIn && allowed.Contains(r.Role)
}

// Decision is the ephemeral result of evaluating stored records against an
// allowed-role set. It is recomputed on every evaluation and never persisted.
type Decision struct {
	Authorized bool
	// Namespace and Role identify the record that satisfied the check, when
	// one did.
	Namespace string
	Role      string
}

// Evaluate folds an OR-predicate over raw records keyed by namespace: the
// session is authorized if any one record parses, is logged in, and carries
// an allowed role. Missing entries and unparseable records count as
// unauthenticated for their namespace only; they never abort evaluation.
// Namespaces are visited in the order given so the reported match is stable.
func Evaluate(records map[string][]byte, order []string, allowed RoleSet) Decision {
	for _, key := range order {
		data, ok := records[key]
		if !ok {
			continue
		}
		rec, err := ParseRecord(data)
		if err != nil {
			continue
		}
		if rec.Satisfies(allowed) {
			return Decision{Authorized: true, Namespace: key, Role: rec.Role}
		}
	}
	return Decision{}
}
