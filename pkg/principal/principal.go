// Package principal models the management plane's notion of a user or group
// identity. Principal equality and hashing is by ID alone: principals may be
// returned in several shapes across endpoints, but id is the only attribute
// guaranteed stable across all of them.
package principal

import (
	"sort"

	"github.com/mitchellh/mapstructure"

	"github.com/motusllc/rancherprojectmanager/pkg/pkgerrors"
)

// Type tags whether a Principal is a user or a group.
type Type string

const (
	User  Type = "user"
	Group Type = "group"
)

// Principal identifies a user or group known to the management plane.
type Principal struct {
	ID   string `mapstructure:"id"`
	Type Type   `mapstructure:"principalType"`
	Name string `mapstructure:"name"`
}

// IsGroup reports whether this principal is a group rather than a user.
func (p Principal) IsGroup() bool {
	return p.Type == Group
}

// FromResponse decodes a principal out of a loosely-typed JSON object as
// returned by the management plane's principals endpoints. Any of the three
// required fields being absent is a MissingKey error, mirroring the
// original's ValueError-on-KeyError translation.
func FromResponse(op string, obj map[string]interface{}) (Principal, error) {
	var p Principal
	if err := mapstructure.Decode(obj, &p); err != nil {
		return Principal{}, pkgerrors.Wrap(pkgerrors.ShapeError, op, err)
	}
	for key, val := range map[string]string{
		"id":            p.ID,
		"principalType": string(p.Type),
		"name":          p.Name,
	} {
		if val == "" {
			return Principal{}, pkgerrors.New(pkgerrors.MissingKey, op, "principal response missing required field "+key)
		}
	}
	return p, nil
}

// Set is a principal collection keyed by identity (ID) for set algebra.
type Set map[string]Principal

// NewSet builds a Set from a slice of principals, deduplicating by ID.
func NewSet(principals []Principal) Set {
	s := make(Set, len(principals))
	for _, p := range principals {
		s[p.ID] = p
	}
	return s
}

// Difference returns the principals present in s but absent from other,
// sorted by ID for deterministic iteration (the management plane's responses
// impose no ordering the diff can rely on).
func (s Set) Difference(other Set) []Principal {
	var out []Principal
	for id, p := range s {
		if _, ok := other[id]; !ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
