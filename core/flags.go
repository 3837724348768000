package core

import (
	"sort"

	"github.com/pkg/errors"
)

// Scope selects which flag family a grant governs: the namespace record
// itself, or the objects contained in it.
type Scope string

const (
	ScopeNamespace Scope = "namespace"
	ScopeObject    Scope = "object"
)

// ParseScope parses the URL form of a scope. The object scope is spelled
// "objects" on the wire.
func ParseScope(s string) (Scope, error) {
	switch s {
	case "namespace":
		return ScopeNamespace, nil
	case "objects":
		return ScopeObject, nil
	}
	return "", errors.WithMessagef(NewErrorInvalidRequest(), "unknown scope '%s'", s)
}

// PathSegment returns the URL form of the scope.
func (s Scope) PathSegment() string {
	if s == ScopeObject {
		return "objects"
	}
	return string(s)
}

// SubjectKind discriminates grant targets.
type SubjectKind string

const (
	SubjectUser  SubjectKind = "user"
	SubjectGroup SubjectKind = "group"
)

// ParseSubjectKind parses the URL form of a subject kind.
func ParseSubjectKind(s string) (SubjectKind, error) {
	switch s {
	case "user":
		return SubjectUser, nil
	case "group":
		return SubjectGroup, nil
	}
	return "", errors.WithMessagef(NewErrorInvalidRequest(), "unknown subject kind '%s'", s)
}

// Subject identifies exactly one grant target: a single user or a single
// group. Group membership itself lives in the subject directory.
type Subject struct {
	Kind SubjectKind `json:"kind"`
	ID   string      `json:"id"`
}

func User(id string) Subject  { return Subject{Kind: SubjectUser, ID: id} }
func Group(id string) Subject { return Subject{Kind: SubjectGroup, ID: id} }

// FlagSet is a fixed-width capability bitmask. Union across grants is a
// single OR, which is what makes resolution cheap.
type FlagSet uint8

const (
	FlagCreate FlagSet = 1 << iota
	FlagRead
	FlagUpdate
	FlagDelete
	FlagDelegate

	FlagsNone FlagSet = 0
)

var flagsByName = map[string]FlagSet{
	"has_create":   FlagCreate,
	"has_read":     FlagRead,
	"has_update":   FlagUpdate,
	"has_delete":   FlagDelete,
	"has_delegate": FlagDelegate,
}

// ValidFlags returns the flags that may appear on a grant of this scope.
func (s Scope) ValidFlags() FlagSet {
	if s == ScopeNamespace {
		return FlagRead | FlagUpdate | FlagDelete | FlagDelegate
	}
	return FlagCreate | FlagRead | FlagUpdate | FlagDelete
}

// ParseFlagMap converts the wire flag map ({"has_read": true, ...}) into a
// FlagSet, rejecting unknown names and flags that do not exist for the
// scope. Keys set to false are accepted and ignored: a put replaces the
// whole record anyway, so omission and false are equivalent.
func ParseFlagMap(scope Scope, m map[string]bool) (FlagSet, error) {
	var set FlagSet
	valid := scope.ValidFlags()
	for name, enabled := range m {
		flag, ok := flagsByName[name]
		if !ok {
			return FlagsNone, errors.WithMessagef(NewErrorInvalidRequest(), "unknown flag '%s'", name)
		}
		if valid&flag == 0 {
			return FlagsNone, errors.WithMessagef(NewErrorInvalidRequest(), "flag '%s' is not valid for scope '%s'", name, scope)
		}
		if enabled {
			set |= flag
		}
	}
	return set, nil
}

// Has reports whether every flag in need is present.
func (f FlagSet) Has(need FlagSet) bool {
	return f&need == need
}

// RequiredFor expands an action into the full flag set the capability check
// demands: update and delete additionally require read on the effective
// union. The read flag may come from a different grant than the action.
func RequiredFor(action FlagSet) FlagSet {
	if action&(FlagUpdate|FlagDelete) != 0 {
		return action | FlagRead
	}
	return action
}

// Map renders the set as the wire flag map for the given scope, listing
// every valid flag explicitly.
func (f FlagSet) Map(scope Scope) map[string]bool {
	out := map[string]bool{}
	valid := scope.ValidFlags()
	for name, flag := range flagsByName {
		if valid&flag != 0 {
			out[name] = f&flag != 0
		}
	}
	return out
}

// Names returns the names of the set flags, sorted for stable output.
func (f FlagSet) Names() []string {
	var names []string
	for name, flag := range flagsByName {
		if f&flag != 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
