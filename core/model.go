package core

import (
	"fmt"
	"time"
)

// Event is the socket fanout packet emitted on grant and namespace
// mutations.
type Event struct {
	Type      string          `json:"type"` // e.g. grant.put, grant.revoke, namespace.delete
	Namespace uint            `json:"namespace"`
	Scope     Scope           `json:"scope,omitempty"`
	Subject   *Subject        `json:"subject,omitempty"`
	Flags     map[string]bool `json:"flags,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Channel returns the pub/sub channel the event belongs to. Clients
// subscribe per namespace.
func (e Event) Channel() string {
	return fmt.Sprintf("ns:%d", e.Namespace)
}

// PermissionSummary is the direct-grant representation embedded in a
// namespace read: flag names keyed by subject ID, split by subject kind.
// It is not group-expanded.
type PermissionSummary struct {
	Users  map[string][]string `json:"users"`
	Groups map[string][]string `json:"groups"`
}

// SummarizeGrants folds grant rows into a PermissionSummary.
func SummarizeGrants(grants []Grant) PermissionSummary {
	summary := PermissionSummary{
		Users:  map[string][]string{},
		Groups: map[string][]string{},
	}
	for _, grant := range grants {
		names := grant.Flags().Names()
		if grant.SubjectKind == SubjectGroup {
			summary.Groups[grant.SubjectID] = names
		} else {
			summary.Users[grant.SubjectID] = names
		}
	}
	return summary
}
