// Package policy maps conversation identifiers to content access scopes.
//
// The mapping is static configuration, read-only at runtime. A conversation
// without an entry is unrestricted; an entry restricts the conversation to the
// listed partitions.
package policy

import (
	"sort"
	"strings"
)

// Scope describes which content partitions a conversation may see and edit.
// The zero value is unrestricted.
type Scope struct {
	// partitions is nil for unrestricted access. A non-nil set restricts
	// access to exactly the named partitions; root-level documents (empty
	// partition) are excluded under any restriction.
	partitions map[string]struct{}
}

// Unrestricted returns the scope that allows everything.
func Unrestricted() Scope {
	return Scope{}
}

// Restricted returns a scope limited to the given partitions.
func Restricted(partitions ...string) Scope {
	set := make(map[string]struct{}, len(partitions))
	for _, p := range partitions {
		set[p] = struct{}{}
	}
	return Scope{partitions: set}
}

// IsUnrestricted reports whether the scope allows full access.
func (s Scope) IsUnrestricted() bool {
	return s.partitions == nil
}

// Allows reports whether the scope permits access to the given partition.
// The empty partition denotes root-level content, which only an unrestricted
// scope may touch.
func (s Scope) Allows(partition string) bool {
	if s.partitions == nil {
		return true
	}
	if partition == "" {
		return false
	}
	_, ok := s.partitions[partition]
	return ok
}

// Partitions returns the allowed partition names in sorted order.
// Returns nil for an unrestricted scope.
func (s Scope) Partitions() []string {
	if s.partitions == nil {
		return nil
	}
	names := make([]string, 0, len(s.partitions))
	for p := range s.partitions {
		names = append(names, p)
	}
	sort.Strings(names)
	return names
}

// String renders the scope for log output and error messages.
func (s Scope) String() string {
	if s.IsUnrestricted() {
		return "unrestricted"
	}
	return strings.Join(s.Partitions(), ", ")
}

// Policy resolves conversation identifiers to scopes.
type Policy struct {
	channels map[string][]string
}

// New creates a Policy from a channel-access map (conversation id to allowed
// partition names). The map is copied; later mutation of the argument has no
// effect.
func New(channelAccess map[string][]string) *Policy {
	channels := make(map[string][]string, len(channelAccess))
	for id, partitions := range channelAccess {
		channels[id] = append([]string(nil), partitions...)
	}
	return &Policy{channels: channels}
}

// ScopeFor returns the access scope for a conversation.
// Conversations without a configured entry get unrestricted access.
func (p *Policy) ScopeFor(conversationID string) Scope {
	partitions, ok := p.channels[conversationID]
	if !ok {
		return Unrestricted()
	}
	return Restricted(partitions...)
}
