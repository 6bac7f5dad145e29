// Package filter decides which groups are logged, based on the configured
// whitelist and blacklist.
package filter

import "strings"

// Canonical returns the form group ids are compared in.
func Canonical(groupID string) string {
	return strings.TrimSpace(groupID)
}

// ShouldLog reports whether messages from groupID should be logged.
// Rules, in order:
//  1. a non-empty whitelist must contain the group
//  2. a group in the blacklist is rejected
//  3. everything else is accepted
//
// A group listed in both is therefore rejected.
func ShouldLog(groupID string, whitelist, blacklist []string) bool {
	id := Canonical(groupID)

	if len(whitelist) > 0 && !contains(whitelist, id) {
		return false
	}
	return !contains(blacklist, id)
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if Canonical(candidate) == id {
			return true
		}
	}
	return false
}

// Filter is an immutable, set-backed form of ShouldLog built once at startup.
// It is safe for concurrent use.
type Filter struct {
	whitelist map[string]struct{}
	blacklist map[string]struct{}
}

// New builds a Filter from the configured lists.
func New(whitelist, blacklist []string) Filter {
	return Filter{
		whitelist: toSet(whitelist),
		blacklist: toSet(blacklist),
	}
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id = Canonical(id); id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

// Allow applies the same rules as ShouldLog.
func (f Filter) Allow(groupID string) bool {
	id := Canonical(groupID)

	if len(f.whitelist) > 0 {
		if _, ok := f.whitelist[id]; !ok {
			return false
		}
	}
	_, blocked := f.blacklist[id]
	return !blocked
}
