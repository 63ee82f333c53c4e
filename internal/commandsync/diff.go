package commandsync

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/go-cmp/cmp"
)

// NeedsSync reports whether the remote set has to be replaced by local.
// Both sides are normalized first. A size mismatch short-circuits; otherwise
// every local command must exist remotely and be deep-equal to it. Since the
// sets are keyed by name, equal sizes plus a full local hit also mean no
// remote-only command exists.
func NeedsSync(local, remote Set) bool {
	l := local.Normalized()
	r := remote.Normalized()

	if len(l) != len(r) {
		return true
	}
	for name, ld := range l {
		rd, ok := r[name]
		if !ok || !cmp.Equal(ld, rd) {
			return true
		}
	}
	return false
}

// Report describes how local differs from remote.
type Report struct {
	Added   []string          `json:"added,omitempty"`
	Removed []string          `json:"removed,omitempty"`
	Changed []string          `json:"changed,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// Empty reports whether the sets were identical.
func (r Report) Empty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Changed) == 0
}

func (r Report) String() string {
	if r.Empty() {
		return "no changes"
	}
	return fmt.Sprintf("%d added, %d removed, %d changed", len(r.Added), len(r.Removed), len(r.Changed))
}

// Diff compares both normalized sets by name. Details holds a cmp.Diff
// (remote -> local) for every changed command.
func Diff(local, remote Set) Report {
	l := local.Normalized()
	r := remote.Normalized()

	var rep Report
	for name, ld := range l {
		rd, ok := r[name]
		switch {
		case !ok:
			rep.Added = append(rep.Added, name)
		case !cmp.Equal(ld, rd):
			rep.Changed = append(rep.Changed, name)
			if rep.Details == nil {
				rep.Details = make(map[string]string)
			}
			rep.Details[name] = cmp.Diff(rd, ld)
		}
	}
	for name := range r {
		if _, ok := l[name]; !ok {
			rep.Removed = append(rep.Removed, name)
		}
	}
	sort.Strings(rep.Added)
	sort.Strings(rep.Removed)
	sort.Strings(rep.Changed)
	return rep
}

// Fingerprint returns a deterministic SHA-1 over the normalized set.
func Fingerprint(s Set) string {
	data, _ := json.Marshal(s.Normalized().Descriptors())
	return fmt.Sprintf("%x", sha1.Sum(data))
}
