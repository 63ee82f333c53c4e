package commandsync

import (
	"errors"
	"fmt"
	"sort"

	"github.com/bwmarrin/discordgo"
)

// ErrDuplicateName is returned when two local commands share a name.
var ErrDuplicateName = errors.New("duplicate command name")

// Set maps command names to descriptors.
type Set map[string]Descriptor

// NewSet builds a Set from descriptors, rejecting duplicate names.
func NewSet(ds ...Descriptor) (Set, error) {
	s := make(Set, len(ds))
	for _, d := range ds {
		if _, exists := s[d.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, d.Name)
		}
		s[d.Name] = d
	}
	return s, nil
}

// RemoteSet builds a Set from commands fetched from the API. Later entries
// win on duplicate names, matching what the platform would keep.
func RemoteSet(cmds []*discordgo.ApplicationCommand) Set {
	s := make(Set, len(cmds))
	for _, c := range cmds {
		if c == nil {
			continue
		}
		s[c.Name] = FromApplicationCommand(c)
	}
	return s
}

// Normalized returns a copy of s with every descriptor normalized.
func (s Set) Normalized() Set {
	out := make(Set, len(s))
	for name, d := range s {
		out[name] = Normalize(d)
	}
	return out
}

// Names returns the command names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Descriptors returns the descriptors sorted by name.
func (s Set) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(s))
	for _, name := range s.Names() {
		out = append(out, s[name])
	}
	return out
}
