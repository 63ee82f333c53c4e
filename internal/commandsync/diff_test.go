package commandsync

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
)

func mustSet(t *testing.T, ds ...Descriptor) Set {
	t.Helper()
	s, err := NewSet(ds...)
	require.NoError(t, err)
	return s
}

func TestNeedsSyncIdentical(t *testing.T) {
	s := mustSet(t, sampleDescriptors()...)
	require.False(t, NeedsSync(s, s))
	require.False(t, NeedsSync(s.Normalized(), s))
	require.True(t, Diff(s, s).Empty())
}

func TestNeedsSyncSingleChange(t *testing.T) {
	base := sampleDescriptors()
	remote := mustSet(t, base...)

	tests := map[string]func() []Descriptor{
		"added": func() []Descriptor {
			return append(sampleDescriptors(), Descriptor{Name: "help", Description: "Help"})
		},
		"removed": func() []Descriptor {
			return sampleDescriptors()[1:]
		},
		"description changed": func() []Descriptor {
			ds := sampleDescriptors()
			ds[0].Description = "Pong?"
			return ds
		},
		"option changed": func() []Descriptor {
			ds := sampleDescriptors()
			ds[2].Options[0].Required = true
			return ds
		},
		"choice changed": func() []Descriptor {
			ds := sampleDescriptors()
			ds[2].Options[0].Choices[0].Value = 8
			return ds
		},
		"kind changed": func() []Descriptor {
			ds := sampleDescriptors()
			ds[4].Kind = discordgo.MessageApplicationCommand
			return ds
		},
	}
	for name, local := range tests {
		t.Run(name, func(t *testing.T) {
			require.True(t, NeedsSync(mustSet(t, local()...), remote))
		})
	}
}

func TestNeedsSyncAddAndRemoveWithSameCount(t *testing.T) {
	remote := mustSet(t, Descriptor{Name: "a", Description: "A"}, Descriptor{Name: "b", Description: "B"})
	local := mustSet(t, Descriptor{Name: "a", Description: "A"}, Descriptor{Name: "c", Description: "B"})

	require.True(t, NeedsSync(local, remote))

	rep := Diff(local, remote)
	require.Equal(t, []string{"c"}, rep.Added)
	require.Equal(t, []string{"b"}, rep.Removed)
	require.Empty(t, rep.Changed)
}

func TestDiffDetails(t *testing.T) {
	remote := mustSet(t, Descriptor{Name: "foo", Description: "A"})
	local := mustSet(t, Descriptor{Name: "foo", Description: "B"})

	rep := Diff(local, remote)
	require.Equal(t, []string{"foo"}, rep.Changed)
	require.Contains(t, rep.Details["foo"], "Description")
	require.Equal(t, "0 added, 0 removed, 1 changed", rep.String())
}

func TestFingerprint(t *testing.T) {
	a := mustSet(t, sampleDescriptors()...)
	b := mustSet(t, sampleDescriptors()...).Normalized()
	require.Equal(t, Fingerprint(a), Fingerprint(b))
	require.Len(t, Fingerprint(a), 40)

	ds := sampleDescriptors()
	ds[0].Description = "other"
	require.NotEqual(t, Fingerprint(a), Fingerprint(mustSet(t, ds...)))
}

func TestNewSetRejectsDuplicates(t *testing.T) {
	_, err := NewSet(Descriptor{Name: "x"}, Descriptor{Name: "x"})
	require.ErrorIs(t, err, ErrDuplicateName)
}
