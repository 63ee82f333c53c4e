// Package manifest applies a static YAML access manifest to registered
// commands:
//
//	commands:
//	  ping:
//	    allowed_roles: ["123"]
//	    allowed_users: ["456"]
//	    cooldown: 5s
//	  poll:
//	    allowed_channels: ["789"]
//	    allowed_category_names: ["Games"]
//	    required_role_names: ["Member"]
//
// allowed_roles and allowed_users replace the command's static lists, which
// are also published as guild command permissions. The location and role
// name keys add runtime checks in front of the command's own permission
// handler; every key present must pass.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/keshon/dispatch/internal/command"
	"github.com/keshon/dispatch/internal/permission"
	"github.com/keshon/dispatch/pkg/cmd"
)

var ErrUnknownCommand = errors.New("unknown command")

// Duration is a time.Duration written as "5s", "1m30s", ...
type Duration time.Duration

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	if v < 0 {
		return fmt.Errorf("line %d: negative duration %s", n.Line, s)
	}
	*d = Duration(v)
	return nil
}

// Access overrides the static access settings of one command. Absent fields
// leave the command's own values alone.
type Access struct {
	AllowedRoles []string  `yaml:"allowed_roles"`
	AllowedUsers []string  `yaml:"allowed_users"`
	Cooldown     *Duration `yaml:"cooldown"`

	AllowedChannels      []string `yaml:"allowed_channels"`
	AllowedChannelNames  []string `yaml:"allowed_channel_names"`
	AllowedCategories    []string `yaml:"allowed_categories"`
	AllowedCategoryNames []string `yaml:"allowed_category_names"`
	AllowedRoleNames     []string `yaml:"allowed_role_names"`
	RequiredRoles        []string `yaml:"required_roles"`
	RequiredRoleNames    []string `yaml:"required_role_names"`
}

// Checks returns the runtime permission handlers the access entry asks for,
// location checks first.
func (a Access) Checks() []permission.Handler {
	var hs []permission.Handler
	add := func(values []string, h func(...string) permission.Handler) {
		if len(values) > 0 {
			hs = append(hs, h(values...))
		}
	}
	add(a.AllowedChannels, permission.InChannels)
	add(a.AllowedChannelNames, permission.InChannelNames)
	add(a.AllowedCategories, permission.InCategories)
	add(a.AllowedCategoryNames, permission.InCategoryNames)
	add(a.AllowedRoleNames, permission.InRoleNames)
	add(a.RequiredRoles, permission.AllRoles)
	add(a.RequiredRoleNames, permission.AllRoleNames)
	return hs
}

type Manifest struct {
	Path     string            `yaml:"-"`
	Commands map[string]Access `yaml:"commands"`
}

// Load reads and decodes the manifest at path. Unknown keys are rejected.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	m, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	m.Path = path
	return m, nil
}

// Decode reads a manifest from r. An empty document is an empty manifest.
func Decode(r io.Reader) (*Manifest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &m, nil
}

// Apply updates the commands in r. Every name in the manifest must be registered.
func (m *Manifest) Apply(r *cmd.Registry) error {
	names := make([]string, 0, len(m.Commands))
	for name := range m.Commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		c, ok := r.Get(name)
		if !ok {
			return m.errorf("%w: %s", ErrUnknownCommand, name)
		}
		dc, ok := command.From(c)
		if !ok {
			return m.errorf("%w: %s is not a chat command", ErrUnknownCommand, name)
		}
		acc := m.Commands[name]
		if acc.AllowedRoles != nil {
			dc.AllowedRoles = acc.AllowedRoles
		}
		if acc.AllowedUsers != nil {
			dc.AllowedUsers = acc.AllowedUsers
		}
		if acc.Cooldown != nil {
			dc.Cooldown = time.Duration(*acc.Cooldown)
		}
		if checks := acc.Checks(); len(checks) > 0 {
			if dc.Permission != nil {
				checks = append(checks, dc.Permission)
			}
			dc.Permission = permission.All(checks...)
		}
	}
	return nil
}

func (m *Manifest) errorf(format string, args ...any) error {
	err := fmt.Errorf(format, args...)
	if m.Path == "" {
		return err
	}
	return fmt.Errorf("manifest %s: %w", m.Path, err)
}
