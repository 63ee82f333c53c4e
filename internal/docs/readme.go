// Package docs renders the command reference used in README.md.
package docs

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/dispatch/internal/command"
	"github.com/keshon/dispatch/pkg/cmd"
)

// Placeholder is the template field the command sections are written to.
const Placeholder = "{{ .CommandSections }}"

var sections = []struct {
	kind  discordgo.ApplicationCommandType
	title string
}{
	{discordgo.ChatApplicationCommand, "Slash commands"},
	{discordgo.MessageApplicationCommand, "Message commands"},
	{discordgo.UserApplicationCommand, "User commands"},
}

// CommandSections renders one markdown section per command kind. Commands
// keep the registry's name order.
func CommandSections(registry *cmd.Registry) string {
	byKind := make(map[discordgo.ApplicationCommandType][]*command.Command)
	for _, c := range registry.GetAll() {
		dc, ok := command.From(c)
		if !ok {
			continue
		}
		kind := dc.Kind
		if kind == 0 {
			kind = discordgo.ChatApplicationCommand
		}
		byKind[kind] = append(byKind[kind], dc)
	}

	var buf bytes.Buffer
	for _, s := range sections {
		cmds := byKind[s.kind]
		if len(cmds) == 0 {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		fmt.Fprintf(&buf, "### %s\n\n", s.title)
		for _, c := range cmds {
			buf.WriteString(line(c))
		}
	}
	return buf.String()
}

func line(c *command.Command) string {
	display := c.Name
	if c.Kind == 0 || c.Kind == discordgo.ChatApplicationCommand {
		display = "/" + display
	}
	s := fmt.Sprintf("- **%s**", display)
	if c.Description != "" {
		s += " " + c.Description
	}

	var notes []string
	if c.Cooldown > 0 {
		notes = append(notes, "cooldown "+c.Cooldown.String())
	}
	if len(c.AllowedRoles) > 0 || len(c.AllowedUsers) > 0 {
		notes = append(notes, "restricted")
	}
	if len(notes) > 0 {
		s += " _(" + strings.Join(notes, ", ") + ")_"
	}
	return s + "\n"
}

// Render executes the template text with the command sections.
func Render(w io.Writer, tmpl string, registry *cmd.Registry) error {
	t, err := template.New("readme").Parse(tmpl)
	if err != nil {
		return fmt.Errorf("parse readme template: %w", err)
	}
	data := struct{ CommandSections string }{CommandSections(registry)}
	return t.Execute(w, data)
}

// Update renders the template at tmplPath into outPath.
func Update(registry *cmd.Registry, tmplPath, outPath string) error {
	tmpl, err := os.ReadFile(tmplPath)
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := Render(&out, string(tmpl), registry); err != nil {
		return err
	}
	return os.WriteFile(outPath, out.Bytes(), 0o644)
}
