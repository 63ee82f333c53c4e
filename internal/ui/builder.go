package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

const (
	MaxRows        = 5
	MaxRowSize     = 5
	maxCustomIDLen = 100
)

var (
	ErrInvalidRow       = errors.New("invalid component row")
	ErrInvalidComponent = errors.New("invalid component")
)

// Builder converts component trees and registers their handlers.
type Builder struct {
	Buttons *Registry[ButtonHandler]
	Selects *Registry[SelectHandler]

	newID func() string
}

func NewBuilder(buttons *Registry[ButtonHandler], selects *Registry[SelectHandler]) *Builder {
	return &Builder{Buttons: buttons, Selects: selects, newID: uuid.NewString}
}

// Build accepts a single Component, a Row, []Component or a flat slice of one
// component type such as []Button (one row), or []Row / [][]Component
// (explicit rows) and returns the wire rows. On any validation error nothing
// is registered.
func (b *Builder) Build(tree any) ([]discordgo.MessageComponent, error) {
	rows, err := toRows(tree)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrInvalidRow)
	}
	if len(rows) > MaxRows {
		return nil, fmt.Errorf("%w: a message holds at most %d rows, got %d", ErrInvalidRow, MaxRows, len(rows))
	}

	var pending []func()
	out := make([]discordgo.MessageComponent, 0, len(rows))
	for n, row := range rows {
		wire := make([]discordgo.MessageComponent, 0, len(row))
		for _, c := range row {
			mc, commit, err := b.convert(c)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", n+1, err)
			}
			wire = append(wire, mc)
			if commit != nil {
				pending = append(pending, commit)
			}
		}
		if err := validateRow(n, row); err != nil {
			return nil, err
		}
		out = append(out, discordgo.ActionsRow{Components: wire})
	}

	for _, commit := range pending {
		commit()
	}
	return out, nil
}

func toRows(tree any) ([]Row, error) {
	switch v := tree.(type) {
	case Component:
		return []Row{{v}}, nil
	case Row:
		return []Row{v}, nil
	case []Component:
		return []Row{v}, nil
	case []Row:
		return v, nil
	case [][]Component:
		rows := make([]Row, len(v))
		for i, r := range v {
			rows[i] = r
		}
		return rows, nil
	case []Button:
		return []Row{rowOf(v)}, nil
	case []*Button:
		return []Row{rowOf(v)}, nil
	case []LinkButton:
		return []Row{rowOf(v)}, nil
	case []*LinkButton:
		return []Row{rowOf(v)}, nil
	case []SelectMenu:
		return []Row{rowOf(v)}, nil
	case []*SelectMenu:
		return []Row{rowOf(v)}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported UI value %T", ErrInvalidComponent, tree)
	}
}

func rowOf[T Component](cs []T) Row {
	row := make(Row, len(cs))
	for i, c := range cs {
		row[i] = c
	}
	return row
}

// Release drops the handlers behind every custom ID in rows, as built here or
// as received back on a message, and returns how many were registered.
func (b *Builder) Release(rows []discordgo.MessageComponent) int {
	n := 0
	for _, id := range customIDs(rows) {
		if b.Buttons.Remove(id) || b.Selects.Remove(id) {
			n++
		}
	}
	return n
}

func customIDs(components []discordgo.MessageComponent) []string {
	var ids []string
	add := func(id string) {
		if id != "" {
			ids = append(ids, id)
		}
	}
	for _, c := range components {
		switch v := c.(type) {
		case discordgo.ActionsRow:
			ids = append(ids, customIDs(v.Components)...)
		case *discordgo.ActionsRow:
			ids = append(ids, customIDs(v.Components)...)
		case discordgo.Button:
			add(v.CustomID)
		case *discordgo.Button:
			add(v.CustomID)
		case discordgo.SelectMenu:
			add(v.CustomID)
		case *discordgo.SelectMenu:
			add(v.CustomID)
		}
	}
	return ids
}

func (b *Builder) convert(c Component) (discordgo.MessageComponent, func(), error) {
	switch v := c.(type) {
	case *Button:
		if v == nil {
			return nil, nil, fmt.Errorf("%w: nil button", ErrInvalidComponent)
		}
		return b.button(*v)
	case Button:
		return b.button(v)
	case *LinkButton:
		if v == nil {
			return nil, nil, fmt.Errorf("%w: nil link button", ErrInvalidComponent)
		}
		return linkButton(*v)
	case LinkButton:
		return linkButton(v)
	case *SelectMenu:
		if v == nil {
			return nil, nil, fmt.Errorf("%w: nil select menu", ErrInvalidComponent)
		}
		return b.selectMenu(*v)
	case SelectMenu:
		return b.selectMenu(v)
	default:
		return nil, nil, fmt.Errorf("%w: %T", ErrInvalidComponent, c)
	}
}

func (b *Builder) button(v Button) (discordgo.MessageComponent, func(), error) {
	if v.OnClick == nil {
		return nil, nil, fmt.Errorf("%w: button %q has no OnClick", ErrInvalidComponent, v.Label)
	}
	if v.Style == discordgo.LinkButton {
		return nil, nil, fmt.Errorf("%w: button %q uses link style, use LinkButton", ErrInvalidComponent, v.Label)
	}
	style := v.Style
	if style == 0 {
		style = discordgo.PrimaryButton
	}
	id := b.customID(v.Label, "button")
	handler := v.OnClick
	wire := discordgo.Button{
		Label:    v.Label,
		Style:    style,
		Disabled: v.Disabled,
		Emoji:    v.Emoji,
		CustomID: id,
	}
	return wire, func() { b.Buttons.Add(id, handler) }, nil
}

func linkButton(v LinkButton) (discordgo.MessageComponent, func(), error) {
	if v.URL == "" {
		return nil, nil, fmt.Errorf("%w: link button %q has no URL", ErrInvalidComponent, v.Label)
	}
	return discordgo.Button{
		Label:    v.Label,
		Style:    discordgo.LinkButton,
		Disabled: v.Disabled,
		Emoji:    v.Emoji,
		URL:      v.URL,
	}, nil, nil
}

func (b *Builder) selectMenu(v SelectMenu) (discordgo.MessageComponent, func(), error) {
	if v.OnSelect == nil {
		return nil, nil, fmt.Errorf("%w: select %q has no OnSelect", ErrInvalidComponent, v.Placeholder)
	}
	if len(v.Options) == 0 {
		return nil, nil, fmt.Errorf("%w: select %q has no options", ErrInvalidComponent, v.Placeholder)
	}
	opts := make([]discordgo.SelectMenuOption, len(v.Options))
	for i, o := range v.Options {
		value := o.Value
		if value == "" {
			value = o.Label
		}
		opts[i] = discordgo.SelectMenuOption{
			Label:       o.Label,
			Value:       value,
			Description: o.Description,
			Emoji:       o.Emoji,
			Default:     o.Default,
		}
	}
	id := b.customID(v.Placeholder, "select")
	handler := v.OnSelect
	wire := discordgo.SelectMenu{
		MenuType:    discordgo.StringSelectMenu,
		CustomID:    id,
		Placeholder: v.Placeholder,
		MinValues:   v.MinValues,
		MaxValues:   v.MaxValues,
		Options:     opts,
		Disabled:    v.Disabled,
	}
	return wire, func() { b.Selects.Add(id, handler) }, nil
}

// customID returns "<label>$<kind>$<unique>", shortening label so the ID fits
// Discord's limit.
func (b *Builder) customID(label, kind string) string {
	unique := b.newID()
	room := maxCustomIDLen - len(unique) - len(kind) - 2
	if room < 0 {
		room = 0
	}
	runes := []rune(label)
	for len(string(runes)) > room {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "$" + kind + "$" + unique
}

func validateRow(n int, row Row) error {
	if len(row) == 0 {
		return fmt.Errorf("%w: row %d is empty", ErrInvalidRow, n+1)
	}
	hasSelect := false
	for _, c := range row {
		switch c.(type) {
		case SelectMenu, *SelectMenu:
			hasSelect = true
		}
	}
	if hasSelect && len(row) > 1 {
		return fmt.Errorf("%w: a select menu must be alone in its row\nrow containing %s is invalid", ErrInvalidRow, rowLabels(row))
	}
	if len(row) > MaxRowSize {
		return fmt.Errorf("%w: rows cannot have more than %d elements\nrow containing %s is invalid", ErrInvalidRow, MaxRowSize, rowLabels(row))
	}
	return nil
}

func rowLabels(row Row) string {
	labels := make([]string, 0, len(row))
	for _, c := range row {
		labels = append(labels, fmt.Sprintf("%q", label(c)))
	}
	return strings.Join(labels, ", ")
}

func label(c Component) string {
	switch v := c.(type) {
	case Button:
		return v.Label
	case *Button:
		if v != nil {
			return v.Label
		}
	case LinkButton:
		return v.Label
	case *LinkButton:
		if v != nil {
			return v.Label
		}
	case SelectMenu:
		return v.Placeholder
	case *SelectMenu:
		if v != nil {
			return v.Placeholder
		}
	}
	return ""
}
