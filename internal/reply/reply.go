// Package reply wraps the interaction response calls used by the router and
// by commands.
package reply

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	embed "github.com/clinet/discordgo-embed"
)

const EmbedColor = 0x5865f2

// Session is the part of *discordgo.Session needed to answer interactions.
type Session interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

func message(s Session, i *discordgo.Interaction, data *discordgo.InteractionResponseData) error {
	return s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

// Respond sends a public message response.
func Respond(s Session, i *discordgo.Interaction, content string) error {
	return message(s, i, &discordgo.InteractionResponseData{Content: content})
}

// RespondEphemeral sends a message only the invoking user can see.
func RespondEphemeral(s Session, i *discordgo.Interaction, content string) error {
	return message(s, i, &discordgo.InteractionResponseData{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
}

// RespondEmbed sends a public embed response.
func RespondEmbed(s Session, i *discordgo.Interaction, e *discordgo.MessageEmbed) error {
	return message(s, i, &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{e}})
}

// RespondEmbedEphemeral sends an ephemeral embed response.
func RespondEmbedEphemeral(s Session, i *discordgo.Interaction, e *discordgo.MessageEmbed) error {
	return message(s, i, &discordgo.InteractionResponseData{
		Flags:  discordgo.MessageFlagsEphemeral,
		Embeds: []*discordgo.MessageEmbed{e},
	})
}

// RespondComponents sends a message carrying already built component rows.
func RespondComponents(s Session, i *discordgo.Interaction, content string, rows []discordgo.MessageComponent, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{Content: content, Components: rows}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return message(s, i, data)
}

// UpdateMessage edits the message a component belongs to. A nil rows slice
// keeps the existing components.
func UpdateMessage(s Session, i *discordgo.Interaction, content string, rows []discordgo.MessageComponent) error {
	return s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{Content: content, Components: rows},
	})
}

// DeferUpdate acknowledges a component interaction without changing anything.
func DeferUpdate(s Session, i *discordgo.Interaction) error {
	return s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
}

// RespondDeferredEphemeral acknowledges an interaction ephemerally without an immediate reply.
func RespondDeferredEphemeral(s Session, i *discordgo.Interaction) error {
	return s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
}

// Autocomplete answers an autocomplete request. Discord accepts at most 25 choices.
func Autocomplete(s Session, i *discordgo.Interaction, choices []*discordgo.ApplicationCommandOptionChoice) error {
	if len(choices) > 25 {
		choices = choices[:25]
	}
	return s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
}

// EditResponse edits an existing interaction response.
func EditResponse(s Session, i *discordgo.Interaction, content string) error {
	_, err := s.InteractionResponseEdit(i, &discordgo.WebhookEdit{Content: &content})
	return err
}

// Followup sends a followup message.
func Followup(s Session, i *discordgo.Interaction, content string, ephemeral bool) error {
	params := &discordgo.WebhookParams{Content: content}
	if ephemeral {
		params.Flags = discordgo.MessageFlagsEphemeral
	}
	_, err := s.FollowupMessageCreate(i, true, params)
	return err
}

// ErrorEmbed renders err as a red embed.
func ErrorEmbed(title string, err error) *discordgo.MessageEmbed {
	return embed.NewEmbed().
		SetColor(0xed4245).
		SetTitle(title).
		SetDescription(fmt.Sprintf("```%v```", err)).
		MessageEmbed
}
