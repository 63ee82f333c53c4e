package router

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/keshon/dispatch/internal/command"
)

func keepIf(ok bool, calls *int) command.MessageFilter {
	return func(context.Context, *discordgo.Message) (bool, error) {
		*calls++
		return ok, nil
	}
}

func msg(author string) *discordgo.Message {
	return &discordgo.Message{ID: "m1", ChannelID: "c1", Author: &discordgo.User{ID: author}}
}

func TestFirstRejectingFilterDeletes(t *testing.T) {
	s := new(MockSession)
	s.On("ChannelMessageDelete", "c1", "m1", mock.Anything).Return(nil).Once()

	r := New(Config{})
	var first, second, third int
	r.RegisterMessageFilters(keepIf(true, &first), keepIf(false, &second), keepIf(false, &third))

	r.HandleMessage(context.Background(), s, msg("u1"))
	require.Equal(t, 1, first)
	require.Equal(t, 1, second)
	require.Zero(t, third)
	s.AssertExpectations(t)
}

func TestAcceptedMessageIsKept(t *testing.T) {
	s := new(MockSession)
	r := New(Config{})
	var calls int
	r.RegisterMessageFilters(keepIf(true, &calls), nil)
	require.Equal(t, 1, r.filters.Len())

	r.HandleMessage(context.Background(), s, msg("u1"))
	require.Equal(t, 1, calls)
	s.AssertNotCalled(t, "ChannelMessageDelete", mock.Anything, mock.Anything, mock.Anything)
}

func TestFilterErrorsAreSkipped(t *testing.T) {
	s := new(MockSession)
	s.On("ChannelMessageDelete", "c1", "m1", mock.Anything).Return(errors.New("missing access"))

	core, logs := observer.New(zap.DebugLevel)
	r := New(Config{Logger: zap.New(core)})
	var calls int
	r.RegisterMessageFilters(
		func(context.Context, *discordgo.Message) (bool, error) { return false, errors.New("broken") },
		keepIf(false, &calls),
	)

	r.HandleMessage(context.Background(), s, msg("u1"))
	require.Equal(t, 1, calls)
	require.Equal(t, 1, logs.FilterMessage("Message filter failed").Len())
	require.Equal(t, 1, logs.FilterMessage("Failed to delete filtered message").Len())
}

func TestFailedDeleteFallsThrough(t *testing.T) {
	s := new(MockSession)
	s.On("ChannelMessageDelete", "c1", "m1", mock.Anything).Return(errors.New("missing access")).Once()
	s.On("ChannelMessageDelete", "c1", "m1", mock.Anything).Return(nil).Once()

	core, logs := observer.New(zap.DebugLevel)
	r := New(Config{Logger: zap.New(core)})
	var first, second, third int
	r.RegisterMessageFilters(keepIf(false, &first), keepIf(false, &second), keepIf(false, &third))

	r.HandleMessage(context.Background(), s, msg("u1"))
	require.Equal(t, 1, first)
	require.Equal(t, 1, second, "a failed delete lets the next filter run")
	require.Zero(t, third, "a successful delete stops the chain")
	s.AssertNumberOfCalls(t, "ChannelMessageDelete", 2)
	require.Equal(t, 1, logs.FilterMessage("Failed to delete filtered message").Len())
	require.Equal(t, 1, logs.FilterMessage("Deleted filtered message").Len())
}

func TestOwnMessagesSkipFilters(t *testing.T) {
	s := new(MockSession)
	r := New(Config{})
	r.SetSelfID("bot")
	var calls int
	r.RegisterMessageFilters(keepIf(false, &calls))

	r.HandleMessage(context.Background(), s, msg("bot"))
	r.HandleMessage(context.Background(), s, &discordgo.Message{ID: "m2"})
	require.Zero(t, calls)
}

func TestFiltersRegisteredFromCommands(t *testing.T) {
	s := new(MockSession)
	s.On("ChannelMessageDelete", "c1", "m1", mock.Anything).Return(nil)

	r := New(Config{})
	r.Arm()
	require.NoError(t, command.Register(r.commands, []*command.Command{{
		Name: "nolinks",
		Run: func(_ context.Context, c *command.Context) error {
			c.RegisterMessageFilters(func(_ context.Context, m *discordgo.Message) (bool, error) {
				return m.Content != "spam", nil
			})
			return nil
		},
	}}))

	r.HandleInteraction(context.Background(), s, commandInteraction("nolinks"))
	require.Equal(t, 1, r.filters.Len())

	m := msg("u1")
	m.Content = "spam"
	r.HandleMessage(context.Background(), s, m)
	s.AssertExpectations(t)
}
