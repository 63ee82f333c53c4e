package router

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/keshon/dispatch/internal/command"
	"github.com/keshon/dispatch/internal/permission"
	"github.com/keshon/dispatch/internal/ui"
	"github.com/keshon/dispatch/pkg/cmd"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type MockSession struct {
	mock.Mock
}

func (m *MockSession) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	return m.Called(interaction, resp, options).Error(0)
}

func (m *MockSession) InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(interaction, newresp, options)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*discordgo.Message), args.Error(1)
}

func (m *MockSession) FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(interaction, wait, data, options)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*discordgo.Message), args.Error(1)
}

func (m *MockSession) GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	args := m.Called(guildID, options)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*discordgo.Role), args.Error(1)
}

func (m *MockSession) GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error) {
	args := m.Called(guildID, options)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*discordgo.Channel), args.Error(1)
}

func (m *MockSession) Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	args := m.Called(channelID, options)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*discordgo.Channel), args.Error(1)
}

func (m *MockSession) ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error {
	return m.Called(channelID, messageID, options).Error(0)
}

func ephemeralWith(content string) any {
	return mock.MatchedBy(func(r *discordgo.InteractionResponse) bool {
		return r.Data != nil && r.Data.Flags == discordgo.MessageFlagsEphemeral && r.Data.Content == content
	})
}

func commandInteraction(name string) *discordgo.Interaction {
	return &discordgo.Interaction{
		ID:      "i-" + name,
		Type:    discordgo.InteractionApplicationCommand,
		GuildID: "g",
		Member:  &discordgo.Member{User: &discordgo.User{ID: "u1"}, Roles: []string{"r-member"}},
		Data:    discordgo.ApplicationCommandInteractionData{Name: name},
	}
}

type RouterSuite struct {
	suite.Suite
	session  *MockSession
	logs     *observer.ObservedLogs
	registry *cmd.Registry
	errs     []error
	mu       sync.Mutex
	runs     int
}

func (s *RouterSuite) SetupTest() {
	s.session = new(MockSession)
	s.registry = cmd.NewRegistry()
	s.errs = nil
	s.runs = 0
}

func (s *RouterSuite) newRouter(cmds ...*command.Command) *Router {
	s.Require().NoError(command.Register(s.registry, cmds))
	core, logs := observer.New(zap.DebugLevel)
	s.logs = logs
	r := New(Config{
		Commands: s.registry,
		Logger:   zap.New(core),
		OnError: func(_ context.Context, _ Session, _ *discordgo.Interaction, _ *command.Command, err error) {
			s.mu.Lock()
			s.errs = append(s.errs, err)
			s.mu.Unlock()
		},
	})
	s.T().Cleanup(r.Stop)
	r.Arm()
	return r
}

func (s *RouterSuite) counting(name string) *command.Command {
	return &command.Command{Name: name, Run: func(context.Context, *command.Context) error {
		s.mu.Lock()
		s.runs++
		s.mu.Unlock()
		return nil
	}}
}

func (s *RouterSuite) runCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) TestNotArmedDropsInteraction() {
	s.Require().NoError(command.Register(s.registry, []*command.Command{s.counting("ping")}))
	r := New(Config{Commands: s.registry})

	r.HandleInteraction(context.Background(), s.session, commandInteraction("ping"))
	s.Zero(s.runCount())
	s.session.AssertNotCalled(s.T(), "InteractionRespond", mock.Anything, mock.Anything, mock.Anything)
}

func (s *RouterSuite) TestRunsCommand() {
	r := s.newRouter(s.counting("ping"))
	r.HandleInteraction(context.Background(), s.session, commandInteraction("ping"))
	s.Equal(1, s.runCount())
}

func (s *RouterSuite) TestUnknownCommand() {
	r := s.newRouter(s.counting("ping"))
	i := commandInteraction("pong")
	s.session.On("InteractionRespond", i, ephemeralWith(NotFoundMessage), mock.Anything).Return(nil)

	r.HandleInteraction(context.Background(), s.session, i)
	s.Zero(s.runCount())
	s.session.AssertExpectations(s.T())
}

func (s *RouterSuite) TestPermissionMessage() {
	c := s.counting("secret")
	c.Permission = func(context.Context, *permission.Request) permission.Decision { return permission.DenyWith("no") }
	r := s.newRouter(c)
	i := commandInteraction("secret")
	s.session.On("InteractionRespond", i, ephemeralWith("no"), mock.Anything).Return(nil)

	r.HandleInteraction(context.Background(), s.session, i)
	s.Zero(s.runCount())
	s.session.AssertExpectations(s.T())
}

func (s *RouterSuite) TestPermissionGenericDenial() {
	c := s.counting("secret")
	c.Permission = func(context.Context, *permission.Request) permission.Decision { return permission.Deny() }
	r := s.newRouter(c)
	i := commandInteraction("secret")
	s.session.On("InteractionRespond", i, ephemeralWith(permission.DeniedMessage), mock.Anything).Return(nil)

	r.HandleInteraction(context.Background(), s.session, i)
	s.Zero(s.runCount())
	s.session.AssertExpectations(s.T())
}

func (s *RouterSuite) TestStaticAllowLists() {
	c := s.counting("mods")
	c.AllowedRoles = []string{"r-mod"}
	r := s.newRouter(c)
	i := commandInteraction("mods")
	s.session.On("InteractionRespond", i, ephemeralWith(permission.DeniedMessage), mock.Anything).Return(nil)

	r.HandleInteraction(context.Background(), s.session, i)
	s.Zero(s.runCount())

	i.Member.Roles = append(i.Member.Roles, "r-mod")
	r.HandleInteraction(context.Background(), s.session, i)
	s.Equal(1, s.runCount())
}

func cooldownUntil(c *Cooldowns, key string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cd, ok := c.active[key]
	if !ok {
		return time.Time{}, false
	}
	return cd.until, true
}

func (s *RouterSuite) TestCooldown() {
	c := s.counting("slow")
	c.Cooldown = 300 * time.Millisecond
	r := s.newRouter(c)
	i := commandInteraction("slow")
	prefix := strings.TrimSuffix(CooldownMessage, "%s.")
	s.session.On("InteractionRespond", i, mock.MatchedBy(func(resp *discordgo.InteractionResponse) bool {
		return resp.Data != nil &&
			resp.Data.Flags == discordgo.MessageFlagsEphemeral &&
			strings.HasPrefix(resp.Data.Content, prefix)
	}), mock.Anything).Return(nil).Once()

	r.HandleInteraction(context.Background(), s.session, i)
	armed, ok := cooldownUntil(r.cooldowns, "slow")
	s.Require().True(ok)

	r.HandleInteraction(context.Background(), s.session, i)
	s.Equal(1, s.runCount())
	s.session.AssertExpectations(s.T())

	after, ok := cooldownUntil(r.cooldowns, "slow")
	s.Require().True(ok)
	s.Equal(armed, after, "a denied call leaves the expiry alone")

	s.Eventually(func() bool {
		_, ok := cooldownUntil(r.cooldowns, "slow")
		return !ok
	}, 2*time.Second, 5*time.Millisecond)
	r.HandleInteraction(context.Background(), s.session, i)
	s.Equal(2, s.runCount())
}

func (s *RouterSuite) TestRunErrorsAndPanicsGoToOnError() {
	failing := &command.Command{Name: "fail", Run: func(context.Context, *command.Context) error { return errors.New("boom") }}
	panicking := &command.Command{Name: "panic", Run: func(context.Context, *command.Context) error { panic("kaboom") }}
	r := s.newRouter(failing, panicking)

	r.HandleInteraction(context.Background(), s.session, commandInteraction("fail"))
	r.HandleInteraction(context.Background(), s.session, commandInteraction("panic"))

	s.Require().Len(s.errs, 2)
	s.EqualError(s.errs[0], "boom")
	s.Equal("panic: kaboom", s.errs[1].Error())
}

func (s *RouterSuite) defaultRouter(run command.RunFunc) (*Router, *observer.ObservedLogs) {
	s.Require().NoError(command.Register(s.registry, []*command.Command{{Name: "fail", Run: run}}))
	core, logs := observer.New(zap.DebugLevel)
	r := New(Config{Commands: s.registry, Logger: zap.New(core)})
	r.Arm()
	return r, logs
}

func (s *RouterSuite) TestDefaultOnErrorShowsEmbed() {
	r, logs := s.defaultRouter(func(context.Context, *command.Context) error { panic("kaboom") })
	i := commandInteraction("fail")
	s.session.On("InteractionRespond", i, mock.MatchedBy(func(resp *discordgo.InteractionResponse) bool {
		return resp.Data != nil &&
			resp.Data.Flags == discordgo.MessageFlagsEphemeral &&
			len(resp.Data.Embeds) == 1 &&
			resp.Data.Embeds[0].Title == ErrorTitle &&
			strings.Contains(resp.Data.Embeds[0].Description, "panic: kaboom")
	}), mock.Anything).Return(nil)

	r.HandleInteraction(context.Background(), s.session, i)
	s.session.AssertExpectations(s.T())

	failed := logs.FilterMessage("Command failed").All()
	s.Require().Len(failed, 1)
	s.Contains(failed[0].ContextMap(), "stack")
}

func (s *RouterSuite) TestDefaultOnErrorFollowsUpAfterReply() {
	r, logs := s.defaultRouter(func(_ context.Context, c *command.Context) error {
		if err := c.Reply("working on it"); err != nil {
			return err
		}
		return errors.New("boom")
	})
	i := commandInteraction("fail")
	s.session.On("InteractionRespond", i, mock.MatchedBy(func(resp *discordgo.InteractionResponse) bool {
		return len(resp.Data.Embeds) == 0
	}), mock.Anything).Return(nil).Once()
	s.session.On("InteractionRespond", i, mock.Anything, mock.Anything).
		Return(errors.New("interaction has already been acknowledged")).Once()
	s.session.On("FollowupMessageCreate", i, true, &discordgo.WebhookParams{
		Content: "Something went wrong running fail: boom",
		Flags:   discordgo.MessageFlagsEphemeral,
	}, mock.Anything).Return(&discordgo.Message{}, nil)

	r.HandleInteraction(context.Background(), s.session, i)
	s.session.AssertExpectations(s.T())
	s.Equal(1, logs.FilterMessage("Command failed").Len())
	s.Zero(logs.FilterMessage("Failed to report command error").Len())
}

func (s *RouterSuite) TestButtonRoundTrip() {
	var rows []discordgo.MessageComponent
	clicked := false
	poll := &command.Command{Name: "poll", Run: func(_ context.Context, c *command.Context) error {
		var err error
		rows, err = c.RegisterUI(ui.Button{Label: "Vote", OnClick: func(_ context.Context, e *ui.Event) error {
			clicked = e.User().ID == "u2"
			return nil
		}})
		return err
	}}
	r := s.newRouter(poll)
	r.HandleInteraction(context.Background(), s.session, commandInteraction("poll"))
	s.Require().Empty(s.errs)
	s.Require().Len(rows, 1)
	s.Equal(1, r.buttons.Len())

	id := rows[0].(discordgo.ActionsRow).Components[0].(discordgo.Button).CustomID
	click := &discordgo.Interaction{
		ID:   "c0",
		Type: discordgo.InteractionMessageComponent,
		User: &discordgo.User{ID: "u2"},
		Data: discordgo.MessageComponentInteractionData{CustomID: id, ComponentType: discordgo.ButtonComponent},
	}
	r.HandleInteraction(context.Background(), s.session, click)
	s.True(clicked)
}

func (s *RouterSuite) TestUnregisteredCustomID() {
	r := s.newRouter()
	i := &discordgo.Interaction{
		ID:   "c1",
		Type: discordgo.InteractionMessageComponent,
		Data: discordgo.MessageComponentInteractionData{CustomID: "gone$button$x", ComponentType: discordgo.ButtonComponent},
	}

	r.HandleInteraction(context.Background(), s.session, i)
	s.Equal(1, s.logs.FilterMessage("Unregistered custom ID").Len())
	s.session.AssertNotCalled(s.T(), "InteractionRespond", mock.Anything, mock.Anything, mock.Anything)
}

func (s *RouterSuite) TestSelectDispatch() {
	r := s.newRouter()
	var got []string
	r.selects.Add("pick$select$1", func(_ context.Context, _ *ui.Event, values []string) error {
		got = values
		return nil
	})
	i := &discordgo.Interaction{
		ID:   "c2",
		Type: discordgo.InteractionMessageComponent,
		Data: discordgo.MessageComponentInteractionData{
			CustomID:      "pick$select$1",
			ComponentType: discordgo.SelectMenuComponent,
			Values:        []string{"a", "b"},
		},
	}

	r.HandleInteraction(context.Background(), s.session, i)
	s.Equal([]string{"a", "b"}, got)
}

func (s *RouterSuite) TestButtonHandlerErrorIsLogged() {
	r := s.newRouter()
	r.buttons.Add("x$button$1", func(context.Context, *ui.Event) error { return errors.New("nope") })
	i := &discordgo.Interaction{
		ID:   "c3",
		Type: discordgo.InteractionMessageComponent,
		Data: discordgo.MessageComponentInteractionData{CustomID: "x$button$1", ComponentType: discordgo.ButtonComponent},
	}

	r.HandleInteraction(context.Background(), s.session, i)
	s.Equal(1, s.logs.FilterMessage("Component handler failed").Len())
}

func (s *RouterSuite) TestAutocomplete() {
	c := s.counting("city")
	c.Autocomplete = func(context.Context, *command.AutocompleteContext) ([]*discordgo.ApplicationCommandOptionChoice, error) {
		return []*discordgo.ApplicationCommandOptionChoice{{Name: "Berlin", Value: "berlin"}}, nil
	}
	r := s.newRouter(c)
	i := &discordgo.Interaction{
		ID:   "a1",
		Type: discordgo.InteractionApplicationCommandAutocomplete,
		Data: discordgo.ApplicationCommandInteractionData{Name: "city"},
	}
	s.session.On("InteractionRespond", i, mock.MatchedBy(func(resp *discordgo.InteractionResponse) bool {
		return resp.Type == discordgo.InteractionApplicationCommandAutocompleteResult && len(resp.Data.Choices) == 1
	}), mock.Anything).Return(nil)

	r.HandleInteraction(context.Background(), s.session, i)
	s.session.AssertExpectations(s.T())
	s.Zero(s.runCount())
}

func (s *RouterSuite) TestAutocompleteWithoutHandlerIsDropped() {
	r := s.newRouter(s.counting("plain"))
	i := &discordgo.Interaction{
		ID:   "a2",
		Type: discordgo.InteractionApplicationCommandAutocomplete,
		Data: discordgo.ApplicationCommandInteractionData{Name: "plain"},
	}

	r.HandleInteraction(context.Background(), s.session, i)
	s.session.AssertNotCalled(s.T(), "InteractionRespond", mock.Anything, mock.Anything, mock.Anything)
}

func (s *RouterSuite) TestStandaloneAutocomplete() {
	r := s.newRouter()
	r.RegisterAutocomplete("remote-only", func(context.Context, *command.AutocompleteContext) ([]*discordgo.ApplicationCommandOptionChoice, error) {
		return nil, errors.New("backend down")
	})
	i := &discordgo.Interaction{
		ID:   "a3",
		Type: discordgo.InteractionApplicationCommandAutocomplete,
		Data: discordgo.ApplicationCommandInteractionData{Name: "remote-only"},
	}

	r.HandleInteraction(context.Background(), s.session, i)
	s.Equal(1, s.logs.FilterMessage("Autocomplete failed").Len())
}

func (s *RouterSuite) TestUnhandledKind() {
	r := s.newRouter()
	r.HandleInteraction(context.Background(), s.session, &discordgo.Interaction{ID: "m1", Type: discordgo.InteractionModalSubmit})
	s.Equal(1, s.logs.FilterMessage("Unhandled interaction").Len())
}

func TestCooldownsStop(t *testing.T) {
	c := NewCooldowns()
	_, ok := c.TryAcquire("a", time.Hour)
	require.True(t, ok)

	remaining, ok := c.TryAcquire("a", time.Hour)
	require.False(t, ok)
	require.Greater(t, remaining, 59*time.Minute)

	c.Stop()
	_, ok = cooldownUntil(c, "a")
	require.False(t, ok)
}
