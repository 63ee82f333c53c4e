package commands

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/dispatch/internal/command"
	"github.com/keshon/dispatch/internal/commandsync"
	"github.com/keshon/dispatch/internal/ui"
)

const maxPollAnswers = 5

func Poll() *command.Command {
	return &command.Command{
		Name:        "poll",
		Description: "Start a button poll.",
		Options: []commandsync.Option{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "question",
				Description: "What to ask",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "answers",
				Description: "Comma-separated answers (default: Yes, No)",
			},
		},
		Run: runPoll,
	}
}

func runPoll(_ context.Context, c *command.Context) error {
	var question, answers string
	if o := c.Option("question"); o != nil {
		question = strings.TrimSpace(o.StringValue())
	}
	if o := c.Option("answers"); o != nil {
		answers = o.StringValue()
	}
	if question == "" {
		return c.Ephemeral("A poll needs a question.")
	}

	choices := parseAnswers(answers)
	if len(choices) < 2 {
		return c.Ephemeral("A poll needs at least 2 different answers.")
	}
	if len(choices) > maxPollAnswers {
		return c.Ephemeral(fmt.Sprintf("A poll can have at most %d answers.", maxPollAnswers))
	}

	var author string
	if u := c.User(); u != nil {
		author = u.ID
	}
	p := &poll{question: question, choices: choices, votes: make(map[string]string)}

	answerRow := make(ui.Row, 0, len(choices))
	for _, choice := range choices {
		answerRow = append(answerRow, ui.Button{
			Label: choice,
			OnClick: func(_ context.Context, e *ui.Event) error {
				u := e.User()
				if u == nil {
					return e.Defer()
				}
				if !p.vote(u.ID, choice) {
					return e.Ephemeral("This poll is closed.")
				}
				return e.Update(p.render(), nil)
			},
		})
	}
	closeRow := ui.Row{ui.Button{
		Style: discordgo.DangerButton,
		Label: "Close poll",
		OnClick: func(_ context.Context, e *ui.Event) error {
			if u := e.User(); u == nil || u.ID != author {
				return e.Ephemeral("Only the author can close this poll.")
			}
			p.close()
			if m := e.Interaction.Message; m != nil {
				c.ReleaseUI(m.Components)
			}
			return e.Update(p.render(), []discordgo.MessageComponent{})
		},
	}}

	return c.ReplyUI(p.render(), []ui.Row{answerRow, closeRow}, false)
}

// parseAnswers splits s on commas, dropping blanks and duplicates.
func parseAnswers(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{"Yes", "No"}
	}
	var out []string
	seen := make(map[string]bool)
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if a == "" || seen[strings.ToLower(a)] {
			continue
		}
		seen[strings.ToLower(a)] = true
		out = append(out, a)
	}
	return out
}

type poll struct {
	mu       sync.Mutex
	question string
	choices  []string
	votes    map[string]string // user ID -> choice
	closed   bool
}

// vote records or changes the user's answer. It reports false once closed.
func (p *poll) vote(userID, choice string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.votes[userID] = choice
	return true
}

func (p *poll) close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

func (p *poll) render() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	counts := make(map[string]int, len(p.choices))
	for _, c := range p.votes {
		counts[c]++
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 **%s**", p.question)
	if p.closed {
		b.WriteString(" (closed)")
	}
	for _, c := range p.choices {
		n := counts[c]
		unit := "votes"
		if n == 1 {
			unit = "vote"
		}
		fmt.Fprintf(&b, "\n%s: %d %s", c, n, unit)
	}
	return b.String()
}
