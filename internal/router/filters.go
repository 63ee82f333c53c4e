package router

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/keshon/dispatch/internal/command"
)

// Filters holds the process-wide message filters in registration order.
type Filters struct {
	mu   sync.RWMutex
	list []command.MessageFilter
}

// Add appends filters, skipping nil ones.
func (f *Filters) Add(filters ...command.MessageFilter) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fl := range filters {
		if fl != nil {
			f.list = append(f.list, fl)
		}
	}
}

func (f *Filters) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.list)
}

func (f *Filters) snapshot() []command.MessageFilter {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]command.MessageFilter(nil), f.list...)
}

// HandleMessage runs the filters against a created or edited message. The
// first filter rejecting it gets the message deleted. Filter errors and
// failed deletes are logged and the next filter runs.
func (r *Router) HandleMessage(ctx context.Context, s Session, m *discordgo.Message) {
	if m == nil || m.Author == nil || m.Author.ID == r.SelfID() {
		return
	}
	for n, filter := range r.filters.snapshot() {
		keep, err := filter(ctx, m)
		if err != nil {
			r.logger.Warn("Message filter failed",
				zap.Int("filter", n),
				zap.String("message", m.ID),
				zap.Error(err))
			continue
		}
		if keep {
			continue
		}
		if err := s.ChannelMessageDelete(m.ChannelID, m.ID, discordgo.WithContext(ctx)); err != nil {
			r.logger.Warn("Failed to delete filtered message",
				zap.Int("filter", n),
				zap.String("channel", m.ChannelID),
				zap.String("message", m.ID),
				zap.Error(err))
			continue
		}
		r.logger.Info("Deleted filtered message",
			zap.Int("filter", n),
			zap.String("channel", m.ChannelID),
			zap.String("author", m.Author.ID))
		return
	}
}
