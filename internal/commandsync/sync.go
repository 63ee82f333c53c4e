package commandsync

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Result describes one reconciliation cycle.
type Result struct {
	Pushed      bool
	Report      Report
	Local       string // fingerprint of the local set
	Remote      string // fingerprint of the remote set before the push
	LocalCount  int
	RemoteCount int
}

// Syncer runs the fetch, compare and publish cycle.
type Syncer struct {
	Publisher *Publisher
	Logger    *zap.Logger
}

// Plan fetches the remote set and compares it with entries without
// publishing anything.
func (s *Syncer) Plan(ctx context.Context, entries []Entry) (Result, error) {
	if s.Publisher == nil || s.Publisher.Remote == nil {
		return Result{}, fmt.Errorf("%w: no command target", ErrConfig)
	}

	descs := make([]Descriptor, 0, len(entries))
	for _, e := range entries {
		descs = append(descs, e.Descriptor)
	}
	local, err := NewSet(descs...)
	if err != nil {
		return Result{}, err
	}

	fetched, err := s.Publisher.Remote.Fetch(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetch remote commands: %w", err)
	}
	remote := RemoteSet(fetched)

	res := Result{
		Local:       Fingerprint(local),
		Remote:      Fingerprint(remote),
		LocalCount:  len(local),
		RemoteCount: len(remote),
	}
	if NeedsSync(local, remote) {
		res.Report = Diff(local, remote)
	}
	return res, nil
}

// Sync publishes entries when they differ from the remote set.
func (s *Syncer) Sync(ctx context.Context, entries []Entry) (Result, error) {
	log := s.logger()

	res, err := s.Plan(ctx, entries)
	if err != nil {
		return res, err
	}
	if res.Report.Empty() {
		log.Info("Commands are already in sync, nothing to push...",
			zap.String("scope", s.Publisher.Scope.String()),
			zap.Int("commands", res.LocalCount),
			zap.String("fingerprint", res.Local))
		return res, nil
	}

	log.Info("Local commands differ from remote commands, syncing now...",
		zap.String("scope", s.Publisher.Scope.String()),
		zap.Int("local", res.LocalCount),
		zap.Int("remote", res.RemoteCount),
		zap.Strings("added", res.Report.Added),
		zap.Strings("removed", res.Report.Removed),
		zap.Strings("changed", res.Report.Changed))
	for name, detail := range res.Report.Details {
		log.Debug("Command changed", zap.String("command", name), zap.String("diff", detail))
	}

	if err := s.Publisher.Publish(ctx, entries); err != nil {
		return res, err
	}
	res.Pushed = true
	log.Info("Finished syncing", zap.String("fingerprint", res.Local))
	return res, nil
}

func (s *Syncer) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
