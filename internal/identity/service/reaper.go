package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pictogramapp/pictogram/internal/identity/store"
)

// errSweepSkip aborts one account's delete transaction when the account
// verified between selection and deletion. The rollback restores its
// tokens.
var errSweepSkip = errors.New("account verified during sweep")

// UnverifiedAccountReaper periodically deletes accounts that never
// completed email verification within the retention window, cascading
// token cleanup. It runs purely against stored state, independent of
// request traffic.
type UnverifiedAccountReaper struct {
	Store     store.Store
	Logger    *slog.Logger
	Interval  time.Duration
	Retention time.Duration

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewUnverifiedAccountReaper creates a reaper. Non-positive interval or
// retention fall back to 1 hour and 48 hours respectively.
func NewUnverifiedAccountReaper(st store.Store, logger *slog.Logger, interval, retention time.Duration) *UnverifiedAccountReaper {
	if interval <= 0 {
		interval = time.Hour
	}
	if retention <= 0 {
		retention = 48 * time.Hour
	}

	return &UnverifiedAccountReaper{
		Store:     st,
		Logger:    logger,
		Interval:  interval,
		Retention: retention,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut the
// worker down gracefully.
func (s *UnverifiedAccountReaper) Start() {
	go s.run()
	s.Logger.Info("unverified account reaper started",
		"interval", s.Interval,
		"retention", s.Retention,
	)
}

// Stop shuts down the worker, blocking until any in-progress sweep
// finishes.
func (s *UnverifiedAccountReaper) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("unverified account reaper stopped")
}

func (s *UnverifiedAccountReaper) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Sweep immediately on startup
	s.sweep(context.Background())

	for {
		select {
		case <-ticker.C:
			s.sweep(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

func (s *UnverifiedAccountReaper) sweep(ctx context.Context) {
	reaped, err := s.Sweep(ctx)
	if err != nil {
		s.Logger.Error("reaper sweep failed", "error", err)
		return
	}
	s.Logger.Info("reaper sweep completed", "accounts_reaped", reaped)
}

// Sweep runs one idempotent pass and returns the number of accounts
// removed. A failure on one account never blocks the rest. Exported so a
// scheduler or operator can trigger a pass on demand.
func (s *UnverifiedAccountReaper) Sweep(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	cutoff := now.Add(-s.Retention)

	candidates, err := s.Store.Accounts().ListUnverifiedCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	var reaped int
	for _, account := range candidates {
		err := s.Store.WithTx(ctx, func(tx store.Tx) error {
			// Tokens first, then a delete conditional on the account
			// still being unverified. If verification landed since the
			// SELECT the condition misses, errSweepSkip rolls the token
			// deletion back and the account survives intact.
			if err := tx.VerificationTokens().DeleteAllForAccount(ctx, account.ID); err != nil {
				return err
			}
			deleted, err := tx.Accounts().DeleteAccountIfUnverified(ctx, account.ID)
			if err != nil {
				return err
			}
			if !deleted {
				return errSweepSkip
			}
			return nil
		})
		switch {
		case errors.Is(err, errSweepSkip):
			s.Logger.Debug("skipping account that verified during sweep",
				"account_id", account.ID,
			)
		case err != nil:
			s.Logger.Error("failed to reap account",
				"account_id", account.ID,
				"error", err,
			)
		default:
			reaped++
			s.Logger.Debug("reaped unverified account",
				"account_id", account.ID,
				"created_at", account.CreatedAt,
			)
		}
	}

	// Opportunistic cleanup of expired token rows for accounts still
	// inside the retention window.
	if err := s.Store.VerificationTokens().DeleteExpired(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired verification tokens", "error", err)
	}

	return reaped, nil
}
