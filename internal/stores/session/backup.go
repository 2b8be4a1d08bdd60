package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const backupTimeout = 30 * time.Second

// BackupTo writes the current collection and active snapshot to another backend
func (s *Store) BackupTo(ctx context.Context, target Backend) error {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()

	if err := persist(ctx, target, snapshot, nil); err != nil {
		return fmt.Errorf("failed to back up sessions: %w", err)
	}
	return nil
}

// Backups copies the store to a secondary backend on a cron schedule
type Backups struct {
	store  *Store
	target Backend
	cron   *cron.Cron
	logger *zap.Logger
}

// ScheduleBackups starts periodic backups of store to target. schedule is a standard cron
// expression or descriptor such as "@hourly"
func ScheduleBackups(store *Store, target Backend, schedule string, logger *zap.Logger) (*Backups, error) {
	if store == nil || target == nil {
		return nil, errors.New("backups require a store and a target backend")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	b := &Backups{
		store:  store,
		target: target,
		cron:   cron.New(),
		logger: logger,
	}

	if _, err := b.cron.AddFunc(schedule, b.run); err != nil {
		return nil, fmt.Errorf("failed to schedule backups %q: %w", schedule, err)
	}

	b.cron.Start()
	logger.Info("session backups scheduled", zap.String("schedule", schedule))
	return b, nil
}

func (b *Backups) run() {
	ctx, cancel := context.WithTimeout(context.Background(), backupTimeout)
	defer cancel()

	if err := b.store.BackupTo(ctx, b.target); err != nil {
		b.logger.Error("session backup failed", zap.Error(err))
		return
	}
	b.logger.Info("session backup completed")
}

// RunNow performs one backup immediately
func (b *Backups) RunNow() {
	b.run()
}

// Stop waits for a running backup to finish and closes the target backend
func (b *Backups) Stop() error {
	<-b.cron.Stop().Done()
	return b.target.Close()
}
