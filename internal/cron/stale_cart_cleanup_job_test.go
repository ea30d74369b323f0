package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chowline/chowline-backend/pkg/logger"
	"gorm.io/gorm"
)

func TestStaleCartCleanupJobDeletesAbandonedCarts(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeStaleCartRepo{deletedRows: 3}
	job := newStaleCartCleanupJob(t, repo)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	expectedCutoff := now.UTC().Add(-staleCartRetentionDays * 24 * time.Hour)
	if !repo.lastCutoff.Equal(expectedCutoff) {
		t.Fatalf("expected cutoff %s, got %s", expectedCutoff, repo.lastCutoff)
	}
	if repo.called != 1 {
		t.Fatalf("expected repo called once, got %d", repo.called)
	}
}

func TestStaleCartCleanupJobHonorsCustomRetention(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeStaleCartRepo{}
	jobIface, err := NewStaleCartCleanupJob(StaleCartCleanupJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		DB:         staleCartFakeTxRunner{},
		Repository: repo,
		Retention:  3,
	})
	if err != nil {
		t.Fatalf("NewStaleCartCleanupJob: %v", err)
	}
	job := jobIface.(*staleCartCleanupJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	expectedCutoff := now.UTC().Add(-3 * 24 * time.Hour)
	if !repo.lastCutoff.Equal(expectedCutoff) {
		t.Fatalf("expected cutoff %s, got %s", expectedCutoff, repo.lastCutoff)
	}
}

func TestStaleCartCleanupJobPropagatesErrors(t *testing.T) {
	repo := &fakeStaleCartRepo{err: errors.New("boom")}
	job := newStaleCartCleanupJob(t, repo)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func newStaleCartCleanupJob(t *testing.T, repo *fakeStaleCartRepo) *staleCartCleanupJob {
	t.Helper()
	jobIface, err := NewStaleCartCleanupJob(StaleCartCleanupJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		DB:         staleCartFakeTxRunner{},
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("NewStaleCartCleanupJob: %v", err)
	}
	job, ok := jobIface.(*staleCartCleanupJob)
	if !ok {
		t.Fatalf("expected staleCartCleanupJob, got %T", jobIface)
	}
	return job
}

type fakeStaleCartRepo struct {
	lastCutoff  time.Time
	deletedRows int64
	err         error
	called      int
}

func (f *fakeStaleCartRepo) DeleteStaleBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return f.deletedRows, nil
}

type staleCartFakeTxRunner struct{}

func (staleCartFakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}
