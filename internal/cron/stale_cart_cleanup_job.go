package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/chowline/chowline-backend/pkg/logger"
)

const staleCartRetentionDays = 14

type StaleCartCleanupJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository staleCartRepo
	Retention  int
}

type staleCartRepo interface {
	DeleteStaleBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

// NewStaleCartCleanupJob prunes carts that have not been touched for the
// retention window. Checkout resets active carts, so anything this old was
// abandoned.
func NewStaleCartCleanupJob(params StaleCartCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = staleCartRetentionDays
	}
	return &staleCartCleanupJob{
		logg:      params.Logger,
		db:        params.DB,
		repo:      params.Repository,
		retention: retention,
		now:       time.Now,
	}, nil
}

type staleCartCleanupJob struct {
	logg      *logger.Logger
	db        txRunner
	repo      staleCartRepo
	retention int
	now       func() time.Time
}

func (j *staleCartCleanupJob) Name() string { return "stale-cart-cleanup" }

func (j *staleCartCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.repo.DeleteStaleBefore(ctx, tx, cutoff)
		if err != nil {
			return err
		}
		deleted = rows
		return nil
	})
	if err != nil {
		return fmt.Errorf("stale cart cleanup: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "stale cart cleanup complete")
	return nil
}
