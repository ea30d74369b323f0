package cron

import (
	"context"

	"gorm.io/gorm"
)

// txRunner abstracts the database client's transaction helper so jobs can be
// tested without a live connection.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
