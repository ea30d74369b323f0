package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chowline/chowline-backend/pkg/db/models"
	"github.com/chowline/chowline-backend/pkg/enums"
)

type dbDirectory struct {
	db *gorm.DB
}

// NewDirectory returns a Directory backed by the users and merchants tables.
func NewDirectory(db *gorm.DB) Directory {
	return &dbDirectory{db: db}
}

func (d *dbDirectory) Recipients(ctx context.Context, audience enums.NotificationAudience) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := d.db.WithContext(ctx)
	switch audience {
	case enums.NotificationAudienceCustomer:
		query = query.Model(&models.User{})
	case enums.NotificationAudienceMerchant:
		query = query.Model(&models.Merchant{})
	default:
		return nil, fmt.Errorf("unknown audience %q", audience)
	}
	if err := query.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (d *dbDirectory) DeviceTokens(ctx context.Context, audience enums.NotificationAudience, recipientID uuid.UUID) ([]string, error) {
	switch audience {
	case enums.NotificationAudienceCustomer:
		var user models.User
		if err := d.db.WithContext(ctx).First(&user, "id = ?", recipientID).Error; err != nil {
			return nil, err
		}
		return []string(user.DeviceTokens), nil
	case enums.NotificationAudienceMerchant:
		var merchant models.Merchant
		if err := d.db.WithContext(ctx).First(&merchant, "id = ?", recipientID).Error; err != nil {
			return nil, err
		}
		return []string(merchant.DeviceTokens), nil
	}
	return nil, fmt.Errorf("unknown audience %q", audience)
}
