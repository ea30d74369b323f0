package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/chowline/chowline-backend/pkg/db/models"
	"github.com/chowline/chowline-backend/pkg/types"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{`
CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  note TEXT,
  total_items INTEGER NOT NULL DEFAULT 0,
  total_cost NUMERIC NOT NULL DEFAULT 0,
  version INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS cart_merchant_groups (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  merchant_id TEXT NOT NULL,
  merchant_snapshot TEXT,
  subtotal NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  group_id TEXT NOT NULL,
  food_id TEXT NOT NULL,
  merchant_id TEXT NOT NULL,
  name TEXT NOT NULL,
  unit_price NUMERIC NOT NULL,
  quantity INTEGER NOT NULL,
  extras TEXT,
  line_total NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedCart(t *testing.T, repo Repository, userID uuid.UUID) *models.Cart {
	t.Helper()
	cart, err := repo.Create(context.Background(), &models.Cart{UserID: userID})
	require.NoError(t, err)
	return cart
}

func TestRepositoryCreateAndFind(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()

	created := seedCart(t, repo, userID)
	require.NotEqual(t, uuid.Nil, created.ID)

	byID, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, userID, byID.UserID)

	byUser, err := repo.FindByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byUser.ID)

	_, err = repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryUpdateVersioned(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	cart := seedCart(t, repo, uuid.New())

	cart.TotalItems = 3
	cart.TotalCost = decimal.RequireFromString("19.99")
	require.NoError(t, repo.UpdateVersioned(context.Background(), cart, 0))
	assert.Equal(t, int64(1), cart.Version)

	// A writer holding the old version must lose.
	stale := *cart
	err := repo.UpdateVersioned(context.Background(), &stale, 0)
	require.ErrorIs(t, err, ErrVersionConflict)

	reloaded, err := repo.FindByID(context.Background(), cart.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.TotalItems)
	assert.Equal(t, int64(1), reloaded.Version)
}

func TestRepositoryReplaceGroupsRoundTrip(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	cart := seedCart(t, repo, uuid.New())
	merchantID := uuid.New()

	groups := []models.CartMerchantGroup{{
		MerchantID: merchantID,
		Merchant:   types.MerchantSnapshot{MerchantID: merchantID, Name: "Mama's Kitchen"},
		Subtotal:   decimal.RequireFromString("25.00"),
		Items: []models.CartItem{{
			FoodID:     uuid.New(),
			MerchantID: merchantID,
			Name:       "Jollof Rice",
			UnitPrice:  decimal.RequireFromString("12.50"),
			Quantity:   2,
			Extras:     []string{"spicy"},
			LineTotal:  decimal.RequireFromString("25.00"),
		}},
	}}
	require.NoError(t, repo.ReplaceGroups(context.Background(), cart.ID, groups))

	loaded, err := repo.FindByID(context.Background(), cart.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Groups, 1)
	require.Len(t, loaded.Groups[0].Items, 1)
	assert.Equal(t, "Mama's Kitchen", loaded.Groups[0].Merchant.Name)
	assert.Equal(t, []string{"spicy"}, []string(loaded.Groups[0].Items[0].Extras))

	// Replacing with nil clears groups and items.
	require.NoError(t, repo.ReplaceGroups(context.Background(), cart.ID, nil))
	loaded, err = repo.FindByID(context.Background(), cart.ID)
	require.NoError(t, err)
	assert.Empty(t, loaded.Groups)

	var orphans int64
	require.NoError(t, db.Model(&models.CartItem{}).Count(&orphans).Error)
	assert.Zero(t, orphans)
}

func TestRepositoryReset(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	cart := seedCart(t, repo, uuid.New())
	merchantID := uuid.New()

	require.NoError(t, repo.ReplaceGroups(context.Background(), cart.ID, []models.CartMerchantGroup{{
		MerchantID: merchantID,
		Items: []models.CartItem{{
			FoodID: uuid.New(), MerchantID: merchantID, Name: "Suya",
			UnitPrice: decimal.RequireFromString("8.00"), Quantity: 1,
			LineTotal: decimal.RequireFromString("8.00"),
		}},
	}}))
	cart.TotalItems = 1
	cart.TotalCost = decimal.RequireFromString("8.00")
	require.NoError(t, repo.UpdateVersioned(context.Background(), cart, 0))

	require.NoError(t, repo.Reset(context.Background(), cart.ID))

	loaded, err := repo.FindByID(context.Background(), cart.ID)
	require.NoError(t, err)
	assert.Empty(t, loaded.Groups)
	assert.Equal(t, 0, loaded.TotalItems)
	assert.True(t, loaded.TotalCost.IsZero())
	assert.Equal(t, int64(2), loaded.Version)

	// Resetting an already-empty cart is a no-op, not an error.
	require.NoError(t, repo.Reset(context.Background(), cart.ID))
}

func TestRepositoryDeleteStaleBefore(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)

	stale := seedCart(t, repo, uuid.New())
	fresh := seedCart(t, repo, uuid.New())

	old := time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, db.Model(&models.Cart{}).
		Where("id = ?", stale.ID).
		UpdateColumn("updated_at", old).Error)

	// A non-empty cart the same age must survive.
	full := seedCart(t, repo, uuid.New())
	require.NoError(t, db.Model(&models.Cart{}).
		Where("id = ?", full.ID).
		Updates(map[string]any{"updated_at": old, "total_items": 2}).Error)

	deleted, err := repo.DeleteStaleBefore(context.Background(), db, time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.FindByID(context.Background(), stale.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = repo.FindByID(context.Background(), fresh.ID)
	assert.NoError(t, err)
	_, err = repo.FindByID(context.Background(), full.ID)
	assert.NoError(t, err)
}
