package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arcanium-studios/arcanium-backend/pkg/db/models"
)

type txRunner interface {
	DB() *gorm.DB
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// DBRepository persists carts in the cart_records and cart_items tables.
type DBRepository struct {
	db txRunner
}

// NewDBRepository constructs a cart repository bound to the provided DB client.
func NewDBRepository(db txRunner) (*DBRepository, error) {
	if db == nil || db.DB() == nil {
		return nil, fmt.Errorf("database client required")
	}
	return &DBRepository{db: db}, nil
}

// Load returns the stored cart with its items in insertion order.
func (r *DBRepository) Load(ctx context.Context, sessionID string) (Persisted, error) {
	var record models.CartRecord
	err := r.db.DB().WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position ASC")
		}).
		Where("session_id = ?", sessionID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Persisted{}, ErrCartNotFound
	}
	if err != nil {
		return Persisted{}, err
	}

	out := Persisted{
		Items:  make(map[string]PersistedItem, len(record.Items)),
		IsOpen: record.IsOpen,
	}
	for _, item := range record.Items {
		out.Items[item.ProductID] = PersistedItem{
			Quantity: item.Quantity,
			Price:    item.Price.String(),
			Name:     item.Name,
			Image:    item.Image,
			Position: item.Position,
		}
	}
	return out, nil
}

// Save upserts the cart header and replaces its items atomically.
func (r *DBRepository) Save(ctx context.Context, sessionID string, cart Persisted) error {
	items := make([]models.CartItem, 0, len(cart.Items))
	for id, stored := range cart.Items {
		price, err := decimal.NewFromString(stored.Price)
		if err != nil {
			return fmt.Errorf("item %q: invalid price %q: %w", id, stored.Price, err)
		}
		items = append(items, models.CartItem{
			SessionID: sessionID,
			ProductID: id,
			Name:      stored.Name,
			Price:     price,
			Image:     stored.Image,
			Quantity:  stored.Quantity,
			Position:  stored.Position,
		})
	}

	return r.db.WithTx(ctx, func(tx *gorm.DB) error {
		record := models.CartRecord{SessionID: sessionID, IsOpen: cart.IsOpen}
		if err := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "session_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"is_open", "updated_at"}),
			}).
			Create(&record).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", sessionID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
}

// Delete removes the cart and its items.
func (r *DBRepository) Delete(ctx context.Context, sessionID string) error {
	return r.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Where("session_id = ?", sessionID).Delete(&models.CartRecord{}).Error
	})
}

// PurgeIdle removes carts whose header was last written before the cutoff.
func (r *DBRepository) PurgeIdle(ctx context.Context, before time.Time) (int64, error) {
	var purged int64
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		idle := tx.Model(&models.CartRecord{}).Select("session_id").Where("updated_at < ?", before)
		if err := tx.Where("session_id IN (?)", idle).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("updated_at < ?", before).Delete(&models.CartRecord{})
		purged = res.RowsAffected
		return res.Error
	})
	return purged, err
}
