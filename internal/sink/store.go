package sink

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists trades together with the cursor of the peer that read them.
type Store interface {
	// Cursor returns the stored offset of peer. ok is false for a new peer.
	Cursor(ctx context.Context, peer string) (offset int64, ok bool, err error)
	// Save stores trades and moves the cursor of peer in one transaction.
	Save(ctx context.Context, peer string, trades []Trade, offset int64) error
}

// GormStore is a Store on PostgreSQL.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the sink tables.
func (s *GormStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&Trade{}, &Cursor{})
}

func (s *GormStore) Cursor(ctx context.Context, peer string) (int64, bool, error) {
	var c Cursor
	err := s.db.WithContext(ctx).Where("peer = ?", peer).Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return c.LogOffset, true, nil
}

func (s *GormStore) Save(ctx context.Context, peer string, trades []Trade, offset int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(trades) > 0 {
			err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				CreateInBatches(trades, 500).Error
			if err != nil {
				return err
			}
		}
		cursor := Cursor{Peer: peer, LogOffset: offset, UpdatedAt: time.Now().UTC()}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "peer"}},
			DoUpdates: clause.AssignmentColumns([]string{"log_offset", "updated_at"}),
		}).Create(&cursor).Error
	})
}
