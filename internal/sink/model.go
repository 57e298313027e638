package sink

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is one stored Off-Book Trade record. Peer, LogOffset and RecordIndex
// identify the source record, so replays insert nothing new.
type Trade struct {
	ID           uint64          `gorm:"primaryKey;autoIncrement"`
	Peer         string          `gorm:"size:64;not null;uniqueIndex:idx_ore_trades_source"`
	LogOffset    int64           `gorm:"not null;uniqueIndex:idx_ore_trades_source"`
	RecordIndex  int             `gorm:"not null;uniqueIndex:idx_ore_trades_source"`
	Channel      string          `gorm:"size:255;not null;index"`
	InstrumentID int32           `gorm:"not null;index"`
	RecvTime     time.Time       `gorm:"not null"`
	VendorTime   time.Time       `gorm:"not null"`
	VendorSeqno  uint64          `gorm:"not null"`
	Price        decimal.Decimal `gorm:"type:numeric;not null"`
	Qty          decimal.Decimal `gorm:"type:numeric;not null"`
	Side         string          `gorm:"size:1;not null"`
	Batch        bool            `gorm:"not null"`
}

func (Trade) TableName() string {
	return "ore_trades"
}

// Cursor is the last log offset a sink peer has fully stored.
type Cursor struct {
	Peer      string `gorm:"primaryKey;size:64"`
	LogOffset int64  `gorm:"not null"`
	UpdatedAt time.Time
}

func (Cursor) TableName() string {
	return "ore_sink_cursors"
}
