package models

import (
	"time"

	"github.com/google/uuid"
)

// TradeType is the direction of a position.
type TradeType string

const (
	// TradeTypeLong profits when the exit price is above the entry price.
	TradeTypeLong TradeType = "Long"
	// TradeTypeShort profits when the exit price is below the entry price.
	TradeTypeShort TradeType = "Short"
)

// Valid reports whether t is one of the known directions.
func (t TradeType) Valid() bool {
	return t == TradeTypeLong || t == TradeTypeShort
}

// SizingMode discriminates which sizing input is authoritative for a trade.
// Exactly one of usd_amount or quantity is supplied at creation; the other
// is derived (or left zero).
type SizingMode string

const (
	// SizingUSD means usd_amount was supplied and quantity is derived
	// as usd_amount / entry_price.
	SizingUSD SizingMode = "usd"
	// SizingQuantity means quantity was supplied directly.
	SizingQuantity SizingMode = "quantity"
)

// Trade is a journal entry for a single position.
// Quantity and Pnl are derived server-side; clients never set quantity
// directly except via the direct-quantity sizing mode.
type Trade struct {
	ID         string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Pair       string     `gorm:"not null;index" json:"pair"`
	EntryPrice float64    `gorm:"not null" json:"entry_price"`
	ExitPrice  *float64   `json:"exit_price"`
	SizingMode SizingMode `gorm:"not null;default:usd" json:"sizing_mode"`
	UsdAmount  float64    `json:"usd_amount"`
	Quantity   float64    `json:"quantity"`
	TradeDate  Date       `gorm:"type:date;index" json:"trade_date"`
	Pnl        *float64   `gorm:"index" json:"pnl"`
	Strategy   string     `gorm:"index" json:"strategy"`
	TradeType  TradeType  `gorm:"not null;index" json:"trade_type"`
	StopLoss   *float64   `json:"stop_loss"`
	TakeProfit *float64   `json:"take_profit"`
	Notes      string     `json:"notes"`
	ImageData  string     `json:"image_data"` // base64 encoded chart screenshot
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName keeps the table name stable regardless of struct renames.
func (Trade) TableName() string {
	return "trades"
}

// NewTradeID generates the opaque identifier assigned at creation.
func NewTradeID() string {
	return uuid.New().String()
}
