// Package store is the gorm-backed repository for trade records. It applies
// the backend-agnostic query specs produced by the journal package and owns
// the dirty-field bookkeeping that drives derived-field recomputation on
// partial updates.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"crypto-journal-go/internal/journal"
	"crypto-journal-go/internal/models"
)

var (
	// ErrNotFound is returned when no trade matches the given id.
	ErrNotFound = errors.New("trade not found")
	// ErrEmptyUpdate is returned for a patch with no settable fields.
	ErrEmptyUpdate = errors.New("no update data provided")
	// ErrInvalidSort is returned when a listing names an unknown sort field.
	ErrInvalidSort = errors.New("unknown sort field")
)

// sortColumns whitelists the fields a listing may order by. The query spec
// passes sort keys through verbatim, so validation happens here, against the
// actual schema, instead of silently no-opping.
var sortColumns = map[string]struct{}{
	"id":          {},
	"pair":        {},
	"entry_price": {},
	"exit_price":  {},
	"usd_amount":  {},
	"quantity":    {},
	"trade_date":  {},
	"pnl":         {},
	"strategy":    {},
	"trade_type":  {},
	"stop_loss":   {},
	"take_profit": {},
	"created_at":  {},
	"updated_at":  {},
}

// Store persists trades. Writes are single-row and last-write-wins; no
// optimistic locking is layered on top of the database's row atomicity.
type Store struct {
	db *gorm.DB
	// strictDelete makes Delete report ErrNotFound for missing ids instead
	// of succeeding silently.
	strictDelete bool
}

// New creates a Store. strictDelete selects the delete-of-missing-id policy.
func New(db *gorm.DB, strictDelete bool) *Store {
	return &Store{db: db, strictDelete: strictDelete}
}

// Create inserts a new trade row.
func (s *Store) Create(ctx context.Context, t *models.Trade) error {
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("create trade: %w", err)
	}
	return nil
}

// Get fetches one trade by id.
func (s *Store) Get(ctx context.Context, id string) (*models.Trade, error) {
	var t models.Trade
	err := s.db.WithContext(ctx).First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get trade %s: %w", id, err)
	}
	return &t, nil
}

// TradePatch is a sparse update: nil fields are left untouched. ExitPrice
// and the other optional levels can be set but not cleared, matching the
// partial-update contract.
type TradePatch struct {
	Pair       *string           `json:"pair"`
	EntryPrice *float64          `json:"entry_price"`
	ExitPrice  *float64          `json:"exit_price"`
	UsdAmount  *float64          `json:"usd_amount"`
	Quantity   *float64          `json:"quantity"`
	TradeDate  *models.Date      `json:"trade_date"`
	Pnl        *float64          `json:"pnl"`
	Strategy   *string           `json:"strategy"`
	TradeType  *models.TradeType `json:"trade_type"`
	StopLoss   *float64          `json:"stop_loss"`
	TakeProfit *float64          `json:"take_profit"`
	Notes      *string           `json:"notes"`
	ImageData  *string           `json:"image_data"`
}

// IsEmpty reports whether the patch sets nothing.
func (p TradePatch) IsEmpty() bool {
	return p.Pair == nil && p.EntryPrice == nil && p.ExitPrice == nil &&
		p.UsdAmount == nil && p.Quantity == nil && p.TradeDate == nil &&
		p.Pnl == nil && p.Strategy == nil && p.TradeType == nil &&
		p.StopLoss == nil && p.TakeProfit == nil && p.Notes == nil &&
		p.ImageData == nil
}

// apply copies the set fields onto the trade and returns the dirty set the
// derivation engine needs.
func (p TradePatch) apply(t *models.Trade) journal.FieldSet {
	dirty := journal.NewFieldSet()

	if p.Pair != nil {
		t.Pair = *p.Pair
	}
	if p.EntryPrice != nil {
		t.EntryPrice = *p.EntryPrice
		dirty.Add(journal.FieldEntryPrice)
	}
	if p.ExitPrice != nil {
		t.ExitPrice = p.ExitPrice
		dirty.Add(journal.FieldExitPrice)
	}
	if p.UsdAmount != nil {
		t.UsdAmount = *p.UsdAmount
		dirty.Add(journal.FieldUsdAmount)
	}
	if p.Quantity != nil {
		t.Quantity = *p.Quantity
		dirty.Add(journal.FieldQuantity)
	}
	if p.TradeDate != nil {
		t.TradeDate = *p.TradeDate
	}
	if p.Pnl != nil {
		t.Pnl = p.Pnl
	}
	if p.Strategy != nil {
		t.Strategy = *p.Strategy
	}
	if p.TradeType != nil {
		t.TradeType = *p.TradeType
		dirty.Add(journal.FieldTradeType)
	}
	if p.StopLoss != nil {
		t.StopLoss = p.StopLoss
	}
	if p.TakeProfit != nil {
		t.TakeProfit = p.TakeProfit
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.ImageData != nil {
		t.ImageData = *p.ImageData
	}
	return dirty
}

// Update performs read-modify-write: fetch the current row, apply the patch,
// recompute derived fields from the dirty set, and save. A directly patched
// pnl survives only if no derivation input changed; otherwise the engine's
// result wins.
func (s *Store) Update(ctx context.Context, id string, patch TradePatch) (*models.Trade, error) {
	if patch.IsEmpty() {
		return nil, ErrEmptyUpdate
	}

	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	dirty := patch.apply(t)
	journal.Recompute(t, dirty)
	t.UpdatedAt = time.Now().UTC()

	if err := s.db.WithContext(ctx).Save(t).Error; err != nil {
		return nil, fmt.Errorf("update trade %s: %w", id, err)
	}
	return t, nil
}

// Delete removes a trade by id. With strictDelete off (the default) deleting
// a missing id succeeds, mirroring the write-and-hope behavior of document
// stores; with it on, a missing id is ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Trade{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete trade %s: %w", id, res.Error)
	}
	if s.strictDelete && res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List executes a query spec: the total is counted before the page window is
// applied, so pagination never affects it.
func (s *Store) List(ctx context.Context, spec journal.Spec) ([]models.Trade, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Trade{})
	for _, p := range spec.Predicates {
		q = applyPredicate(q, p)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count trades: %w", err)
	}

	if _, ok := sortColumns[spec.SortBy]; !ok {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidSort, spec.SortBy)
	}
	dir := "asc"
	if spec.SortDesc {
		dir = "desc"
	}

	trades := []models.Trade{}
	err := q.Order(spec.SortBy + " " + dir).
		Offset(spec.Offset).
		Limit(spec.Limit).
		Find(&trades).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list trades: %w", err)
	}
	return trades, total, nil
}

// ClosedTrades returns every trade with a realized P&L, the qualifying set
// for aggregate statistics.
func (s *Store) ClosedTrades(ctx context.Context) ([]models.Trade, error) {
	var trades []models.Trade
	if err := s.db.WithContext(ctx).Where("pnl IS NOT NULL").Find(&trades).Error; err != nil {
		return nil, fmt.Errorf("closed trades: %w", err)
	}
	return trades, nil
}

func applyPredicate(q *gorm.DB, p journal.Predicate) *gorm.DB {
	switch p.Op {
	case journal.OpContains:
		pattern := "%" + strings.ToLower(fmt.Sprint(p.Value)) + "%"
		return q.Where("LOWER("+p.Field+") LIKE ?", pattern)
	case journal.OpEq:
		return q.Where(p.Field+" = ?", p.Value)
	case journal.OpGte:
		return q.Where(p.Field+" >= ?", p.Value)
	case journal.OpLte:
		return q.Where(p.Field+" <= ?", p.Value)
	default:
		return q
	}
}
