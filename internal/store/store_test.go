package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"crypto-journal-go/internal/journal"
	"crypto-journal-go/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Trade{}))
	return db
}

// newUSDTrade builds a capital-sized trade with derived fields filled in the
// same way the API layer does at creation.
func newUSDTrade(pair, strategy string, tradeType models.TradeType, entry, usd float64, exit *float64, date models.Date) *models.Trade {
	trade := &models.Trade{
		ID:         models.NewTradeID(),
		Pair:       pair,
		EntryPrice: entry,
		ExitPrice:  exit,
		SizingMode: models.SizingUSD,
		UsdAmount:  usd,
		TradeDate:  date,
		Strategy:   strategy,
		TradeType:  tradeType,
	}
	trade.Quantity = journal.Quantity(usd, entry)
	trade.Pnl = journal.PnL(tradeType, entry, exit, trade.Quantity)
	return trade
}

func TestCreateAndGet(t *testing.T) {
	st := New(setupTestDB(t), false)
	ctx := context.Background()

	exit := 47000.0
	trade := newUSDTrade("BTC/USDT", "breakout", models.TradeTypeLong, 45000, 1000, &exit, models.NewDate(2024, 5, 1))
	require.NoError(t, st.Create(ctx, trade))

	got, err := st.Get(ctx, trade.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.ID, got.ID)
	assert.Equal(t, "BTC/USDT", got.Pair)
	assert.Equal(t, models.SizingUSD, got.SizingMode)
	assert.InDelta(t, 1000.0/45000.0, got.Quantity, 1e-9)
	require.NotNil(t, got.Pnl)
	assert.InDelta(t, 44.44, *got.Pnl, 0.01)
	assert.Equal(t, "2024-05-01", got.TradeDate.String())
	assert.False(t, got.CreatedAt.IsZero())
}

func TestGetMissing(t *testing.T) {
	st := New(setupTestDB(t), false)

	_, err := st.Get(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateRecomputesDerivedFields(t *testing.T) {
	st := New(setupTestDB(t), false)
	ctx := context.Background()

	trade := newUSDTrade("ETH/USDT", "swing", models.TradeTypeShort, 2500, 500, nil, models.NewDate(2024, 5, 2))
	require.NoError(t, st.Create(ctx, trade))
	assert.Nil(t, trade.Pnl)

	// Closing the position sets the exit price; P&L must appear.
	exit := 2400.0
	updated, err := st.Update(ctx, trade.ID, TradePatch{ExitPrice: &exit})
	require.NoError(t, err)
	require.NotNil(t, updated.Pnl)
	assert.InDelta(t, 20.0, *updated.Pnl, 1e-9) // (2500-2400) * 0.2

	// Changing the invested capital rescales quantity and P&L.
	usd := 1000.0
	updated, err = st.Update(ctx, trade.ID, TradePatch{UsdAmount: &usd})
	require.NoError(t, err)
	assert.InDelta(t, 0.4, updated.Quantity, 1e-9)
	require.NotNil(t, updated.Pnl)
	assert.InDelta(t, 40.0, *updated.Pnl, 1e-9)

	// Flipping the direction flips the sign.
	long := models.TradeTypeLong
	updated, err = st.Update(ctx, trade.ID, TradePatch{TradeType: &long})
	require.NoError(t, err)
	require.NotNil(t, updated.Pnl)
	assert.InDelta(t, -40.0, *updated.Pnl, 1e-9)
}

func TestUpdateIdempotent(t *testing.T) {
	st := New(setupTestDB(t), false)
	ctx := context.Background()

	exit := 47000.0
	trade := newUSDTrade("BTC/USDT", "breakout", models.TradeTypeLong, 45000, 1000, &exit, models.NewDate(2024, 5, 1))
	require.NoError(t, st.Create(ctx, trade))

	first, err := st.Update(ctx, trade.ID, TradePatch{ExitPrice: &exit})
	require.NoError(t, err)
	second, err := st.Update(ctx, trade.ID, TradePatch{ExitPrice: &exit})
	require.NoError(t, err)

	require.NotNil(t, first.Pnl)
	require.NotNil(t, second.Pnl)
	assert.Equal(t, *first.Pnl, *second.Pnl)
	assert.Equal(t, first.Quantity, second.Quantity)
	assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))
}

func TestUpdateUntouchedFieldsSurvive(t *testing.T) {
	st := New(setupTestDB(t), false)
	ctx := context.Background()

	trade := newUSDTrade("SOL/USDT", "scalp", models.TradeTypeLong, 150, 300, nil, models.NewDate(2024, 5, 3))
	trade.Notes = "watch the funding rate"
	require.NoError(t, st.Create(ctx, trade))

	strategy := "momentum"
	updated, err := st.Update(ctx, trade.ID, TradePatch{Strategy: &strategy})
	require.NoError(t, err)

	assert.Equal(t, "momentum", updated.Strategy)
	assert.Equal(t, "watch the funding rate", updated.Notes)
	assert.Equal(t, "SOL/USDT", updated.Pair)
	assert.InDelta(t, 2.0, updated.Quantity, 1e-9)
}

func TestUpdateEmptyPatch(t *testing.T) {
	st := New(setupTestDB(t), false)

	_, err := st.Update(context.Background(), "any-id", TradePatch{})
	assert.ErrorIs(t, err, ErrEmptyUpdate)
}

func TestUpdateMissing(t *testing.T) {
	st := New(setupTestDB(t), false)

	notes := "ghost"
	_, err := st.Update(context.Background(), "no-such-id", TradePatch{Notes: &notes})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeletePolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("Lenient delete of missing id succeeds", func(t *testing.T) {
		st := New(setupTestDB(t), false)
		assert.NoError(t, st.Delete(ctx, "no-such-id"))
	})

	t.Run("Strict delete of missing id is not found", func(t *testing.T) {
		st := New(setupTestDB(t), true)
		assert.ErrorIs(t, st.Delete(ctx, "no-such-id"), ErrNotFound)
	})

	t.Run("Existing id is removed under both policies", func(t *testing.T) {
		st := New(setupTestDB(t), true)
		trade := newUSDTrade("BTC/USDT", "breakout", models.TradeTypeLong, 45000, 1000, nil, models.NewDate(2024, 5, 1))
		require.NoError(t, st.Create(ctx, trade))
		require.NoError(t, st.Delete(ctx, trade.ID))

		_, err := st.Get(ctx, trade.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func seedListFixture(t *testing.T, st *Store) {
	t.Helper()
	ctx := context.Background()

	exitWin := 47000.0
	exitLoss := 2400.0
	fixtures := []*models.Trade{
		newUSDTrade("BTC/USDT", "breakout", models.TradeTypeLong, 45000, 1000, &exitWin, models.NewDate(2024, 5, 1)),
		newUSDTrade("btc/usdt", "swing", models.TradeTypeShort, 45000, 500, nil, models.NewDate(2024, 5, 10)),
		newUSDTrade("ETH/USDT", "Breakout Retest", models.TradeTypeLong, 2500, 500, &exitLoss, models.NewDate(2024, 6, 1)),
		newUSDTrade("SOL/USDT", "scalp", models.TradeTypeShort, 150, 300, nil, models.NewDate(2024, 6, 15)),
	}
	for _, f := range fixtures {
		require.NoError(t, st.Create(ctx, f))
	}
}

func TestListFilterComposition(t *testing.T) {
	st := New(setupTestDB(t), false)
	seedListFixture(t, st)

	spec := journal.Build(journal.ListParams{Search: "BTC", TradeType: "Long"})
	trades, total, err := st.List(context.Background(), spec)
	require.NoError(t, err)

	assert.Equal(t, int64(1), total)
	require.Len(t, trades, 1)
	assert.Equal(t, "BTC/USDT", trades[0].Pair)
	assert.Equal(t, models.TradeTypeLong, trades[0].TradeType)
}

func TestListCaseInsensitiveSearch(t *testing.T) {
	st := New(setupTestDB(t), false)
	seedListFixture(t, st)

	spec := journal.Build(journal.ListParams{Search: "btc"})
	_, total, err := st.List(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	spec = journal.Build(journal.ListParams{Strategy: "breakout"})
	_, total, err = st.List(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestListDateAndPnlRanges(t *testing.T) {
	st := New(setupTestDB(t), false)
	seedListFixture(t, st)
	ctx := context.Background()

	from := models.NewDate(2024, 6, 1)
	spec := journal.Build(journal.ListParams{DateFrom: &from})
	_, total, err := st.List(ctx, spec)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	// Range bounds are inclusive.
	to := models.NewDate(2024, 6, 1)
	spec = journal.Build(journal.ListParams{DateFrom: &from, DateTo: &to})
	trades, total, err := st.List(ctx, spec)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "ETH/USDT", trades[0].Pair)

	pnlMin := 0.0
	spec = journal.Build(journal.ListParams{PnlMin: &pnlMin})
	trades, _, err = st.List(ctx, spec)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "BTC/USDT", trades[0].Pair)
}

func TestListPaginationWindow(t *testing.T) {
	st := New(setupTestDB(t), false)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		trade := newUSDTrade(fmt.Sprintf("COIN%02d/USDT", i), "grid", models.TradeTypeLong, 100, 100, nil, models.NewDate(2024, 7, 1))
		require.NoError(t, st.Create(ctx, trade))
	}

	spec := journal.Build(journal.ListParams{Page: 3, Limit: 10, SortBy: "pair", SortOrder: "asc"})
	trades, total, err := st.List(ctx, spec)
	require.NoError(t, err)

	// The count query ignores the page window.
	assert.Equal(t, int64(25), total)
	assert.Len(t, trades, 5)
	assert.Equal(t, 3, journal.TotalPages(total, spec.Limit))
	assert.Equal(t, "COIN20/USDT", trades[0].Pair)
}

func TestListSortDirection(t *testing.T) {
	st := New(setupTestDB(t), false)
	seedListFixture(t, st)
	ctx := context.Background()

	spec := journal.Build(journal.ListParams{SortBy: "entry_price", SortOrder: "asc"})
	trades, _, err := st.List(ctx, spec)
	require.NoError(t, err)
	require.NotEmpty(t, trades)
	assert.Equal(t, "SOL/USDT", trades[0].Pair)

	spec = journal.Build(journal.ListParams{SortBy: "entry_price", SortOrder: "desc"})
	trades, _, err = st.List(ctx, spec)
	require.NoError(t, err)
	assert.InDelta(t, 45000, trades[0].EntryPrice, 1e-9)
}

func TestListInvalidSortField(t *testing.T) {
	st := New(setupTestDB(t), false)

	spec := journal.Build(journal.ListParams{SortBy: "drop table trades"})
	_, _, err := st.List(context.Background(), spec)
	assert.ErrorIs(t, err, ErrInvalidSort)
}

func TestClosedTrades(t *testing.T) {
	st := New(setupTestDB(t), false)
	seedListFixture(t, st)

	closed, err := st.ClosedTrades(context.Background())
	require.NoError(t, err)
	assert.Len(t, closed, 2)
	for _, trade := range closed {
		assert.NotNil(t, trade.Pnl)
	}
}
