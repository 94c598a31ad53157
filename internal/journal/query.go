package journal

import (
	"strings"

	"crypto-journal-go/internal/models"
)

// List defaults and bounds.
const (
	DefaultSortField = "created_at"
	DefaultLimit     = 10
	MaxLimit         = 100
)

// Op is a predicate operator in a backend-agnostic query.
type Op int

const (
	// OpContains is a case-insensitive substring match.
	OpContains Op = iota
	// OpEq is an exact match.
	OpEq
	// OpGte is an inclusive lower bound.
	OpGte
	// OpLte is an inclusive upper bound.
	OpLte
)

// Predicate is one independent filter condition. All predicates of a Spec
// combine conjunctively.
type Predicate struct {
	Field string
	Op    Op
	Value interface{}
}

// Spec is the normalized, storage-independent description of a listing:
// filters, one sort key, and a pagination window. The repository translates
// it into whatever its backend speaks.
type Spec struct {
	Predicates []Predicate
	SortBy     string
	SortDesc   bool
	Offset     int
	Limit      int
}

// ListParams are the recognized query options of the trade listing endpoint.
// Zero values mean "no constraint".
type ListParams struct {
	Search    string
	Strategy  string
	TradeType string
	DateFrom  *models.Date
	DateTo    *models.Date
	PnlMin    *float64
	PnlMax    *float64
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

// Build turns the recognized options into a Spec. Absent options impose no
// predicate. The sort field is passed through verbatim; validating it against
// the actual column set is the repository's job.
func Build(p ListParams) Spec {
	var preds []Predicate

	if p.Search != "" {
		preds = append(preds, Predicate{Field: "pair", Op: OpContains, Value: p.Search})
	}
	if p.Strategy != "" {
		preds = append(preds, Predicate{Field: "strategy", Op: OpContains, Value: p.Strategy})
	}
	if p.TradeType != "" {
		preds = append(preds, Predicate{Field: "trade_type", Op: OpEq, Value: p.TradeType})
	}
	if p.DateFrom != nil {
		preds = append(preds, Predicate{Field: "trade_date", Op: OpGte, Value: *p.DateFrom})
	}
	if p.DateTo != nil {
		preds = append(preds, Predicate{Field: "trade_date", Op: OpLte, Value: *p.DateTo})
	}
	if p.PnlMin != nil {
		preds = append(preds, Predicate{Field: "pnl", Op: OpGte, Value: *p.PnlMin})
	}
	if p.PnlMax != nil {
		preds = append(preds, Predicate{Field: "pnl", Op: OpLte, Value: *p.PnlMax})
	}

	page := p.Page
	if page < 1 {
		page = 1
	}
	limit := p.Limit
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	sortBy := p.SortBy
	if sortBy == "" {
		sortBy = DefaultSortField
	}

	return Spec{
		Predicates: preds,
		SortBy:     sortBy,
		SortDesc:   !strings.EqualFold(p.SortOrder, "asc"),
		Offset:     (page - 1) * limit,
		Limit:      limit,
	}
}

// TotalPages computes the page count for a result set. An empty set has
// zero pages.
func TotalPages(total int64, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
