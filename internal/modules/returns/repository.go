package returns

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"
)

// CachedReturns is a stored computation for one scheme
type CachedReturns struct {
	Code       string       `json:"code"`
	SchemeName string       `json:"scheme_name"`
	Type       string       `json:"type"`
	Plan       string       `json:"plan"`
	Option     string       `json:"option"`
	Results    ReturnResult `json:"results"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// TopQuery selects the best performers per category
type TopQuery struct {
	Type       string
	Categories []string
	SortBy     string
	Plan       string
	Option     string
	PerGroup   int
}

// TopPerformer is one ranked scheme
type TopPerformer struct {
	Code       string  `json:"scheme_code"`
	SchemeName string  `json:"scheme_name"`
	Category   string  `json:"category"`
	Return     float64 `json:"return"`
}

// Repository persists computed returns in fund_returns
type Repository struct {
	db  *sql.DB
	sq  squirrel.StatementBuilderType
	log zerolog.Logger
}

// NewRepository creates a new returns repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		log: log.With().Str("repo", "returns").Logger(),
	}
}

// Store replaces the stored computation for a scheme
func (r *Repository) Store(rec CachedReturns) error {
	results, err := json.Marshal(rec.Results)
	if err != nil {
		return fmt.Errorf("failed to marshal results for %s: %w", rec.Code, err)
	}
	approx := rec.Results.Approximate()
	if approx == nil {
		approx = []string{}
	}
	approxJSON, err := json.Marshal(approx)
	if err != nil {
		return fmt.Errorf("failed to marshal approximate horizons for %s: %w", rec.Code, err)
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}

	_, err = r.db.Exec(`
		INSERT INTO fund_returns (scheme_code, scheme_name, type, plan, option, results_json, approximate_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(scheme_code) DO UPDATE SET
			scheme_name = excluded.scheme_name,
			type = excluded.type,
			plan = excluded.plan,
			option = excluded.option,
			results_json = excluded.results_json,
			approximate_json = excluded.approximate_json,
			updated_at = excluded.updated_at
	`, rec.Code, rec.SchemeName, rec.Type, rec.Plan, rec.Option, string(results), string(approxJSON), rec.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to store returns for %s: %w", rec.Code, err)
	}

	return nil
}

// Get returns the stored computation for a scheme, or nil if none exists
func (r *Repository) Get(code string) (*CachedReturns, error) {
	var (
		rec        CachedReturns
		results    string
		approxJSON string
		updatedAt  int64
	)
	err := r.db.QueryRow(`
		SELECT scheme_code, scheme_name, type, plan, option, results_json, approximate_json, updated_at
		FROM fund_returns WHERE scheme_code = ?
	`, code).Scan(&rec.Code, &rec.SchemeName, &rec.Type, &rec.Plan, &rec.Option, &results, &approxJSON, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get returns for %s: %w", code, err)
	}

	if err := json.Unmarshal([]byte(results), &rec.Results); err != nil {
		return nil, fmt.Errorf("corrupt results for %s: %w", code, err)
	}
	var approx []string
	if err := json.Unmarshal([]byte(approxJSON), &approx); err == nil && len(approx) > 0 {
		rec.Results.SetApproximate(approx)
	}
	rec.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return &rec, nil
}

// Count returns the number of stored computations
func (r *Repository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM fund_returns").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count returns: %w", err)
	}
	return count, nil
}

// TopPerformers ranks schemes within each category by one horizon's return.
// Schemes whose horizon value is null are excluded.
func (r *Repository) TopPerformers(q TopQuery) ([]TopPerformer, error) {
	if q.SortBy == "" {
		return nil, fmt.Errorf("sort horizon is required")
	}
	if q.PerGroup <= 0 {
		q.PerGroup = 2
	}

	path := fmt.Sprintf(`$."%s"`, q.SortBy)
	inner := r.sq.Select("fr.scheme_code", "fm.scheme_name", "fm.category").
		Column("CAST(json_extract(fr.results_json, ?) AS REAL) AS return_value", path).
		Column("ROW_NUMBER() OVER (PARTITION BY fm.category ORDER BY CAST(json_extract(fr.results_json, ?) AS REAL) DESC) AS rn", path).
		From("fund_returns fr").
		Join("fund_metadata fm ON fr.scheme_code = fm.scheme_code").
		Where("json_extract(fr.results_json, ?) IS NOT NULL", path)

	if q.Type != "" {
		inner = inner.Where(squirrel.Eq{"LOWER(fm.type)": strings.ToLower(q.Type)})
	}
	if len(q.Categories) > 0 {
		inner = inner.Where(squirrel.Eq{"fm.category": q.Categories})
	}
	if q.Plan != "" {
		inner = inner.Where(squirrel.Eq{"LOWER(fm.plan)": strings.ToLower(q.Plan)})
	}
	if q.Option != "" {
		inner = inner.Where(squirrel.Eq{"LOWER(fm.option)": strings.ToLower(q.Option)})
	}

	query, args, err := r.sq.Select("scheme_code", "scheme_name", "category", "ROUND(return_value, 2)").
		FromSelect(inner, "ranked").
		Where(squirrel.LtOrEq{"rn": q.PerGroup}).
		OrderBy("category", "rn").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build top performers query: %w", err)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query top performers: %w", err)
	}
	defer rows.Close()

	performers := make([]TopPerformer, 0)
	for rows.Next() {
		var p TopPerformer
		if err := rows.Scan(&p.Code, &p.SchemeName, &p.Category, &p.Return); err != nil {
			return nil, fmt.Errorf("failed to scan top performer: %w", err)
		}
		performers = append(performers, p)
	}
	return performers, rows.Err()
}
