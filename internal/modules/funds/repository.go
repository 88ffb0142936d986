package funds

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/aristath/navreturns/internal/database"
	"github.com/rs/zerolog"
)

var schemeColumns = []string{
	"scheme_code", "scheme_name", "amc", "type", "category", "subcategory", "plan", "option",
}

// Repository handles scheme metadata persistence in fund_metadata and filter_cache
type Repository struct {
	db  *sql.DB
	sq  squirrel.StatementBuilderType
	log zerolog.Logger
}

// NewRepository creates a new scheme repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		log: log.With().Str("repo", "funds").Logger(),
	}
}

// UpsertSchemes inserts or updates schemes in a single transaction
func (r *Repository) UpsertSchemes(schemes []Scheme) (int, error) {
	if len(schemes) == 0 {
		return 0, nil
	}

	now := time.Now().Unix()
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO fund_metadata (scheme_code, scheme_name, amc, type, category, subcategory, plan, option, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(scheme_code) DO UPDATE SET
				scheme_name = excluded.scheme_name,
				amc = excluded.amc,
				type = excluded.type,
				category = excluded.category,
				subcategory = excluded.subcategory,
				plan = excluded.plan,
				option = excluded.option,
				updated_at = excluded.updated_at
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare upsert: %w", err)
		}
		defer stmt.Close()

		for _, s := range schemes {
			if s.Type == "" {
				s.Type = InstrumentType(s.SubCategory)
			}
			if _, err := stmt.Exec(s.Code, s.Name, s.AMC, s.Type, s.Category, s.SubCategory, s.Plan, s.Option, now); err != nil {
				return fmt.Errorf("failed to upsert scheme %s: %w", s.Code, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.log.Info().Int("count", len(schemes)).Msg("Scheme metadata upserted")
	return len(schemes), nil
}

// Count returns the number of known schemes
func (r *Repository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM fund_metadata").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count schemes: %w", err)
	}
	return count, nil
}

// Get returns a scheme by code, or nil if it is unknown
func (r *Repository) Get(code string) (*Scheme, error) {
	query, args, err := r.sq.Select(schemeColumns...).
		From("fund_metadata").
		Where(squirrel.Eq{"scheme_code": code}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	s, err := scanScheme(r.db.QueryRow(query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scheme %s: %w", code, err)
	}
	return s, nil
}

// Codes returns scheme codes in a stable order, for cursor-based batch processing
func (r *Repository) Codes(limit, offset int) ([]string, error) {
	rows, err := r.db.Query(
		"SELECT scheme_code FROM fund_metadata ORDER BY scheme_code LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list scheme codes: %w", err)
	}
	defer rows.Close()

	codes := make([]string, 0, limit)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan scheme code: %w", err)
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// Search returns schemes matching the filter, ordered by name.
// Multi-valued filters match case-insensitive substrings of any value.
// Plan filters are ignored for ETFs.
func (r *Repository) Search(f Filter) ([]Scheme, error) {
	schemeType := NormalizeType(f.Type)

	q := r.sq.Select(schemeColumns...).
		From("fund_metadata").
		Where(typeClause(schemeType)).
		OrderBy("scheme_name", "scheme_code")

	for column, values := range map[string][]string{
		"amc":         f.AMCs,
		"category":    f.Categories,
		"subcategory": f.SubCategories,
		"option":      f.Options,
	} {
		if clause := likeAny(column, values); clause != nil {
			q = q.Where(clause)
		}
	}
	if schemeType != TypeETF {
		if clause := likeAny("plan", f.Plans); clause != nil {
			q = q.Where(clause)
		}
	}

	if term := strings.ToLower(strings.TrimSpace(f.Query)); term != "" {
		pattern := "%" + term + "%"
		q = q.Where(squirrel.Or{
			squirrel.Like{"LOWER(scheme_name)": pattern},
			squirrel.Like{"LOWER(amc)": pattern},
			squirrel.Like{"LOWER(category)": pattern},
			squirrel.Like{"LOWER(subcategory)": pattern},
		})
	}

	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build search query: %w", err)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search schemes: %w", err)
	}
	defer rows.Close()

	schemes := make([]Scheme, 0)
	for rows.Next() {
		s, err := scanScheme(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scheme: %w", err)
		}
		schemes = append(schemes, *s)
	}
	return schemes, rows.Err()
}

// Stats computes counts and dropdown values for a type, optionally narrowed by exact plan and option
func (r *Repository) Stats(schemeType, plan, option string) (*Stats, error) {
	schemeType = NormalizeType(schemeType)

	where := squirrel.And{typeClause(schemeType)}
	if plan != "" && schemeType != TypeETF {
		where = append(where, squirrel.Eq{"LOWER(plan)": strings.ToLower(plan)})
	}
	if option != "" {
		where = append(where, squirrel.Eq{"LOWER(option)": strings.ToLower(option)})
	}

	query, args, err := r.sq.Select(
		"COUNT(*)",
		fmt.Sprintf("COALESCE(SUM(CASE WHEN type = '%s' THEN 1 ELSE 0 END), 0)", TypeMutualFund),
		fmt.Sprintf("COALESCE(SUM(CASE WHEN type = '%s' THEN 1 ELSE 0 END), 0)", TypeETF),
	).From("fund_metadata").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build stats query: %w", err)
	}

	stats := &Stats{}
	if err := r.db.QueryRow(query, args...).Scan(&stats.Total, &stats.MutualFunds, &stats.ETFs); err != nil {
		return nil, fmt.Errorf("failed to count schemes: %w", err)
	}

	for column, dest := range map[string]*[]string{
		"amc":         &stats.AMCs,
		"category":    &stats.Categories,
		"subcategory": &stats.SubCategories,
		"plan":        &stats.Plans,
		"option":      &stats.Options,
	} {
		values, err := r.distinct(column, where)
		if err != nil {
			return nil, err
		}
		*dest = values
	}

	return stats, nil
}

// DependentFilters returns the categories, sub-categories, plans and options
// remaining once AMCs and categories are chosen
func (r *Repository) DependentFilters(schemeType string, amcs, categories []string) (*DependentFilters, error) {
	where := squirrel.And{typeClause(NormalizeType(schemeType))}
	if clause := likeAny("amc", amcs); clause != nil {
		where = append(where, clause)
	}
	if clause := likeAny("category", categories); clause != nil {
		where = append(where, clause)
	}

	result := &DependentFilters{}
	for column, dest := range map[string]*[]string{
		"category":    &result.Categories,
		"subcategory": &result.SubCategories,
		"plan":        &result.Plans,
		"option":      &result.Options,
	} {
		values, err := r.distinct(column, where)
		if err != nil {
			return nil, err
		}
		*dest = values
	}
	return result, nil
}

// StoreFilterCache persists precomputed stats for a type
func (r *Repository) StoreFilterCache(schemeType string, stats *Stats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal filter cache: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO filter_cache (type, data_json, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(type) DO UPDATE SET data_json = excluded.data_json, updated_at = excluded.updated_at
	`, NormalizeType(schemeType), string(data), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to store filter cache: %w", err)
	}
	return nil
}

// GetFilterCache returns cached stats for a type, or nil if none are stored
func (r *Repository) GetFilterCache(schemeType string) (*Stats, error) {
	var data string
	err := r.db.QueryRow("SELECT data_json FROM filter_cache WHERE type = ?", NormalizeType(schemeType)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read filter cache: %w", err)
	}

	var stats Stats
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		return nil, fmt.Errorf("failed to decode filter cache: %w", err)
	}
	return &stats, nil
}

// RebuildFilterCache recomputes cached stats for both instrument types
func (r *Repository) RebuildFilterCache() error {
	for _, t := range []string{TypeMutualFund, TypeETF} {
		stats, err := r.Stats(t, "", "")
		if err != nil {
			return err
		}
		if err := r.StoreFilterCache(t, stats); err != nil {
			return err
		}
	}
	r.log.Info().Msg("Filter cache rebuilt")
	return nil
}

func (r *Repository) distinct(column string, where squirrel.Sqlizer) ([]string, error) {
	query, args, err := r.sq.Select("DISTINCT " + column).
		From("fund_metadata").
		Where(where).
		Where(squirrel.NotEq{column: ""}).
		OrderBy(column).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build distinct query: %w", err)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list distinct %s: %w", column, err)
	}
	defer rows.Close()

	values := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", column, err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// typeClause restricts to one instrument type; ETFs must also carry the ETF option
func typeClause(schemeType string) squirrel.Sqlizer {
	if schemeType == TypeETF {
		return squirrel.And{
			squirrel.Eq{"LOWER(type)": "etf"},
			squirrel.Eq{"LOWER(option)": "etf"},
		}
	}
	return squirrel.Eq{"LOWER(type)": strings.ToLower(TypeMutualFund)}
}

func likeAny(column string, values []string) squirrel.Sqlizer {
	var or squirrel.Or
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		or = append(or, squirrel.Like{"LOWER(" + column + ")": "%" + v + "%"})
	}
	if len(or) == 0 {
		return nil
	}
	return or
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanScheme(row rowScanner) (*Scheme, error) {
	var s Scheme
	if err := row.Scan(&s.Code, &s.Name, &s.AMC, &s.Type, &s.Category, &s.SubCategory, &s.Plan, &s.Option); err != nil {
		return nil, err
	}
	return &s, nil
}
