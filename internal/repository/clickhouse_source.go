package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"MandiPulse/internal/domain/repository"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ClickHouseSource reads the dataset from an analytics table with the same
// columns as the CSV. It is only ever read.
type ClickHouseSource struct {
	db    *sql.DB
	table string
}

var _ repository.PriceSource = (*ClickHouseSource)(nil)

func NewClickHouseSource(db *sql.DB, table string) (*ClickHouseSource, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid clickhouse table name %q", table)
	}
	return &ClickHouseSource{db: db, table: table}, nil
}

func (s *ClickHouseSource) Name() string { return "clickhouse:" + s.table }

// Query is the SELECT used by Rows. Columns are stringified server-side so
// every source shares one cleaning path.
func (s *ClickHouseSource) Query() string {
	return fmt.Sprintf(`SELECT
	toString(commodity), toString(state), toString(district), toString(market),
	toString(price_date), toString(modal_price), toString(min_price), toString(max_price)
FROM %s`, s.table)
}

func (s *ClickHouseSource) Rows(ctx context.Context) ([]repository.RawPrice, error) {
	rows, err := s.db.QueryContext(ctx, s.Query())
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	var out []repository.RawPrice
	for rows.Next() {
		var r repository.RawPrice
		if err := rows.Scan(&r.Commodity, &r.State, &r.District, &r.Market,
			&r.PriceDate, &r.ModalPrice, &r.MinPrice, &r.MaxPrice); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.table, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
