package excel

import (
	"context"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxDataSource streams the result set of one SQL query from a pgx pool.
type PgxDataSource struct {
	pool  *pgxpool.Pool
	query string
	args  []any
	sheet string
}

func NewPgxDataSource(pool *pgxpool.Pool, query string, args ...any) *PgxDataSource {
	return &PgxDataSource{
		pool:  pool,
		query: query,
		args:  args,
	}
}

// WithSheetName overrides the default worksheet name and returns the data
// source for chaining.
func (ds *PgxDataSource) WithSheetName(name string) *PgxDataSource {
	ds.sheet = name
	return ds
}

func (ds *PgxDataSource) SheetName() string {
	return ds.sheet
}

func (ds *PgxDataSource) Open(ctx context.Context) ([]string, RowIterator, error) {
	rows, err := ds.pool.Query(ctx, ds.query, ds.args...)
	if err != nil {
		return nil, nil, fmt.Errorf("excel: query: %w", err)
	}
	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
	}
	return columns, &pgxRowIterator{rows: rows}, nil
}

type pgxRowIterator struct {
	rows pgx.Rows
}

func (it *pgxRowIterator) Next() ([]any, error) {
	if it.rows.Next() {
		return it.rows.Values()
	}
	if err := it.rows.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (it *pgxRowIterator) Close() {
	it.rows.Close()
}
