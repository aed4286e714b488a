package repository

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// normalizePage clamps pagination input and returns the effective page, size and offset.
func normalizePage(page, size int) (int, int, uint64) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size, uint64((page - 1) * size)
}

func selectBuilt(ctx context.Context, db sqlx.QueryerContext, dest interface{}, builder sq.Sqlizer) error {
	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return sqlx.SelectContext(ctx, db, dest, query, args...)
}

func countBuilt(ctx context.Context, db sqlx.QueryerContext, builder sq.Sqlizer) (int, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}
	var total int
	if err := sqlx.GetContext(ctx, db, &total, query, args...); err != nil {
		return 0, err
	}
	return total, nil
}

// expectAffected converts a zero-row conditional update into sql.ErrNoRows.
func expectAffected(result sql.Result, what string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check %s rows: %w", what, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
