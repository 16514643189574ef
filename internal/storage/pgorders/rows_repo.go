package pgorders

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

const (
	pgUniqueViolation  = "23505"
	pgNotNullViolation = "23502"
	pgCheckViolation   = "23514"
)

func (s *Storage) Select(ctx context.Context, q Query) ([]Row, error) {
	st, err := buildSelect(q)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, st.sql, st.args...)
	if err != nil {
		return nil, errors.Wrap(err, "select "+q.Table)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, errors.Wrap(err, "scan "+q.Table)
	}
	return out, nil
}

// Insert adds all rows in one transaction and returns them as stored.
func (s *Storage) Insert(ctx context.Context, tableName string, items []Row) ([]Row, error) {
	t, err := lookupTable(tableName)
	if err != nil {
		return nil, err
	}
	stmts := make([]statement, 0, len(items))
	for _, it := range items {
		st, err := buildInsert(t, it)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, st)
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	out := make([]Row, 0, len(stmts))
	for _, st := range stmts {
		rows, err := tx.Query(ctx, st.sql, st.args...)
		if err != nil {
			return nil, mapPgError(err, "insert "+tableName)
		}
		got, err := pgx.CollectRows(rows, pgx.RowToMap)
		if err != nil {
			return nil, mapPgError(err, "insert "+tableName)
		}
		out = append(out, got...)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit tx")
	}
	return out, nil
}

func (s *Storage) Update(ctx context.Context, tableName string, filters []Filter, patch Row) ([]Row, error) {
	st, err := buildUpdate(Query{Table: tableName, Filters: filters}, patch)
	if err != nil {
		return nil, err
	}
	return s.collect(ctx, st, "update "+tableName)
}

func (s *Storage) Delete(ctx context.Context, tableName string, filters []Filter) ([]Row, error) {
	st, err := buildDelete(Query{Table: tableName, Filters: filters})
	if err != nil {
		return nil, err
	}
	return s.collect(ctx, st, "delete "+tableName)
}

func (s *Storage) collect(ctx context.Context, st statement, op string) ([]Row, error) {
	rows, err := s.db.Query(ctx, st.sql, st.args...)
	if err != nil {
		return nil, mapPgError(err, op)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, mapPgError(err, op)
	}
	return out, nil
}

func mapPgError(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return errors.Wrap(ErrConflict, pgErr.Message)
		case pgNotNullViolation, pgCheckViolation:
			return errors.Wrap(ErrInvalidValue, pgErr.Message)
		}
	}
	return errors.Wrap(err, op)
}
