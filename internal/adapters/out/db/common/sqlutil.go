// internal/adapters/out/db/common/sqlutil.go
package common

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
)

// RowScanner is the Scan() method shared by *sql.Row and *sql.Rows.
type RowScanner interface {
	Scan(dest ...any) error
}

// IsUniqueViolation detects a PostgreSQL duplicate-key error.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}

// Runner is the interface shared by *sql.DB and *sql.Tx.
type Runner interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// TxKey stores a *sql.Tx in a context.
type TxKey struct{}

func CtxWithTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, TxKey{}, tx)
}

func TxFromCtx(ctx context.Context) *sql.Tx {
	if v := ctx.Value(TxKey{}); v != nil {
		if tx, ok := v.(*sql.Tx); ok {
			return tx
		}
	}
	return nil
}

// GetRunner returns the context transaction when present, otherwise db.
func GetRunner(ctx context.Context, db *sql.DB) Runner {
	if tx := TxFromCtx(ctx); tx != nil {
		return tx
	}
	return db
}

// FromNullString converts sql.NullString to *string (nil when invalid or blank).
func FromNullString(ns sql.NullString) *string {
	if ns.Valid {
		v := strings.TrimSpace(ns.String)
		if v != "" {
			return &v
		}
	}
	return nil
}

// FromNullTime converts sql.NullTime to *time.Time (nil when invalid).
func FromNullTime(nt sql.NullTime) *time.Time {
	if nt.Valid {
		t := nt.Time.UTC()
		return &t
	}
	return nil
}

// ToDBText converts *string to a nullable DB parameter (nil/blank -> NULL).
func ToDBText(p *string) any {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}
	return s
}

// ToDBTime converts *time.Time to a nullable DB parameter (UTC).
func ToDBTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return p.UTC()
}
