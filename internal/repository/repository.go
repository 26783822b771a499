package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ddiaz-itx/ai-interviewer/pkg"
)

const uniqueViolation = "23505"

// Repository is the Postgres implementation of the interview store and the
// LLM usage ledger. Document text is encrypted before it is written.
type Repository struct {
	db     *pgxpool.Pool
	crypto *pkg.Crypto
}

func NewRepository(db *pgxpool.Pool, crypto *pkg.Crypto) *Repository {
	return &Repository{db: db, crypto: crypto}
}

func (r *Repository) execTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// jsonArg encodes v for a jsonb column, mapping nil pointers to NULL.
func jsonArg[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func jsonScan[T any](raw []byte) (*T, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *Repository) encrypt(s string) (*string, error) {
	if s == "" {
		return nil, nil
	}
	enc, err := r.crypto.Encrypt(s)
	if err != nil {
		return nil, err
	}
	return &enc, nil
}

func (r *Repository) decrypt(s *string) (string, error) {
	if s == nil || *s == "" {
		return "", nil
	}
	return r.crypto.Decrypt(*s)
}
