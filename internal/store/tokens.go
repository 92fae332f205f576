package store

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
)

// RevokeToken adds a token's JTI to the revocation list.
func RevokeToken(ctx context.Context, db sqlx.ExtContext, jti string, expiresAt time.Time) error {
	err := insert(ctx, db, builder(db).Insert("revoked_tokens").
		Rows(goqu.Record{"jti": jti, "expires_at": Timestamp(expiresAt)}).
		OnConflict(goqu.DoNothing()))
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}

	// Expired revocations can never match a valid token.
	query, args, err := builder(db).Delete("revoked_tokens").
		Where(goqu.C("expires_at").Lt(Timestamp(time.Now()))).
		Prepared(true).ToSQL()
	if err == nil {
		_, _ = db.ExecContext(ctx, query, args...)
	}

	return nil
}

// IsTokenRevoked checks if a token's JTI has been revoked.
func IsTokenRevoked(ctx context.Context, db sqlx.ExtContext, jti string) (bool, error) {
	var count int
	_, err := getOne(ctx, db, &count, builder(db).From("revoked_tokens").
		Select(goqu.COUNT("*")).
		Where(goqu.C("jti").Eq(jti)))
	if err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	return count > 0, nil
}
