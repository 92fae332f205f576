package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
)

const jwtSecretKey = "jwt_secret"

// GetJWTSecret returns the token signing secret, generating and storing one
// on first use. Concurrent first calls agree on a single stored value.
func GetJWTSecret(ctx context.Context, db sqlx.ExtContext) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}

	err := insert(ctx, db, builder(db).Insert("settings").
		Rows(goqu.Record{"key": jwtSecretKey, "value": hex.EncodeToString(buf)}).
		OnConflict(goqu.DoNothing()))
	if err != nil {
		return "", fmt.Errorf("storing jwt secret: %w", err)
	}

	var secret string
	found, err := getOne(ctx, db, &secret, builder(db).From("settings").
		Select("value").
		Where(goqu.C("key").Eq(jwtSecretKey)))
	if err != nil {
		return "", fmt.Errorf("querying jwt secret: %w", err)
	}
	if !found {
		return "", fmt.Errorf("querying jwt secret: not stored")
	}

	return secret, nil
}
