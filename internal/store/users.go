package store

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"github.com/erazemk/izposoja/internal/model"
)

var userColumns = []any{"id", "username", "password_hash", "role", "created_at", "deleted_at"}

// CreateUser creates a new user.
func CreateUser(ctx context.Context, db sqlx.ExtContext, username, passwordHash, role string) (*model.User, error) {
	id := NewID()
	err := insert(ctx, db, builder(db).Insert("users").Rows(goqu.Record{
		"id":            id,
		"username":      username,
		"password_hash": passwordHash,
		"role":          role,
		"created_at":    Timestamp(time.Now()),
	}))
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, db sqlx.ExtContext, id string) (*model.User, error) {
	var u model.User
	found, err := getOne(ctx, db, &u,
		builder(db).From("users").Select(userColumns...).Where(goqu.C("id").Eq(id)))
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &u, nil
}

// GetUserByUsername returns the active user with the given username.
func GetUserByUsername(ctx context.Context, db sqlx.ExtContext, username string) (*model.User, error) {
	var u model.User
	found, err := getOne(ctx, db, &u,
		builder(db).From("users").Select(userColumns...).
			Where(goqu.C("username").Eq(username), goqu.C("deleted_at").IsNull()))
	if err != nil {
		return nil, fmt.Errorf("getting user by username: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &u, nil
}

// ListUsers returns all non-deleted users.
func ListUsers(ctx context.Context, db sqlx.ExtContext) ([]model.User, error) {
	var users []model.User
	err := getAll(ctx, db, &users, builder(db).From("users").Select(userColumns...).
		Where(goqu.C("deleted_at").IsNull()).
		Order(goqu.C("username").Asc()))
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// CountUsers returns the number of non-deleted users.
func CountUsers(ctx context.Context, db sqlx.ExtContext) (int, error) {
	var count int
	_, err := getOne(ctx, db, &count, builder(db).From("users").
		Select(goqu.COUNT("*")).
		Where(goqu.C("deleted_at").IsNull()))
	if err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, db sqlx.ExtContext, id, passwordHash string) error {
	_, err := update(ctx, db, builder(db).Update("users").
		Set(goqu.Record{"password_hash": passwordHash}).
		Where(goqu.C("id").Eq(id), goqu.C("deleted_at").IsNull()))
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	return nil
}

// DeleteUser soft-deletes a user.
func DeleteUser(ctx context.Context, db sqlx.ExtContext, id string) error {
	_, err := update(ctx, db, builder(db).Update("users").
		Set(goqu.Record{"deleted_at": Timestamp(time.Now())}).
		Where(goqu.C("id").Eq(id), goqu.C("deleted_at").IsNull()))
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}
