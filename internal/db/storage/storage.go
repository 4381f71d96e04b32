// Package storage declares the full credential store contract implemented by
// the postgres, file and in-memory backends.
package storage

import (
	"context"
	"database/sql"

	"github.com/patric-chuzhbe/authgate/internal/user"
)

type Storage interface {
	CreateUser(
		ctx context.Context,
		usr *user.User,
		transaction *sql.Tx,
	) (int, error)

	FindUserByUsername(
		ctx context.Context,
		username string,
		transaction *sql.Tx,
	) (*user.User, bool, error)

	FindUserByID(
		ctx context.Context,
		userID int,
		transaction *sql.Tx,
	) (*user.User, bool, error)

	Ping(ctx context.Context) error

	Close() error

	BeginTransaction() (*sql.Tx, error)

	RollbackTransaction(transaction *sql.Tx) error

	CommitTransaction(transaction *sql.Tx) error
}
