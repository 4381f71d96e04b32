// Package service implements the credential and session lifecycle:
// hash-on-register, compare-on-login, profile lookup for an authenticated
// user. It talks to the credential store and the password hasher through
// narrow interfaces and maps their failures onto the shared sentinel errors.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/patric-chuzhbe/authgate/internal/models"
	"github.com/patric-chuzhbe/authgate/internal/user"
)

type transactioner interface {
	BeginTransaction() (*sql.Tx, error)

	RollbackTransaction(transaction *sql.Tx) error

	CommitTransaction(transaction *sql.Tx) error
}

type userKeeper interface {
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
}

type hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hashed string) (bool, error)
}

type storage interface {
	userKeeper
	transactioner
}

type Service struct {
	db     storage
	hasher hasher
}

func New(db storage, hasher hasher) *Service {
	return &Service{
		db:     db,
		hasher: hasher,
	}
}

// Register hashes the password and creates the user record inside a storage
// transaction, rolled back on any failure. Nothing is persisted when hashing
// fails. The new user is NOT logged in. A duplicate username surfaces
// models.ErrUsernameTaken.
func (s *Service) Register(ctx context.Context, username, password string) (int, error) {
	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return 0, fmt.Errorf(
			"in internal/service/service.go/Register(): error while `s.hasher.Hash()` calling: %w",
			err,
		)
	}

	tx, err := s.db.BeginTransaction()
	if err != nil {
		return 0, fmt.Errorf(
			"in internal/service/service.go/Register(): error while `s.db.BeginTransaction()` calling: %w",
			err,
		)
	}
	defer func() {
		_ = s.db.RollbackTransaction(tx)
	}()

	userID, err := s.db.CreateUser(
		ctx,
		&user.User{
			Username:     username,
			PasswordHash: passwordHash,
		},
		tx,
	)
	if err != nil {
		if errors.Is(err, models.ErrUsernameTaken) {
			return 0, models.ErrUsernameTaken
		}
		return 0, fmt.Errorf(
			"in internal/service/service.go/Register(): error while `s.db.CreateUser()` calling: %w",
			err,
		)
	}

	if err := s.db.CommitTransaction(tx); err != nil {
		return 0, fmt.Errorf(
			"in internal/service/service.go/Register(): error while `s.db.CommitTransaction()` calling: %w",
			err,
		)
	}

	return userID, nil
}

// Login verifies the credentials and returns the user id to bind the session
// to. An unknown username yields models.ErrUserNotFound; a password that does
// not verify (including a malformed stored hash) yields
// models.ErrIncorrectPassword. The caller stays anonymous on any error.
func (s *Service) Login(ctx context.Context, username, password string) (int, error) {
	usr, found, err := s.db.FindUserByUsername(ctx, username, nil)
	if err != nil {
		return 0, fmt.Errorf(
			"in internal/service/service.go/Login(): error while `s.db.FindUserByUsername()` calling: %w",
			err,
		)
	}
	if !found {
		return 0, models.ErrUserNotFound
	}

	ok, err := s.hasher.Verify(password, usr.PasswordHash)
	if err != nil || !ok {
		return 0, models.ErrIncorrectPassword
	}

	return usr.ID, nil
}

// GetProfile returns the public profile of the given user: id and username,
// never the password hash. models.ErrUserNotFound signals a stale session
// referencing a user that no longer exists; the caller is expected to treat
// that as unauthenticated and destroy the session.
func (s *Service) GetProfile(ctx context.Context, userID int) (models.Profile, error) {
	usr, found, err := s.db.FindUserByID(ctx, userID, nil)
	if err != nil {
		return models.Profile{}, fmt.Errorf(
			"in internal/service/service.go/GetProfile(): error while `s.db.FindUserByID()` calling: %w",
			err,
		)
	}
	if !found {
		return models.Profile{}, models.ErrUserNotFound
	}

	return models.Profile{
		ID:       usr.ID,
		Username: usr.Username,
	}, nil
}
