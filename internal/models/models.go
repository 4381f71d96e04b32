// Package models contains shared request/response types, sentinel errors
// and storage type constants used across the service and router layers.
package models

import "errors"

// CredentialsForm carries the username/password pair posted by the
// registration and login forms.
type CredentialsForm struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

// Profile is the public view of a user returned by the profile page.
// It intentionally contains no password material.
type Profile struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

const (
	StorageTypeUnknown = iota
	StorageTypePostgresql
	StorageTypeFile
	StorageTypeMemory
)

// ErrUserNotFound is returned when no user matches the requested username or id.
var ErrUserNotFound = errors.New("user not found")

// ErrIncorrectPassword is returned when the supplied password does not verify
// against the stored hash.
var ErrIncorrectPassword = errors.New("incorrect password")

// ErrUsernameTaken is returned when registration collides with an existing username.
var ErrUsernameTaken = errors.New("username already taken")
