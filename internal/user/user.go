// Package user defines the user model used throughout the application,
// particularly for registration, credential verification and profile rendering.
package user

// User represents a registered account.
// PasswordHash holds the salted one-way hash of the password and must never
// leave the storage and service layers.
type User struct {
	// ID is the unique identifier of the user, assigned by the storage on creation.
	ID int

	// Username is the login name chosen at registration. Case-sensitive.
	Username string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string
}
