package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/authgate/internal/mockstorage"
	"github.com/patric-chuzhbe/authgate/internal/models"
	"github.com/patric-chuzhbe/authgate/internal/passhash"
	"github.com/patric-chuzhbe/authgate/internal/user"
)

func newTestService(storageMock *mockstorage.StorageMock) *Service {
	return New(storageMock, passhash.New(passhash.DefaultCost))
}

func TestRegisterStoresHashNotPlaintext(t *testing.T) {
	storageMock := &mockstorage.StorageMock{}
	svc := newTestService(storageMock)

	storageMock.On("BeginTransaction").Return(nil, nil)
	storageMock.On("CommitTransaction", mock.Anything).Return(nil)
	storageMock.On("RollbackTransaction", mock.Anything).Return(nil)

	var storedUser *user.User
	storageMock.
		On("CreateUser", mock.Anything, mock.AnythingOfType("*user.User"), mock.Anything).
		Run(func(args mock.Arguments) {
			storedUser = args.Get(1).(*user.User)
		}).
		Return(1, nil)

	userID, err := svc.Register(context.Background(), "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, 1, userID)

	require.NotNil(t, storedUser)
	assert.Equal(t, "alice", storedUser.Username)
	assert.NotEqual(t, "secret1", storedUser.PasswordHash, "the plaintext must never be persisted")

	ok, err := passhash.New(passhash.DefaultCost).Verify("secret1", storedUser.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok, "the stored hash should verify against the original password")

	storageMock.AssertExpectations(t)
	storageMock.AssertCalled(t, "CommitTransaction", mock.Anything)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	storageMock := &mockstorage.StorageMock{}
	svc := newTestService(storageMock)

	storageMock.On("BeginTransaction").Return(nil, nil)
	storageMock.On("RollbackTransaction", mock.Anything).Return(nil)
	storageMock.
		On("CreateUser", mock.Anything, mock.Anything, mock.Anything).
		Return(0, models.ErrUsernameTaken)

	_, err := svc.Register(context.Background(), "alice", "secret1")
	assert.ErrorIs(t, err, models.ErrUsernameTaken)

	storageMock.AssertCalled(t, "RollbackTransaction", mock.Anything)
	storageMock.AssertNotCalled(t, "CommitTransaction", mock.Anything)
}

func TestRegisterStorageFailure(t *testing.T) {
	storageMock := &mockstorage.StorageMock{}
	svc := newTestService(storageMock)

	storageMock.On("BeginTransaction").Return(nil, nil)
	storageMock.On("RollbackTransaction", mock.Anything).Return(nil)
	storageMock.
		On("CreateUser", mock.Anything, mock.Anything, mock.Anything).
		Return(0, errors.New("disk on fire"))

	_, err := svc.Register(context.Background(), "alice", "secret1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrUsernameTaken)

	storageMock.AssertNotCalled(t, "CommitTransaction", mock.Anything)
}

func TestRegisterBeginTransactionFailure(t *testing.T) {
	storageMock := &mockstorage.StorageMock{}
	svc := newTestService(storageMock)

	storageMock.On("BeginTransaction").Return(nil, errors.New("too many connections"))

	_, err := svc.Register(context.Background(), "alice", "secret1")
	require.Error(t, err)

	storageMock.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestLoginSuccess(t *testing.T) {
	storageMock := &mockstorage.StorageMock{}
	svc := newTestService(storageMock)

	passwordHash, err := passhash.New(passhash.DefaultCost).Hash("secret1")
	require.NoError(t, err)

	storageMock.
		On("FindUserByUsername", mock.Anything, "alice", mock.Anything).
		Return(&user.User{ID: 42, Username: "alice", PasswordHash: passwordHash}, true, nil)

	userID, err := svc.Login(context.Background(), "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, 42, userID)
}

func TestLoginUnknownUsername(t *testing.T) {
	storageMock := &mockstorage.StorageMock{}
	svc := newTestService(storageMock)

	storageMock.
		On("FindUserByUsername", mock.Anything, "nobody", mock.Anything).
		Return(nil, false, nil)

	_, err := svc.Login(context.Background(), "nobody", "secret1")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestLoginWrongPassword(t *testing.T) {
	storageMock := &mockstorage.StorageMock{}
	svc := newTestService(storageMock)

	passwordHash, err := passhash.New(passhash.DefaultCost).Hash("secret1")
	require.NoError(t, err)

	storageMock.
		On("FindUserByUsername", mock.Anything, "alice", mock.Anything).
		Return(&user.User{ID: 42, Username: "alice", PasswordHash: passwordHash}, true, nil)

	_, err = svc.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, models.ErrIncorrectPassword)
}

func TestLoginMalformedStoredHash(t *testing.T) {
	storageMock := &mockstorage.StorageMock{}
	svc := newTestService(storageMock)

	storageMock.
		On("FindUserByUsername", mock.Anything, "alice", mock.Anything).
		Return(&user.User{ID: 42, Username: "alice", PasswordHash: "garbage"}, true, nil)

	_, err := svc.Login(context.Background(), "alice", "secret1")
	assert.ErrorIs(t, err, models.ErrIncorrectPassword, "a broken stored hash should read as a failed login, not a crash")
}

func TestLoginStorageFailure(t *testing.T) {
	storageMock := &mockstorage.StorageMock{}
	svc := newTestService(storageMock)

	storageMock.
		On("FindUserByUsername", mock.Anything, "alice", mock.Anything).
		Return(nil, false, errors.New("connection refused"))

	_, err := svc.Login(context.Background(), "alice", "secret1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrUserNotFound)
	assert.NotErrorIs(t, err, models.ErrIncorrectPassword)
}

func TestGetProfileNeverExposesHash(t *testing.T) {
	storageMock := &mockstorage.StorageMock{}
	svc := newTestService(storageMock)

	storageMock.
		On("FindUserByID", mock.Anything, 42, mock.Anything).
		Return(&user.User{ID: 42, Username: "alice", PasswordHash: "hash"}, true, nil)

	profile, err := svc.GetProfile(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, models.Profile{ID: 42, Username: "alice"}, profile)
}

func TestGetProfileStaleSession(t *testing.T) {
	storageMock := &mockstorage.StorageMock{}
	svc := newTestService(storageMock)

	storageMock.
		On("FindUserByID", mock.Anything, 100500, mock.Anything).
		Return(nil, false, nil)

	_, err := svc.GetProfile(context.Background(), 100500)
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}
