package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateStartsAnonymous(t *testing.T) {
	store := NewStore()

	sessionID := store.Create()
	require.NotEmpty(t, sessionID)
	assert.True(t, store.Exists(sessionID))

	_, authenticated := store.UserID(sessionID)
	assert.False(t, authenticated)
}

func TestBindUser(t *testing.T) {
	store := NewStore()
	sessionID := store.Create()

	store.BindUser(sessionID, 42)

	userID, authenticated := store.UserID(sessionID)
	require.True(t, authenticated)
	assert.Equal(t, 42, userID)
}

func TestUserMayHoldSeveralSessions(t *testing.T) {
	store := NewStore()

	first := store.Create()
	second := store.Create()
	store.BindUser(first, 7)
	store.BindUser(second, 7)

	userID, authenticated := store.UserID(first)
	require.True(t, authenticated)
	assert.Equal(t, 7, userID)

	userID, authenticated = store.UserID(second)
	require.True(t, authenticated)
	assert.Equal(t, 7, userID)
}

func TestFlashIsReadOnce(t *testing.T) {
	store := NewStore()
	sessionID := store.Create()

	store.SetFlash(sessionID, "User registered successfully. Please log in.")

	assert.Equal(t, "User registered successfully. Please log in.", store.PopFlash(sessionID))
	assert.Equal(t, "", store.PopFlash(sessionID), "the flash should be cleared on read")
}

func TestUnbindKeepsSessionAndFlash(t *testing.T) {
	store := NewStore()
	sessionID := store.Create()
	store.BindUser(sessionID, 42)

	store.Unbind(sessionID)

	require.True(t, store.Exists(sessionID), "unbinding must not delete the session")
	_, authenticated := store.UserID(sessionID)
	assert.False(t, authenticated)

	store.SetFlash(sessionID, "You must be logged in to access the profile.")
	assert.Equal(t, "You must be logged in to access the profile.", store.PopFlash(sessionID),
		"a flash set after unbinding should still be delivered")
}

func TestDestroy(t *testing.T) {
	store := NewStore()
	sessionID := store.Create()
	store.BindUser(sessionID, 1)

	store.Destroy(sessionID)

	assert.False(t, store.Exists(sessionID))
	_, authenticated := store.UserID(sessionID)
	assert.False(t, authenticated)
}

func TestUnknownSessionIsIgnored(t *testing.T) {
	store := NewStore()

	store.BindUser("no-such-session", 1)
	store.SetFlash("no-such-session", "hello")

	assert.Equal(t, "", store.PopFlash("no-such-session"))
	_, authenticated := store.UserID("no-such-session")
	assert.False(t, authenticated)
}

func TestConcurrentAccess(t *testing.T) {
	store := NewStore()
	sessionID := store.Create()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()
			store.BindUser(sessionID, userID+1)
			store.SetFlash(sessionID, "message")
			store.PopFlash(sessionID)
			store.UserID(sessionID)
		}(i)
	}
	wg.Wait()

	_, authenticated := store.UserID(sessionID)
	assert.True(t, authenticated)
}
