// Package jsondb implements the credential store on top of a single JSON
// file. All records live in an in-memory cache which is flushed back to the
// file on Close.
package jsondb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/authgate/internal/models"
	"github.com/patric-chuzhbe/authgate/internal/user"
)

type JSONDB struct {
	fileName string
	mu       sync.RWMutex
	Cache    CacheStruct
}

type CacheStruct struct {
	Users        map[int]*user.User
	UsernameToID map[string]int
	NextUserID   int
}

func (db *JSONDB) CommitTransaction(transaction *sql.Tx) error {
	return nil
}

func (db *JSONDB) RollbackTransaction(transaction *sql.Tx) error {
	return nil
}

func (db *JSONDB) BeginTransaction() (*sql.Tx, error) {
	return nil, nil
}

func initDBFile(fileName string) error {
	dbFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(dbFile, `{
	"Users": {},
	"UsernameToID": {},
	"NextUserID": 1
}`)
	if err != nil {
		return err
	}
	return dbFile.Close()
}

func writeToJSONFile(fileName string, cache interface{}) error {
	jsonData, err := json.MarshalIndent(cache, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %s", err)
	}

	file, err2 := os.OpenFile(fileName, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err2 != nil {
		return fmt.Errorf("error opening file: %s", err2)
	}
	defer file.Close()

	_, err = file.Write(jsonData)
	if err != nil {
		return fmt.Errorf("error writing to file: %s", err)
	}

	return nil
}

func parseJSONFile(fileName string, cacheMap *CacheStruct) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	err = decoder.Decode(cacheMap)
	if err != nil {
		return err
	}

	return nil
}

// New opens (or creates) the JSON database file and loads its contents into
// the cache. NextUserID and the username index are recomputed from the stored
// records, so a file with a stale counter or a dangling index entry still
// behaves consistently.
func New(fileName string) (*JSONDB, error) {
	db := JSONDB{
		fileName: fileName,
		Cache:    CacheStruct{},
	}

	err := parseJSONFile(db.fileName, &db.Cache)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		err := initDBFile(fileName)
		if err != nil {
			return nil, err
		}
		err = parseJSONFile(db.fileName, &db.Cache)
		if err != nil {
			return nil, err
		}
	}

	if db.Cache.Users == nil {
		db.Cache.Users = map[int]*user.User{}
	}

	// The username index is derived state. Rebuild it from the user records,
	// so a hand-edited or truncated file cannot leave index entries pointing
	// at users that no longer exist.
	db.Cache.UsernameToID = make(map[string]int, len(db.Cache.Users))
	for userID, usr := range db.Cache.Users {
		db.Cache.UsernameToID[usr.Username] = userID
	}

	if db.Cache.NextUserID < 1 {
		db.Cache.NextUserID = 1
	}

	userIDs := funk.Keys(db.Cache.Users).([]int)
	if len(userIDs) > 0 && funk.MaxInt(userIDs) >= db.Cache.NextUserID {
		db.Cache.NextUserID = funk.MaxInt(userIDs) + 1
	}

	return &db, nil
}

// CreateUser inserts a new user record into the cache and returns its id.
// A username collision yields models.ErrUsernameTaken.
func (db *JSONDB) CreateUser(ctx context.Context, usr *user.User, transaction *sql.Tx) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.Cache.UsernameToID[usr.Username]; exists {
		return 0, models.ErrUsernameTaken
	}

	userID := db.Cache.NextUserID
	db.Cache.NextUserID++

	db.Cache.Users[userID] = &user.User{
		ID:           userID,
		Username:     usr.Username,
		PasswordHash: usr.PasswordHash,
	}
	db.Cache.UsernameToID[usr.Username] = userID

	return userID, nil
}

// FindUserByUsername performs a point lookup by username.
func (db *JSONDB) FindUserByUsername(
	ctx context.Context,
	username string,
	transaction *sql.Tx,
) (*user.User, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	userID, found := db.Cache.UsernameToID[username]
	if !found {
		return nil, false, nil
	}

	return db.copyUser(db.Cache.Users[userID]), true, nil
}

// FindUserByID performs a point lookup by id.
func (db *JSONDB) FindUserByID(
	ctx context.Context,
	userID int,
	transaction *sql.Tx,
) (*user.User, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	usr, found := db.Cache.Users[userID]
	if !found {
		return nil, false, nil
	}

	return db.copyUser(usr), true, nil
}

func (db *JSONDB) copyUser(usr *user.User) *user.User {
	userCopy := *usr
	return &userCopy
}

func (db *JSONDB) Ping(ctx context.Context) error {
	return nil
}

// Close flushes the cache back to the JSON file.
func (db *JSONDB) Close() error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	err := writeToJSONFile(db.fileName, db.Cache)
	if err != nil {
		return err
	}

	return nil
}
