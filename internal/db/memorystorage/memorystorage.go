// Package memorystorage provides an in-memory credential store built on the
// jsondb cache. It never touches the filesystem, which makes it the default
// backend and the one used in tests.
package memorystorage

import (
	"context"

	"github.com/patric-chuzhbe/authgate/internal/db/jsondb"
	"github.com/patric-chuzhbe/authgate/internal/user"
)

type MemoryStorage struct {
	*jsondb.JSONDB
}

func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		JSONDB: &jsondb.JSONDB{
			Cache: jsondb.CacheStruct{
				Users:        map[int]*user.User{},
				UsernameToID: map[string]int{},
				NextUserID:   1,
			},
		},
	}, nil
}

func (theStorage *MemoryStorage) Close() error {
	return nil
}

func (theStorage *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}
