package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hawkmon/hawkmon/internal/audit"
	"github.com/hawkmon/hawkmon/internal/config"
	"github.com/hawkmon/hawkmon/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	var err error

	var db *gorm.DB
	db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.UserGroup{},
		&models.UserGroupMember{},
		&models.UserDirectory{},
		&models.DirectoryGroupMapping{},
		&models.DirectoryMediaMapping{},
		&models.MediaType{},
		&models.Media{},
		&models.Session{},
		&models.Token{},
	)
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func testAuthConfig() *config.Auth {
	return &config.Auth{
		DefaultAuth:          config.DefaultAuthInternal,
		CaseSensitiveLogin:   true,
		LoginAttempts:        5,
		LoginBlock:           30 * time.Second,
		ProvisionInterval:    time.Hour,
		DeprovisionedGroupID: 0,
	}
}

// fakeDirectory is a directory client driven entirely by test data.
type fakeDirectory struct {
	password   string
	attrs      *AttributeSet
	bindErr    error
	fetchErr   error
	searchable bool

	bindCalls  int
	fetchCalls int
}

func (f *fakeDirectory) Bind(_ context.Context, username, password string) (*AttributeSet, error) {
	f.bindCalls++

	if f.bindErr != nil {
		return nil, f.bindErr
	}

	if password == "" || password != f.password {
		return nil, ErrBindFailed
	}

	attrs := f.attrs
	if attrs == nil {
		attrs = &AttributeSet{Username: username}
	}

	return attrs, nil
}

func (f *fakeDirectory) FetchAttributes(_ context.Context, username string) (*AttributeSet, error) {
	f.fetchCalls++

	if f.fetchErr != nil {
		return nil, f.fetchErr
	}

	attrs := f.attrs
	if attrs == nil {
		attrs = &AttributeSet{Username: username}
	}

	return attrs, nil
}

func (f *fakeDirectory) CanSearch() bool {
	return f.searchable
}

// fakeFactory hands out the same fake client for every directory.
func fakeFactory(client DirectoryClient) ClientFactory {
	return func(_ *models.UserDirectory) (DirectoryClient, error) {
		return client, nil
	}
}

func newTestService(t *testing.T, db *gorm.DB, cfg *config.Auth, client DirectoryClient) *Service {
	t.Helper()

	if client == nil {
		client = &fakeDirectory{}
	}

	return NewService(db, cfg, fakeFactory(client), audit.ZerologSink{})
}
