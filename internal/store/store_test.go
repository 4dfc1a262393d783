package store

import (
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dosetrack/dosetrack/internal/config"
)

func TestNew_OpensBothBackends(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Storage: config.StorageConfig{
			DataDir:    dir,
			SQLitePath: filepath.Join(dir, "test.db"),
			BadgerPath: filepath.Join(dir, "badger"),
		},
	}

	store, err := New(cfg)
	require.NoError(t, err)
	defer store.Close()

	assert.NotNil(t, store.DB())
	assert.NotNil(t, store.Badger())

	// Both sides accept writes
	type row struct {
		ID   int `gorm:"primaryKey"`
		Name string
	}
	require.NoError(t, store.DB().AutoMigrate(&row{}))
	require.NoError(t, store.DB().Create(&row{Name: "x"}).Error)

	err = store.Badger().Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("k"), []byte("v"))
	})
	require.NoError(t, err)
}

func TestNew_DefaultsPathsFromDataDir(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Storage: config.StorageConfig{DataDir: dir},
	}

	store, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}
