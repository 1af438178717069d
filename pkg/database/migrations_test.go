package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/docflow/migrations"
)

func openMemory(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{Path: MemoryPath}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrator_EmbeddedSchema(t *testing.T) {
	db := openMemory(t)
	m := NewMigrator(db, zap.NewNop())

	require.NoError(t, m.RunMigrationsFS(migrations.FS))

	applied, err := m.AppliedVersions()
	require.NoError(t, err)
	assert.True(t, applied[1])
	assert.True(t, applied[2])

	_, err = db.Exec(`INSERT INTO notifications (level, message) VALUES ('info', 'x')`)
	assert.NoError(t, err)

	// second run is a no-op
	require.NoError(t, m.RunMigrationsFS(migrations.FS))
}

func TestMigrator_OrderAndSkip(t *testing.T) {
	db := openMemory(t)
	m := NewMigrator(db, zap.NewNop())

	fsys := fstest.MapFS{
		"002_add_col.sql": {Data: []byte(`ALTER TABLE t ADD COLUMN b TEXT;`)},
		"001_create.sql":  {Data: []byte(`CREATE TABLE t (a INTEGER);`)},
		"README.md":       {Data: []byte(`ignored`)},
	}
	require.NoError(t, m.RunMigrationsFS(fsys))

	_, err := db.Exec(`INSERT INTO t (a, b) VALUES (1, 'x')`)
	assert.NoError(t, err)
}

func TestMigrator_FailedMigrationRollsBack(t *testing.T) {
	db := openMemory(t)
	m := NewMigrator(db, zap.NewNop())

	err := m.RunMigrationsFS(fstest.MapFS{
		"001_broken.sql": {Data: []byte(`CREATE TABLE ok (a INTEGER); NOT SQL;`)},
	})
	require.Error(t, err)

	applied, err := m.AppliedVersions()
	require.NoError(t, err)
	assert.False(t, applied[1])
}

func TestMigrator_InvalidFileName(t *testing.T) {
	m := NewMigrator(openMemory(t), zap.NewNop())
	err := m.RunMigrationsFS(fstest.MapFS{"init.sql": {Data: []byte(`SELECT 1;`)}})
	assert.Error(t, err)
}

func TestMigrator_DuplicateVersion(t *testing.T) {
	m := NewMigrator(openMemory(t), zap.NewNop())
	err := m.RunMigrationsFS(fstest.MapFS{
		"001_a.sql": {Data: []byte(`SELECT 1;`)},
		"001_b.sql": {Data: []byte(`SELECT 1;`)},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate migration version 1")
}

func TestNew_RequiresPath(t *testing.T) {
	_, err := New(Config{}, zap.NewNop())
	assert.Error(t, err)
}
