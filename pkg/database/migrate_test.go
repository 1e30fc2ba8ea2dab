package database

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/music-lessons-api/pkg/config"
)

func TestEmbeddedMigrationsDeclareAllTables(t *testing.T) {
	raw, err := fs.ReadFile(migrations, "migrations/00001_init.sql")
	require.NoError(t, err)

	body := string(raw)
	for _, table := range []string{"accounts", "student_profiles", "teacher_profiles", "lessons", "cancellation_log"} {
		assert.Contains(t, body, "CREATE TABLE IF NOT EXISTS "+table)
	}
	assert.True(t, strings.HasPrefix(body, "-- +goose Up"))
}

func TestMigrateWrapsFailures(t *testing.T) {
	original := gooseUp
	defer func() { gooseUp = original }()

	var dir string
	gooseUp = func(_ context.Context, _ *sql.DB, d string) error {
		dir = d
		return errors.New("boom")
	}

	err := Migrate(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply migrations")
	assert.Equal(t, "migrations", dir)
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "lessons", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=lessons sslmode=disable", dsn)
}
