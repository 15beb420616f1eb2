package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqvault/seqvault/internal/config"
)

func TestDialector(t *testing.T) {
	tests := []struct {
		engine   string
		wantName string
		wantErr  error
	}{
		{engine: config.EngineMySQL, wantName: "mysql"},
		{engine: config.EnginePostgres, wantName: "postgres"},
		{engine: config.EngineSQLite, wantName: "sqlite"},
		{engine: "", wantName: "sqlite"},
		{engine: "oracle", wantErr: ErrUnsupportedEngine},
	}

	for _, tt := range tests {
		t.Run(tt.engine, func(t *testing.T) {
			cfg := &config.Config{DB: config.DB{GormEngine: tt.engine, Name: "seqvault"}}

			dialector, err := Dialector(cfg)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantName, dialector.Name())
		})
	}
}

func TestOpenSQLiteFile(t *testing.T) {
	cfg := &config.Config{DB: config.DB{
		GormEngine: config.EngineSQLite,
		Name:       filepath.Join(t.TempDir(), "seqvault.db"),
	}}

	conn, err := Open(cfg)
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, table := range []string{"datasets", "dataset_permissions", "roles", "users", "user_roles", "settings"} {
		assert.True(t, conn.Migrator().HasTable(table), "missing table %s", table)
	}
}
