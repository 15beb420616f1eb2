package dsn

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/seqvault/seqvault/internal/config"
)

func TestCreate(t *testing.T) {
	db := config.DB{
		Host:     "db.local",
		Port:     3306,
		User:     "seq",
		Password: "pw",
		Name:     "seqvault",
		Extras:   "parseTime=True",
	}

	tests := []struct {
		name    string
		engine  string
		wantDSN string
		wantURI string
	}{
		{
			name:    "mysql",
			engine:  config.EngineMySQL,
			wantDSN: "seq:pw@tcp(db.local:3306)/seqvault?parseTime=True",
			wantURI: "mysql://seq:pw@db.local:3306/seqvault",
		},
		{
			name:    "postgres",
			engine:  config.EnginePostgres,
			wantDSN: "host=db.local port=3306 user=seq password=pw dbname=seqvault parseTime=True",
			wantURI: "postgres://seq:pw@db.local:3306/seqvault",
		},
		{
			name:    "sqlite",
			engine:  config.EngineSQLite,
			wantDSN: "seqvault",
			wantURI: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{DB: db}
			cfg.DB.GormEngine = tt.engine

			assert.Equal(t, tt.wantDSN, Create(cfg))
			assert.Equal(t, tt.wantURI, URI(cfg))
		})
	}
}
