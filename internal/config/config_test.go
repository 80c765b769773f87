package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("SUBMIT_GUARD_TTL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.StorageDriver)
	assert.Equal(t, 2*time.Minute, cfg.SubmitGuardTTL)
	assert.Contains(t, cfg.GetDSN(), "parseTime=true")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "LOCAL")
	t.Setenv("SUBMIT_GUARD_TTL", "30s")
	t.Setenv("TREND_MONTHS_BACK", "12")
	t.Setenv("DB_AUTO_MIGRATE", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.StorageDriver)
	assert.Equal(t, 30*time.Second, cfg.SubmitGuardTTL)
	assert.Equal(t, 12, cfg.TrendMonthsBack)
	assert.False(t, cfg.DBAutoMigrate)
}

func TestLoadRejectsIncompleteOSS(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "oss")
	t.Setenv("OSS_ACCESS_KEY_ID", "")
	t.Setenv("OSS_ACCESS_KEY_SECRET", "")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("STORAGE_DRIVER", "s3")
	_, err = Load()
	assert.Error(t, err)
}

func TestLocationFallsBackToWIB(t *testing.T) {
	cfg := &Config{TimeZone: "Not/AZone"}
	_, offset := time.Date(2025, 5, 1, 0, 0, 0, 0, cfg.Location()).Zone()
	assert.Equal(t, 7*60*60, offset)
}

func TestIsDevelopment(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"development", true},
		{" Development ", true},
		{"production", false},
		{"staging", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			assert.Equal(t, tt.want, (&Config{AppEnv: tt.env}).IsDevelopment())
		})
	}
}

func TestLoadDefaultsToDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadRejectsBootstrapAdminWithoutPassword(t *testing.T) {
	t.Setenv("BOOTSTRAP_ADMIN_EMAIL", "pusat@pondok.id")
	t.Setenv("BOOTSTRAP_ADMIN_PASSWORD", "")

	_, err := Load()
	assert.Error(t, err)
}
