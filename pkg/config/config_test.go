package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("QUOTA_FREE_DAILY", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg := Load()

	assert.Equal(t, 8, cfg.Quota.FreeDaily)
	assert.Equal(t, 20, cfg.Quota.PremiumDaily)
	assert.Equal(t, []string{"premium"}, cfg.Quota.PremiumPlanIDs)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.DefaultModel)
	assert.Equal(t, int64(1000), cfg.OpenAI.MaxTokens)
	assert.InDelta(t, 0.7, cfg.OpenAI.Temperature, 1e-9)
	assert.Equal(t, 60*time.Second, cfg.OpenAI.Timeout)
	assert.Equal(t, 20, cfg.Quota.HistoryLimit)
	assert.Equal(t, 50, cfg.Quota.TitleMaxLength)
	assert.Empty(t, cfg.OpenAI.APIKey)
	assert.False(t, cfg.Quota.Strict)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PREMIUM_PLAN_IDS", "pro, premium_yearly ,")
	t.Setenv("QUOTA_STRICT", "true")
	t.Setenv("OPENAI_TIMEOUT", "15s")
	t.Setenv("APP_ENV", "production")

	cfg := Load()

	assert.Equal(t, []string{"pro", "premium_yearly"}, cfg.Quota.PremiumPlanIDs)
	assert.True(t, cfg.Quota.Strict)
	assert.Equal(t, 15*time.Second, cfg.OpenAI.Timeout)
	assert.True(t, cfg.IsProduction())
}

func TestLocation(t *testing.T) {
	cfg := Load()

	cfg.Quota.Timezone = "Local"
	assert.Equal(t, time.Local, cfg.Location())

	cfg.Quota.Timezone = "UTC"
	assert.Equal(t, "UTC", cfg.Location().String())

	cfg.Quota.Timezone = "Not/AZone"
	assert.Equal(t, time.Local, cfg.Location())
}

func TestDSN(t *testing.T) {
	cfg := Load()
	cfg.Database.Host = "db"
	cfg.Database.Port = "6543"
	cfg.Database.User = "svc"
	cfg.Database.Password = "pw"
	cfg.Database.Name = "membership"
	cfg.Database.SSLMode = "require"
	cfg.Database.Timeout = 3 * time.Second

	assert.Equal(t, "host=db port=6543 user=svc password=pw dbname=membership sslmode=require connect_timeout=3", cfg.DSN())
}
