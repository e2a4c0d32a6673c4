package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	require.NotNil(t, cfg)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, DefaultLedger(), cfg.Ledger)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("LEDGER_PER_CREDIT_RATE", 1250.0)
	v.Set("LEDGER_MAX_CREDITS_PER_SEMESTER", 12)
	v.Set("GRADUATION_CORE_COURSE_ID", " INFO 6150 ")
	v.Set("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	v.Set("JWT_EXPIRATION", "not-a-duration")

	cfg := fromViper(v)
	assert.Equal(t, 1250.0, cfg.Ledger.PerCreditRate)
	assert.Equal(t, 12, cfg.Ledger.MaxCreditsPerSemester)
	assert.Equal(t, "INFO 6150", cfg.Ledger.CoreCourseID)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
}

func TestFromViperRejectsNonPositiveLedgerValues(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("LEDGER_PER_CREDIT_RATE", -5)
	v.Set("GRADUATION_CREDITS", 0)

	cfg := fromViper(v)
	assert.Equal(t, 1000.0, cfg.Ledger.PerCreditRate)
	assert.Equal(t, 32, cfg.Ledger.GraduationCredits)
}
