package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HTTP_PORT", "")
	t.Setenv("HATEOAS_ENABLED", "")
	t.Setenv("BREAKER_OPEN_TIMEOUT", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "users.events", cfg.UsersExchange)
	assert.False(t, cfg.HATEOASEnabled)
	assert.True(t, cfg.BreakerEnabled)
	assert.Equal(t, uint32(5), cfg.BreakerFailureThreshold)
	assert.Equal(t, 30*time.Second, cfg.BreakerOpenTimeout)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("HATEOAS_ENABLED", "true")
	t.Setenv("BREAKER_FAILURE_THRESHOLD", "2")
	t.Setenv("NOTIFIER_DRAIN_TIMEOUT", "1")
	t.Setenv("GRPC_TIMEOUT", "not-a-number")

	cfg := Load()

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.True(t, cfg.HATEOASEnabled)
	assert.Equal(t, uint32(2), cfg.BreakerFailureThreshold)
	assert.Equal(t, time.Second, cfg.NotifierDrainTimeout)
	assert.Equal(t, 10*time.Second, cfg.GRPCTimeout)
}

func TestLoad_NonPositiveThresholdFallsBack(t *testing.T) {
	for _, v := range []string{"-1", "0", "-4294967295"} {
		t.Setenv("BREAKER_FAILURE_THRESHOLD", v)
		assert.Equal(t, uint32(5), Load().BreakerFailureThreshold, v)
	}
}

func TestLoadForService_PrefixedOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "shared-db")
	t.Setenv("USERS_DB_HOST", "users-db")
	t.Setenv("USERS_HTTP_PORT", "8081")

	cfg := LoadForService("USERS")

	assert.Equal(t, "USERS", cfg.ServiceName)
	assert.Equal(t, "users-db", cfg.DBHost)
	assert.Equal(t, "8081", cfg.HTTPPort)
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		DBHost: "h", DBPort: "1", DBUser: "u", DBPassword: "p", DBName: "n", DBSSLMode: "disable",
	}
	assert.Equal(t, "host=h port=1 user=u password=p dbname=n sslmode=disable", cfg.DSN())
}
