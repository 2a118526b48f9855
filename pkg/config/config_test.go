package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnv_Overrides(t *testing.T) {
	t.Setenv("PAYMENT_DATABASE_HOST", "db.internal")
	t.Setenv("PAYMENT_DATABASE_PORT", "6543")
	t.Setenv("PAYMENT_REDIS_ENABLED", "true")
	t.Setenv("PAYMENT_DATABASE_CONN_MAX_LIFETIME", "90s")

	env := NewEnv("payment")

	host := "localhost"
	port := 5432
	enabled := false
	lifetime := time.Minute
	name := "payments"

	env.String("database.host", &host)
	env.Int("database.port", &port)
	env.Bool("redis.enabled", &enabled)
	env.Duration("database.conn_max_lifetime", &lifetime)
	env.String("database.name", &name)

	assert.Equal(t, "db.internal", host)
	assert.Equal(t, 6543, port)
	assert.True(t, enabled)
	assert.Equal(t, 90*time.Second, lifetime)
	assert.Equal(t, "payments", name, "unset keys keep their value")
}
