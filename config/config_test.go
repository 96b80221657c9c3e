package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "MONGODB_DATABASE", "BOARD_LOCK_WAIT", "AUDIT_TICKET_ALIAS", "RATE_LIMIT_RPS", "MONGODB_TRANSACTIONS"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "taskboard", cfg.MongoDBDatabase)
	assert.Equal(t, 3*time.Second, cfg.BoardLockWait)
	assert.False(t, cfg.AuditTicketAlias)
	assert.True(t, cfg.MongoDBTransactions)
	assert.Equal(t, 20.0, cfg.RateLimitRPS)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("BOARD_LOCK_WAIT", "250ms")
	t.Setenv("AUDIT_TICKET_ALIAS", "true")
	t.Setenv("MONGODB_TRANSACTIONS", "false")
	t.Setenv("RATE_LIMIT_BURST", "not-a-number")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.BoardLockWait)
	assert.True(t, cfg.AuditTicketAlias)
	assert.False(t, cfg.MongoDBTransactions)
	assert.Equal(t, 40, cfg.RateLimitBurst)
}
