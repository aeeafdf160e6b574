package accountRepo

import (
	"testing"
	"time"

	"adspace/models"

	"github.com/stretchr/testify/assert"
)

func TestHealthGuardFilter(t *testing.T) {
	f := healthGuardFilter("ca-1", models.AccountHealthGuard{Status: models.AccountStatusActive})
	assert.Equal(t, models.AccountStatusActive, f["status"])
	assert.Contains(t, f, "disconnectedAt")
	assert.Nil(t, f["disconnectedAt"])

	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	f = healthGuardFilter("ca-1", models.AccountHealthGuard{Status: models.AccountStatusDisabled, DisconnectedAt: &at})
	assert.Equal(t, at, f["disconnectedAt"])
}

func TestHealthSetWritesClearedMarkers(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	set := healthSet(models.AccountHealthUpdate{Status: models.AccountStatusActive, CheckedAt: now})

	for _, field := range []string{"disconnectedAt", "disconnectNotifiedAt", "spacesSuspendedAt"} {
		assert.Contains(t, set, field)
	}
	assert.Equal(t, now, set["lastHealthCheckAt"])
}
