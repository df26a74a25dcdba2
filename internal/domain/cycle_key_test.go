package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdant-ops/gardenledger/internal/domain"
)

func TestCycleKey_StoredFormRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		key    domain.CycleKey
		stored string
	}{
		{name: "template", key: domain.TemplateKey(), stored: "template"},
		{name: "period", key: domain.PeriodKey(2025, time.February), stored: "period:2025-02"},
		{name: "first year", key: domain.PeriodKey(1, time.January), stored: "period:0001-01"},
		{name: "last year", key: domain.PeriodKey(9999, time.December), stored: "period:9999-12"},
		{
			name:   "adhoc",
			key:    domain.AdHocKey(time.Date(2025, 2, 10, 14, 3, 0, 123456789, time.UTC)),
			stored: "adhoc:2025-02-10T14:03:00.123456789Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := tt.key.Value()
			require.NoError(t, err)
			assert.Equal(t, tt.stored, value)

			var scanned domain.CycleKey
			require.NoError(t, scanned.Scan(tt.stored))
			assert.Equal(t, tt.key, scanned)
		})
	}
}

func TestCycleKey_RejectsUnstorablePeriods(t *testing.T) {
	for _, key := range []domain.CycleKey{
		domain.PeriodKey(10000, time.January),
		domain.PeriodKey(0, time.January),
		domain.PeriodKey(2025, time.Month(13)),
	} {
		_, err := key.Value()
		assert.Error(t, err, "%d-%d", key.Year, key.Month)
	}

	for _, stored := range []string{"period:10000-01", "period:2025-13", "period:2025", "period:abcd-01", "period:"} {
		_, err := domain.ParseCycleKey(stored)
		assert.Error(t, err, stored)
	}
}

func TestValidPeriod(t *testing.T) {
	assert.True(t, domain.ValidPeriod(2025, time.February))
	assert.True(t, domain.ValidPeriod(domain.MaxPeriodYear, time.December))
	assert.False(t, domain.ValidPeriod(domain.MaxPeriodYear+1, time.January))
	assert.False(t, domain.ValidPeriod(0, time.January))
	assert.False(t, domain.ValidPeriod(2025, 0))
}
