package registered_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mapleledger/contribution-engine/registered"
)

func TestDiscrepancy_ToleranceAbsorbsRounding(t *testing.T) {
	result := registered.CheckDiscrepancy(money(40000.50), money(40000))

	assert.False(t, result.HasDiscrepancy)
	assert.True(t, result.Difference.Equal(money(0.50)))
}

func TestDiscrepancy_MaterialDifferenceFlagged(t *testing.T) {
	result := registered.CheckDiscrepancy(money(40001.50), money(40000))

	assert.True(t, result.HasDiscrepancy)
	assert.True(t, result.Difference.Equal(money(1.50)))
}

func TestDiscrepancy_ExactlyOneDollarIsTolerated(t *testing.T) {
	result := registered.CheckDiscrepancy(money(39999), money(40000))

	assert.False(t, result.HasDiscrepancy)
	assert.True(t, result.Difference.Equal(money(1)))
}

func TestConstants_UnmappedYearsAreSilentZero(t *testing.T) {
	assert.True(t, registered.TFSAAnnualLimit(2008).IsZero())
	assert.True(t, registered.TFSAAnnualLimit(2050).IsZero())
	assert.True(t, registered.RRSPAnnualLimit(2050).IsZero())
	assert.True(t, registered.TFSAAnnualLimit(2026).Equal(money(7000)))
	assert.True(t, registered.RRSPAnnualLimit(2024).Equal(money(31560)))
}
