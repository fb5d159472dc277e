package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectTier_Small(t *testing.T) {
	assert.Equal(t, TierSmall, SelectTier(3, 5))
	assert.Equal(t, TierSmall, SelectTier(5, 10))
}

func TestSelectTier_EscalatesOnPages(t *testing.T) {
	// 8 pages exceeds the small cap even though 30 shipments alone would not
	// force past medium; both fit medium.
	assert.Equal(t, TierMedium, SelectTier(8, 30))
}

func TestSelectTier_EscalatesOnShipments(t *testing.T) {
	// Pages fit small but the shipment estimate forces escalation.
	assert.Equal(t, TierMedium, SelectTier(2, 40))
	assert.Equal(t, TierLarge, SelectTier(2, 200))
}

func TestSelectTier_Massive(t *testing.T) {
	assert.Equal(t, TierMassive, SelectTier(500, 10))
	assert.Equal(t, TierMassive, SelectTier(10, 5000))
}

func TestSelectTier_BoundaryValues(t *testing.T) {
	assert.Equal(t, TierMedium, SelectTier(6, 1))
	assert.Equal(t, TierLarge, SelectTier(21, 1))
	assert.Equal(t, TierLarge, SelectTier(100, 500))
	assert.Equal(t, TierMassive, SelectTier(101, 1))
}
