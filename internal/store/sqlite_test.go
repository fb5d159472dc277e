package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tygershark/shiprecon/internal/config"
	"github.com/tygershark/shiprecon/internal/model"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func seedShipments(t *testing.T, s *SQLiteStore) {
	t.Helper()
	booked := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	later := booked.AddDate(0, 0, 2)
	require.NoError(t, s.InsertShipments(context.Background(), []model.StoredShipment{
		{
			ID: "rec-1", ShipmentID: "SHIP-001234", TrackingNumber: "1Z999AA10123456784",
			CustomerReference: "PO-55821", CarrierID: "ups", CompanyID: "co-1",
			BookedAt: &booked, TotalAmount: 142.50, Currency: "CAD",
		},
		{
			ID: "rec-2", ShipmentID: "SHIP-005678", BookingReference: "BK-9921",
			CarrierID: "dhl", CompanyID: "co-2",
			BookedAt: &later, TotalAmount: 980.00, Currency: "USD",
		},
	}))
}

func TestSQLite_LookupByIdentifierVariants(t *testing.T) {
	s := openTestStore(t)
	seedShipments(t, s)

	// OCR variants batch into one query; only the real value matches.
	got, err := s.ByShipmentID(context.Background(), []string{"SHIP-001234", "SHIP-0O1234"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "rec-1", got[0].ID)
	assert.Equal(t, "ups", got[0].CarrierID)
	require.NotNil(t, got[0].BookedAt)
}

func TestSQLite_LookupEmptyValues(t *testing.T) {
	s := openTestStore(t)
	got, err := s.ByTrackingNumber(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLite_ByReferencePrefix(t *testing.T) {
	s := openTestStore(t)
	seedShipments(t, s)

	got, err := s.ByReferencePrefix(context.Background(), "PO-55", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "PO-55821", got[0].CustomerReference)
}

func TestSQLite_ByDateAmount(t *testing.T) {
	s := openTestStore(t)
	seedShipments(t, s)

	date := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	got, err := s.ByDateAmount(context.Background(), date, 3, 150.00, 0.15)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "rec-1", got[0].ID)

	// Tight tolerance excludes it.
	got, err = s.ByDateAmount(context.Background(), date, 3, 150.00, 0.01)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLite_ByCarrierDate(t *testing.T) {
	s := openTestStore(t)
	seedShipments(t, s)

	date := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	got, err := s.ByCarrierDate(context.Background(), "dhl", date, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "rec-2", got[0].ID)

	got, err = s.ByCarrierDate(context.Background(), "fedex", date, 1)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLite_StepLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.StartStep(ctx, "doc-1", "classify"))
	require.NoError(t, s.CompleteStep(ctx, "doc-1", "classify"))
	require.NoError(t, s.StartStep(ctx, "doc-1", "extract"))
	require.NoError(t, s.FailStep(ctx, "doc-1", "extract", eris.New("oracle timeout")))

	done, err := s.CompletedSteps(ctx, "doc-1")
	require.NoError(t, err)
	assert.True(t, done["classify"])
	assert.False(t, done["extract"])

	steps, err := s.ListSteps(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, steps, 2)
	byStep := map[string]StepRecord{}
	for _, st := range steps {
		byStep[st.Step] = st
	}
	assert.Equal(t, StepComplete, byStep["classify"].Status)
	assert.NotNil(t, byStep["classify"].FinishedAt)
	assert.Equal(t, StepFailed, byStep["extract"].Status)
	assert.Contains(t, byStep["extract"].Error, "oracle timeout")
}

func TestSQLite_StepRestartClearsError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.StartStep(ctx, "doc-2", "match"))
	require.NoError(t, s.FailStep(ctx, "doc-2", "match", eris.New("boom")))
	require.NoError(t, s.StartStep(ctx, "doc-2", "match"))

	steps, err := s.ListSteps(ctx, "doc-2")
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, StepRunning, steps[0].Status)
	assert.Empty(t, steps[0].Error)
	assert.Nil(t, steps[0].FinishedAt)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "mysql"})
	assert.Error(t, err)
}

func TestOpen_DefaultsToSQLite(t *testing.T) {
	cfg := config.StoreConfig{DatabaseURL: filepath.Join(t.TempDir(), "open.db")}
	s, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &SQLiteStore{}, s)
}
