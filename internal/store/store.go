// Package store gives the engine read-only access to the external shipment
// record store plus persistence for pipeline step status.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/tygershark/shiprecon/internal/config"
	"github.com/tygershark/shiprecon/internal/model"
)

// RecordStore is the read-only lookup surface the matching strategies use.
// Identifier lookups accept multiple values so OCR variants batch into one
// indexed query.
type RecordStore interface {
	ByShipmentID(ctx context.Context, values []string) ([]model.StoredShipment, error)
	ByTrackingNumber(ctx context.Context, values []string) ([]model.StoredShipment, error)
	ByBookingReference(ctx context.Context, values []string) ([]model.StoredShipment, error)
	ByCustomerReference(ctx context.Context, values []string) ([]model.StoredShipment, error)

	// ByReferencePrefix finds records whose customer reference starts with
	// the given prefix, for fuzzy reference matching.
	ByReferencePrefix(ctx context.Context, prefix string, limit int) ([]model.StoredShipment, error)

	// ByDateAmount finds records booked within ±windowDays of date whose
	// total is within tolerance (fractional) of amount.
	ByDateAmount(ctx context.Context, date time.Time, windowDays int, amount, tolerance float64) ([]model.StoredShipment, error)

	// ByCarrierDate finds records for a carrier booked within ±windowDays of
	// date.
	ByCarrierDate(ctx context.Context, carrierID string, date time.Time, windowDays int) ([]model.StoredShipment, error)
}

// Step status values persisted per pipeline step.
const (
	StepRunning  = "running"
	StepComplete = "complete"
	StepFailed   = "failed"
)

// StepRecord is one persisted pipeline step for a document.
type StepRecord struct {
	DocumentID string     `json:"document_id"`
	Step       string     `json:"step"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// StateStore persists incremental pipeline step status so a crash leaves a
// resumable, inspectable state, and failures stay visible to operators.
type StateStore interface {
	StartStep(ctx context.Context, documentID, step string) error
	CompleteStep(ctx context.Context, documentID, step string) error
	FailStep(ctx context.Context, documentID, step string, cause error) error
	CompletedSteps(ctx context.Context, documentID string) (map[string]bool, error)
	ListSteps(ctx context.Context, documentID string) ([]StepRecord, error)
}

// Store is the full persistence surface.
type Store interface {
	RecordStore
	StateStore

	// InsertShipments loads records into the store. Used by ingest tooling
	// and tests; the matching engine itself never writes.
	InsertShipments(ctx context.Context, shipments []model.StoredShipment) error

	Migrate(ctx context.Context) error
	Close() error
}

// Open creates the configured store backend.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
