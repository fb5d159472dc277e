package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/tygershark/shiprecon/internal/model"
)

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres connects a pool to the given database URL.
func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS shipments (
	id                 TEXT PRIMARY KEY,
	shipment_id        TEXT NOT NULL,
	tracking_number    TEXT,
	booking_reference  TEXT,
	customer_reference TEXT,
	carrier_id         TEXT,
	carrier_name       TEXT,
	company_id         TEXT NOT NULL,
	booked_at          TIMESTAMPTZ,
	total_amount       DOUBLE PRECISION NOT NULL DEFAULT 0,
	currency           TEXT
);

CREATE TABLE IF NOT EXISTS document_steps (
	document_id TEXT NOT NULL,
	step        TEXT NOT NULL,
	status      TEXT NOT NULL,
	error       TEXT,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ,
	PRIMARY KEY (document_id, step)
);

CREATE INDEX IF NOT EXISTS idx_shipments_shipment_id ON shipments(shipment_id);
CREATE INDEX IF NOT EXISTS idx_shipments_tracking ON shipments(tracking_number);
CREATE INDEX IF NOT EXISTS idx_shipments_booking ON shipments(booking_reference);
CREATE INDEX IF NOT EXISTS idx_shipments_customer_ref ON shipments(customer_reference);
CREATE INDEX IF NOT EXISTS idx_shipments_booked_at ON shipments(booked_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) InsertShipments(ctx context.Context, shipments []model.StoredShipment) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin insert shipments")
	}
	defer tx.Rollback(ctx)

	for _, sh := range shipments {
		_, err := tx.Exec(ctx,
			`INSERT INTO shipments (`+shipmentColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 ON CONFLICT (id) DO UPDATE SET
				shipment_id = EXCLUDED.shipment_id,
				tracking_number = EXCLUDED.tracking_number,
				booking_reference = EXCLUDED.booking_reference,
				customer_reference = EXCLUDED.customer_reference,
				carrier_id = EXCLUDED.carrier_id,
				carrier_name = EXCLUDED.carrier_name,
				company_id = EXCLUDED.company_id,
				booked_at = EXCLUDED.booked_at,
				total_amount = EXCLUDED.total_amount,
				currency = EXCLUDED.currency`,
			sh.ID, sh.ShipmentID, sh.TrackingNumber, sh.BookingReference, sh.CustomerReference,
			sh.CarrierID, sh.CarrierName, sh.CompanyID, sh.BookedAt, sh.TotalAmount, sh.Currency,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert shipment %s", sh.ID)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit insert shipments")
}

func (s *PostgresStore) ByShipmentID(ctx context.Context, values []string) ([]model.StoredShipment, error) {
	return s.byColumn(ctx, "shipment_id", values)
}

func (s *PostgresStore) ByTrackingNumber(ctx context.Context, values []string) ([]model.StoredShipment, error) {
	return s.byColumn(ctx, "tracking_number", values)
}

func (s *PostgresStore) ByBookingReference(ctx context.Context, values []string) ([]model.StoredShipment, error) {
	return s.byColumn(ctx, "booking_reference", values)
}

func (s *PostgresStore) ByCustomerReference(ctx context.Context, values []string) ([]model.StoredShipment, error) {
	return s.byColumn(ctx, "customer_reference", values)
}

func (s *PostgresStore) byColumn(ctx context.Context, column string, values []string) ([]model.StoredShipment, error) {
	if len(values) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+shipmentColumns+` FROM shipments WHERE `+column+` = ANY($1)`,
		values,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: lookup by %s", column)
	}
	defer rows.Close()
	return scanPgShipments(rows)
}

func (s *PostgresStore) ByReferencePrefix(ctx context.Context, prefix string, limit int) ([]model.StoredShipment, error) {
	if prefix == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 25
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+shipmentColumns+` FROM shipments WHERE customer_reference LIKE $1 LIMIT $2`,
		prefix+"%", limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: lookup by reference prefix")
	}
	defer rows.Close()
	return scanPgShipments(rows)
}

func (s *PostgresStore) ByDateAmount(ctx context.Context, date time.Time, windowDays int, amount, tolerance float64) ([]model.StoredShipment, error) {
	lo, hi := dateWindow(date, windowDays)
	rows, err := s.pool.Query(ctx,
		`SELECT `+shipmentColumns+` FROM shipments
		 WHERE booked_at >= $1 AND booked_at < $2 AND total_amount BETWEEN $3 AND $4`,
		lo, hi, amount*(1-tolerance), amount*(1+tolerance),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: lookup by date and amount")
	}
	defer rows.Close()
	return scanPgShipments(rows)
}

func (s *PostgresStore) ByCarrierDate(ctx context.Context, carrierID string, date time.Time, windowDays int) ([]model.StoredShipment, error) {
	lo, hi := dateWindow(date, windowDays)
	rows, err := s.pool.Query(ctx,
		`SELECT `+shipmentColumns+` FROM shipments
		 WHERE carrier_id = $1 AND booked_at >= $2 AND booked_at < $3`,
		carrierID, lo, hi,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: lookup by carrier and date")
	}
	defer rows.Close()
	return scanPgShipments(rows)
}

func (s *PostgresStore) StartStep(ctx context.Context, documentID, step string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO document_steps (document_id, step, status, error, started_at, finished_at)
		 VALUES ($1, $2, $3, NULL, $4, NULL)
		 ON CONFLICT (document_id, step) DO UPDATE SET
			status = EXCLUDED.status, error = NULL,
			started_at = EXCLUDED.started_at, finished_at = NULL`,
		documentID, step, StepRunning, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: start step %s/%s", documentID, step)
}

func (s *PostgresStore) CompleteStep(ctx context.Context, documentID, step string) error {
	return s.finishStep(ctx, documentID, step, StepComplete, "")
}

func (s *PostgresStore) FailStep(ctx context.Context, documentID, step string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return s.finishStep(ctx, documentID, step, StepFailed, msg)
}

func (s *PostgresStore) finishStep(ctx context.Context, documentID, step, status, errMsg string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE document_steps SET status = $1, error = $2, finished_at = $3
		 WHERE document_id = $4 AND step = $5`,
		status, nullIfEmpty(errMsg), time.Now().UTC(), documentID, step,
	)
	return eris.Wrapf(err, "postgres: finish step %s/%s", documentID, step)
}

func (s *PostgresStore) CompletedSteps(ctx context.Context, documentID string) (map[string]bool, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT step FROM document_steps WHERE document_id = $1 AND status = $2`,
		documentID, StepComplete,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: completed steps %s", documentID)
	}
	defer rows.Close()

	done := make(map[string]bool)
	for rows.Next() {
		var step string
		if err := rows.Scan(&step); err != nil {
			return nil, eris.Wrap(err, "postgres: scan step")
		}
		done[step] = true
	}
	return done, eris.Wrap(rows.Err(), "postgres: iterate steps")
}

func (s *PostgresStore) ListSteps(ctx context.Context, documentID string) ([]StepRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT document_id, step, status, COALESCE(error, ''), started_at, finished_at
		 FROM document_steps WHERE document_id = $1 ORDER BY started_at`,
		documentID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list steps %s", documentID)
	}
	defer rows.Close()

	var steps []StepRecord
	for rows.Next() {
		var rec StepRecord
		if err := rows.Scan(&rec.DocumentID, &rec.Step, &rec.Status, &rec.Error, &rec.StartedAt, &rec.FinishedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan step record")
		}
		steps = append(steps, rec)
	}
	return steps, eris.Wrap(rows.Err(), "postgres: iterate step records")
}

func scanPgShipments(rows pgx.Rows) ([]model.StoredShipment, error) {
	var out []model.StoredShipment
	for rows.Next() {
		var sh model.StoredShipment
		var tracking, booking, customer, carrierID, carrierName, currency *string
		if err := rows.Scan(
			&sh.ID, &sh.ShipmentID, &tracking, &booking, &customer,
			&carrierID, &carrierName, &sh.CompanyID, &sh.BookedAt, &sh.TotalAmount, &currency,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan shipment")
		}
		sh.TrackingNumber = deref(tracking)
		sh.BookingReference = deref(booking)
		sh.CustomerReference = deref(customer)
		sh.CarrierID = deref(carrierID)
		sh.CarrierName = deref(carrierName)
		sh.Currency = deref(currency)
		out = append(out, sh)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate shipments")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
