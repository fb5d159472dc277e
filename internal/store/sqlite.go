package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/tygershark/shiprecon/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		dsn = "shiprecon.db"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS shipments (
	id                 TEXT PRIMARY KEY,
	shipment_id        TEXT NOT NULL,
	tracking_number    TEXT,
	booking_reference  TEXT,
	customer_reference TEXT,
	carrier_id         TEXT,
	carrier_name       TEXT,
	company_id         TEXT NOT NULL,
	booked_at          DATETIME,
	total_amount       REAL NOT NULL DEFAULT 0,
	currency           TEXT
);

CREATE TABLE IF NOT EXISTS document_steps (
	document_id TEXT NOT NULL,
	step        TEXT NOT NULL,
	status      TEXT NOT NULL,
	error       TEXT,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME,
	PRIMARY KEY (document_id, step)
);

CREATE INDEX IF NOT EXISTS idx_shipments_shipment_id ON shipments(shipment_id);
CREATE INDEX IF NOT EXISTS idx_shipments_tracking ON shipments(tracking_number);
CREATE INDEX IF NOT EXISTS idx_shipments_booking ON shipments(booking_reference);
CREATE INDEX IF NOT EXISTS idx_shipments_customer_ref ON shipments(customer_reference);
CREATE INDEX IF NOT EXISTS idx_shipments_booked_at ON shipments(booked_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const shipmentColumns = `id, shipment_id, tracking_number, booking_reference, customer_reference,
	carrier_id, carrier_name, company_id, booked_at, total_amount, currency`

func (s *SQLiteStore) InsertShipments(ctx context.Context, shipments []model.StoredShipment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin insert shipments")
	}
	defer tx.Rollback()

	for _, sh := range shipments {
		var bookedAt any
		if sh.BookedAt != nil {
			bookedAt = sh.BookedAt.UTC()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO shipments (`+shipmentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sh.ID, sh.ShipmentID, sh.TrackingNumber, sh.BookingReference, sh.CustomerReference,
			sh.CarrierID, sh.CarrierName, sh.CompanyID, bookedAt, sh.TotalAmount, sh.Currency,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert shipment %s", sh.ID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit insert shipments")
}

func (s *SQLiteStore) ByShipmentID(ctx context.Context, values []string) ([]model.StoredShipment, error) {
	return s.byColumn(ctx, "shipment_id", values)
}

func (s *SQLiteStore) ByTrackingNumber(ctx context.Context, values []string) ([]model.StoredShipment, error) {
	return s.byColumn(ctx, "tracking_number", values)
}

func (s *SQLiteStore) ByBookingReference(ctx context.Context, values []string) ([]model.StoredShipment, error) {
	return s.byColumn(ctx, "booking_reference", values)
}

func (s *SQLiteStore) ByCustomerReference(ctx context.Context, values []string) ([]model.StoredShipment, error) {
	return s.byColumn(ctx, "customer_reference", values)
}

func (s *SQLiteStore) byColumn(ctx context.Context, column string, values []string) ([]model.StoredShipment, error) {
	if len(values) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	query := fmt.Sprintf(`SELECT %s FROM shipments WHERE %s IN (%s)`, shipmentColumns, column, placeholders)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: lookup by %s", column)
	}
	defer rows.Close()
	return scanShipments(rows)
}

func (s *SQLiteStore) ByReferencePrefix(ctx context.Context, prefix string, limit int) ([]model.StoredShipment, error) {
	if prefix == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 25
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+shipmentColumns+` FROM shipments WHERE customer_reference LIKE ? LIMIT ?`,
		prefix+"%", limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: lookup by reference prefix")
	}
	defer rows.Close()
	return scanShipments(rows)
}

func (s *SQLiteStore) ByDateAmount(ctx context.Context, date time.Time, windowDays int, amount, tolerance float64) ([]model.StoredShipment, error) {
	lo, hi := dateWindow(date, windowDays)
	minAmount := amount * (1 - tolerance)
	maxAmount := amount * (1 + tolerance)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+shipmentColumns+` FROM shipments
		 WHERE booked_at BETWEEN ? AND ? AND total_amount BETWEEN ? AND ?`,
		lo, hi, minAmount, maxAmount,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: lookup by date and amount")
	}
	defer rows.Close()
	return scanShipments(rows)
}

func (s *SQLiteStore) ByCarrierDate(ctx context.Context, carrierID string, date time.Time, windowDays int) ([]model.StoredShipment, error) {
	lo, hi := dateWindow(date, windowDays)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+shipmentColumns+` FROM shipments
		 WHERE carrier_id = ? AND booked_at BETWEEN ? AND ?`,
		carrierID, lo, hi,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: lookup by carrier and date")
	}
	defer rows.Close()
	return scanShipments(rows)
}

func (s *SQLiteStore) StartStep(ctx context.Context, documentID, step string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO document_steps (document_id, step, status, error, started_at, finished_at)
		 VALUES (?, ?, ?, NULL, ?, NULL)`,
		documentID, step, StepRunning, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: start step %s/%s", documentID, step)
}

func (s *SQLiteStore) CompleteStep(ctx context.Context, documentID, step string) error {
	return s.finishStep(ctx, documentID, step, StepComplete, "")
}

func (s *SQLiteStore) FailStep(ctx context.Context, documentID, step string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return s.finishStep(ctx, documentID, step, StepFailed, msg)
}

func (s *SQLiteStore) finishStep(ctx context.Context, documentID, step, status, errMsg string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE document_steps SET status = ?, error = ?, finished_at = ? WHERE document_id = ? AND step = ?`,
		status, nullIfEmpty(errMsg), time.Now().UTC(), documentID, step,
	)
	return eris.Wrapf(err, "sqlite: finish step %s/%s", documentID, step)
}

func (s *SQLiteStore) CompletedSteps(ctx context.Context, documentID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT step FROM document_steps WHERE document_id = ? AND status = ?`,
		documentID, StepComplete,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: completed steps %s", documentID)
	}
	defer rows.Close()

	done := make(map[string]bool)
	for rows.Next() {
		var step string
		if err := rows.Scan(&step); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan step")
		}
		done[step] = true
	}
	return done, eris.Wrap(rows.Err(), "sqlite: iterate steps")
}

func (s *SQLiteStore) ListSteps(ctx context.Context, documentID string) ([]StepRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT document_id, step, status, error, started_at, finished_at
		 FROM document_steps WHERE document_id = ? ORDER BY started_at`,
		documentID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list steps %s", documentID)
	}
	defer rows.Close()

	var steps []StepRecord
	for rows.Next() {
		var rec StepRecord
		var errMsg sql.NullString
		var finished sql.NullTime
		if err := rows.Scan(&rec.DocumentID, &rec.Step, &rec.Status, &errMsg, &rec.StartedAt, &finished); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan step record")
		}
		rec.Error = errMsg.String
		if finished.Valid {
			t := finished.Time
			rec.FinishedAt = &t
		}
		steps = append(steps, rec)
	}
	return steps, eris.Wrap(rows.Err(), "sqlite: iterate step records")
}

func scanShipments(rows *sql.Rows) ([]model.StoredShipment, error) {
	var out []model.StoredShipment
	for rows.Next() {
		var sh model.StoredShipment
		var tracking, booking, customer, carrierID, carrierName, currency sql.NullString
		var bookedAt sql.NullTime
		if err := rows.Scan(
			&sh.ID, &sh.ShipmentID, &tracking, &booking, &customer,
			&carrierID, &carrierName, &sh.CompanyID, &bookedAt, &sh.TotalAmount, &currency,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan shipment")
		}
		sh.TrackingNumber = tracking.String
		sh.BookingReference = booking.String
		sh.CustomerReference = customer.String
		sh.CarrierID = carrierID.String
		sh.CarrierName = carrierName.String
		sh.Currency = currency.String
		if bookedAt.Valid {
			t := bookedAt.Time
			sh.BookedAt = &t
		}
		out = append(out, sh)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate shipments")
}

func dateWindow(date time.Time, windowDays int) (time.Time, time.Time) {
	d := date.UTC().Truncate(24 * time.Hour)
	return d.AddDate(0, 0, -windowDays), d.AddDate(0, 0, windowDays+1)
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
