package model

import "time"

// Address is a shipment origin or destination as extracted from a document.
type Address struct {
	Company    string `json:"company,omitempty"`
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// Complete reports whether the address carries enough detail to be usable
// for reconciliation (city plus either street or postal code).
func (a Address) Complete() bool {
	return a.City != "" && (a.Street != "" || a.PostalCode != "")
}

// Charge is a single line charge on a shipment.
type Charge struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency,omitempty"`
}

// ExtractedShipmentRecord is the oracle's structured output for one shipment
// on an invoice or manifest. Owned by the extraction pipeline; the matching
// engine treats it as read-only.
type ExtractedShipmentRecord struct {
	ShipmentID        string     `json:"shipment_id,omitempty"`
	TrackingNumber    string     `json:"tracking_number,omitempty"`
	BookingReference  string     `json:"booking_reference,omitempty"`
	CustomerReference string     `json:"customer_reference,omitempty"`
	CarrierID         string     `json:"carrier_id,omitempty"`
	Origin            Address    `json:"origin,omitempty"`
	Destination       Address    `json:"destination,omitempty"`
	Charges           []Charge   `json:"charges,omitempty"`
	TotalAmount       float64    `json:"total_amount"`
	Currency          string     `json:"currency,omitempty"`
	InvoiceDate       *time.Time `json:"invoice_date,omitempty"`
	Page              int        `json:"page,omitempty"`

	// Fallback marks records synthesized by regex extraction after the oracle
	// was exhausted. Fallback records always route to manual review.
	Fallback bool `json:"fallback,omitempty"`
}

// HasIdentifier reports whether the record carries at least one identifier
// usable for exact matching.
func (r ExtractedShipmentRecord) HasIdentifier() bool {
	return r.ShipmentID != "" || r.TrackingNumber != "" ||
		r.BookingReference != "" || r.CustomerReference != ""
}

// StoredShipment is a shipment record from the external record store.
// This subsystem only reads these; applying a match is the caller's decision.
type StoredShipment struct {
	ID                string     `json:"id"`
	ShipmentID        string     `json:"shipment_id"`
	TrackingNumber    string     `json:"tracking_number,omitempty"`
	BookingReference  string     `json:"booking_reference,omitempty"`
	CustomerReference string     `json:"customer_reference,omitempty"`
	CarrierID         string     `json:"carrier_id,omitempty"`
	CarrierName       string     `json:"carrier_name,omitempty"`
	CompanyID         string     `json:"company_id"`
	BookedAt          *time.Time `json:"booked_at,omitempty"`
	TotalAmount       float64    `json:"total_amount"`
	Currency          string     `json:"currency,omitempty"`
}
