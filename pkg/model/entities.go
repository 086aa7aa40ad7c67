// pkg/model/entities.go
package model

import "time"

// NotAvailable is the sentinel label assigned to attributes whose raw value
// is blank, absent, or maps to no known code.
const NotAvailable = "n/a"

// RawCustomer is a customer master row as delivered by the CRM system.
// Every field except ID may be blank or malformed; ID is nil when the
// source row carried no usable numeric id.
type RawCustomer struct {
	ID            *int
	Key           string // alphanumeric business key, e.g. "AW00011000"
	FirstName     string
	LastName      string
	MaritalStatus string // raw code, expected "S"/"M"
	Gender        string // raw code, expected "F"/"M"
	CreatedAt     *time.Time
}

// RawProduct is a product master row as delivered by the CRM system.
// Key is a composite of category id and business key, e.g. "CO-RF-FR-R92B-58".
// EndDate is carried by the source but is inconsistent and never trusted.
type RawProduct struct {
	ID        int
	Key       string
	Name      string
	Cost      *float64
	Line      string // raw code, expected "M"/"R"/"S"/"T"
	StartDate *time.Time
	EndDate   *time.Time
}

// RawSalesLine is a sales order line as delivered by the CRM system.
// The three date fields arrive as 8-digit integers (YYYYMMDD) and may be
// garbage; the measures may be null, negative, or mutually inconsistent.
type RawSalesLine struct {
	OrderNumber string
	ProductKey  string
	CustomerID  int
	OrderDate   int
	ShipDate    int
	DueDate     int
	SalesAmount *float64
	Quantity    *int
	Price       *float64
}

// RawLocation is a customer location row as delivered by the ERP system.
// CustomerID carries stray separator characters ("AW-00011000") that must
// be stripped before it matches the customer master's business key.
type RawLocation struct {
	CustomerID string
	Country    string
}

// RawCustomerExtra is a supplementary customer attribute row as delivered
// by the ERP system. ID carries a known non-numeric prefix ("NASAW00011000").
type RawCustomerExtra struct {
	ID        string
	Birthdate *time.Time
	Gender    string // free text, e.g. "F", "FEMALE", "Male"
}

// RawCategory is a product category row as delivered by the ERP system.
// This entity is already conformed at the source.
type RawCategory struct {
	ID          string
	Category    string
	Subcategory string
	Maintenance string
}

// RawSnapshot is one complete per-run delivery from the raw record source,
// one full snapshot per entity (never a delta).
type RawSnapshot struct {
	Customers      []RawCustomer
	Products       []RawProduct
	SalesLines     []RawSalesLine
	Locations      []RawLocation
	CustomerExtras []RawCustomerExtra
	Categories     []RawCategory
}
