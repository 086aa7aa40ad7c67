// pkg/model/conformed.go
package model

import "time"

// Customer is a conformed customer master row. At most one row exists per
// numeric id after deduplication.
type Customer struct {
	ID            int
	Key           string
	FirstName     string
	LastName      string
	MaritalStatus string // "Single", "Married" or NotAvailable
	Gender        string // "Female", "Male" or NotAvailable
	CreatedAt     *time.Time
	ConformedAt   time.Time
}

// Product is a conformed product version. StartDate/EndDate form the
// validity interval; EndDate is nil for the version that is current.
// For any Key the intervals partition time with no gaps or overlaps.
type Product struct {
	ID          int
	CategoryID  string // derived from the raw composite key prefix
	Key         string // cleaned business key, remainder of the composite key
	Name        string
	Cost        float64
	Line        string // "Mountain", "Road", "Other Sales", "Touring" or NotAvailable
	StartDate   *time.Time
	EndDate     *time.Time
	ConformedAt time.Time
}

// SalesLine is a conformed sales order line. Dates that failed validation
// are nil; measures have been recomputed where the raw values were missing
// or inconsistent.
type SalesLine struct {
	OrderNumber string
	ProductKey  string
	CustomerID  int
	OrderDate   *time.Time
	ShipDate    *time.Time
	DueDate     *time.Time
	SalesAmount *float64
	Quantity    int
	Price       *float64
	ConformedAt time.Time
}

// Location is a conformed customer location row keyed by the cleaned
// customer business key.
type Location struct {
	CustomerKey string
	Country     string
	ConformedAt time.Time
}

// CustomerExtra is a conformed supplementary customer attribute row keyed
// by the cleaned customer business key.
type CustomerExtra struct {
	CustomerKey string
	Birthdate   *time.Time
	Gender      string
	ConformedAt time.Time
}

// Category is a conformed product category row. Passed through from the
// source unchanged apart from the provenance timestamp.
type Category struct {
	ID          string
	Category    string
	Subcategory string
	Maintenance string
	ConformedAt time.Time
}
