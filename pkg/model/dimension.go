// pkg/model/dimension.go
package model

import "time"

// CustomerDimension is one row of the customer dimension: the customer
// master consolidated with supplementary attributes and location.
type CustomerDimension struct {
	SurrogateKey  int
	ID            int
	Number        string // business key from the customer master
	FirstName     string
	LastName      string
	Country       string
	MaritalStatus string
	Gender        string
	Birthdate     *time.Time
	CreatedAt     *time.Time
}

// ProductDimension is one row of the product dimension. Only current
// product versions (nil EndDate) contribute rows.
type ProductDimension struct {
	SurrogateKey int
	ID           int
	Number       string // cleaned product business key
	Name         string
	CategoryID   string
	Category     string
	Subcategory  string
	Maintenance  string
	Cost         float64
	Line         string
	StartDate    *time.Time
}

// SalesFact is one row of the sales fact. ProductKey and CustomerKey are
// dimension surrogate keys; nil marks an unresolved reference, the row is
// retained either way.
type SalesFact struct {
	OrderNumber string
	ProductKey  *int
	CustomerKey *int
	OrderDate   *time.Time
	ShipDate    *time.Time
	DueDate     *time.Time
	SalesAmount *float64
	Quantity    int
	Price       *float64
}
