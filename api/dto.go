/*
dto.go - Data Transfer Objects for API responses

PURPOSE:
  JSON shapes for the downstream query surface. Reporting layers read
  the gold/silver collections by business-friendly field names
  (customer_key, category, sales_amount, ...), so these types are the
  compatibility contract - the internal row types can evolve without
  breaking existing reports.

NAMING CONVENTION:
  *DTO: response types returned to clients

ENCODING:
  Dates render as "YYYY-MM-DD" strings, money as decimal strings
  (never JSON floats), absent values as null.

SEE ALSO:
  - handlers.go:        uses these types
  - warehouse/types.go: the internal rows being projected
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/afmzln/dwh-sql-project/warehouse"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// DimCustomerDTO is one customer dimension row.
type DimCustomerDTO struct {
	CustomerKey    int     `json:"customer_key"`
	CustomerID     int     `json:"customer_id"`
	CustomerNumber string  `json:"customer_number"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Country        string  `json:"country"`
	MaritalStatus  string  `json:"marital_status"`
	Gender         string  `json:"gender"`
	Birthdate      *string `json:"birthdate"`
	CreateDate     *string `json:"create_date"`
}

// DimProductDTO is one product dimension row.
type DimProductDTO struct {
	ProductKey    int     `json:"product_key"`
	ProductID     int     `json:"product_id"`
	ProductNumber string  `json:"product_number"`
	ProductName   string  `json:"product_name"`
	CategoryID    string  `json:"category_id"`
	Category      *string `json:"category"`
	Subcategory   *string `json:"subcategory"`
	Maintenance   *string `json:"maintenance"`
	Cost          string  `json:"cost"`
	ProductLine   string  `json:"product_line"`
	StartDate     *string `json:"start_date"`
	EndDate       *string `json:"end_date"`
}

// FactSaleDTO is one fact row.
type FactSaleDTO struct {
	OrderNumber  string  `json:"order_number"`
	ProductKey   *int    `json:"product_key"`
	CustomerKey  *int    `json:"customer_key"`
	OrderDate    *string `json:"order_date"`
	ShippingDate *string `json:"shipping_date"`
	DueDate      *string `json:"due_date"`
	SalesAmount  *string `json:"sales_amount"`
	Quantity     *int64  `json:"quantity"`
	UnitPrice    *string `json:"unit_price"`
}

// RunResponseDTO summarizes one triggered run.
type RunResponseDTO struct {
	RunID      string `json:"run_id"`
	Passed     bool   `json:"passed"`
	Checks     int    `json:"checks"`
	Violations int    `json:"violations"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// PROJECTIONS
// =============================================================================

func toDimCustomerDTOs(rows []warehouse.DimCustomer) []DimCustomerDTO {
	out := make([]DimCustomerDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, DimCustomerDTO{
			CustomerKey:    r.CustomerKey,
			CustomerID:     r.CustomerID,
			CustomerNumber: r.CustomerNumber,
			FirstName:      r.FirstName,
			LastName:       r.LastName,
			Country:        r.Country,
			MaritalStatus:  r.MaritalStatus,
			Gender:         r.Gender,
			Birthdate:      dateStr(r.Birthdate),
			CreateDate:     dateStr(r.CreatedAt),
		})
	}
	return out
}

func toDimProductDTOs(rows []warehouse.DimProduct) []DimProductDTO {
	out := make([]DimProductDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, DimProductDTO{
			ProductKey:    r.ProductKey,
			ProductID:     r.ProductID,
			ProductNumber: r.ProductNumber,
			ProductName:   r.ProductName,
			CategoryID:    r.CategoryID,
			Category:      r.Category,
			Subcategory:   r.Subcategory,
			Maintenance:   r.Maintenance,
			Cost:          r.Cost.String(),
			ProductLine:   r.ProductLine,
			StartDate:     dateStr(r.StartDate),
			EndDate:       dateStr(r.EndDate),
		})
	}
	return out
}

func toFactSaleDTOs(rows []warehouse.FactSale) []FactSaleDTO {
	out := make([]FactSaleDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, FactSaleDTO{
			OrderNumber:  r.OrderNumber,
			ProductKey:   r.ProductKey,
			CustomerKey:  r.CustomerKey,
			OrderDate:    dateStr(r.OrderDate),
			ShippingDate: dateStr(r.ShipDate),
			DueDate:      dateStr(r.DueDate),
			SalesAmount:  decStr(r.SalesAmount),
			Quantity:     r.Quantity,
			UnitPrice:    decStr(r.UnitPrice),
		})
	}
	return out
}

func dateStr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

func decStr(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}
