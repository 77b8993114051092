package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SortField names the single sort key of a tender listing. SortById is the
// default and sorts in plain string order.
type SortField string

const (
	SortById           SortField = "Id"
	SortByDate         SortField = "Date"
	SortByAwardedValue SortField = "AwardedValueInEuro"
)

// Column maps the sort field to its tenders-table column.
func (f SortField) Column() string {
	switch f {
	case SortByDate:
		return "date"
	case SortByAwardedValue:
		return "awarded_value_eur"
	default:
		return "id"
	}
}

type Field string

const (
	FieldId           Field = "id"
	FieldDate         Field = "date"
	FieldAwardedValue Field = "awarded_value_eur"
	FieldSupplierId   Field = "supplier_id"
)

type Op string

const (
	OpEq  Op = "="
	OpGte Op = ">="
	OpLte Op = "<="
	OpGt  Op = ">"
	// OpNever matches nothing. Used when a pagination cursor fails to
	// parse: the page must come back well-formed and empty, not as an error.
	OpNever Op = "never"
)

// Criterion is one optional filter. A query carries zero or more of them
// and the storage layer folds them into a single AND-composed predicate.
type Criterion struct {
	Field Field
	Op    Op
	Value any
}

// TenderQuery is the storage-level query spec: folded criteria, one sort
// key, and an already-resolved page window.
type TenderQuery struct {
	Criteria []Criterion
	Sort     SortField
	Desc     bool
	Limit    int
	Offset   int
}

// TenderQueryParams is the caller-facing parameter set of a tender
// listing. Every field is optional; nil means "not given". Page selects
// offset mode, PageAfter selects cursor mode.
type TenderQueryParams struct {
	Page                   *int
	PageSize               *int
	PageAfter              *string
	DateFrom               *time.Time
	DateTo                 *time.Time
	SupplierId             *int
	AwardedValueInEuroFrom *decimal.Decimal
	AwardedValueInEuroTo   *decimal.Decimal
	SortField              SortField
	SortDescending         bool
}

// TenderPage is what a listing query returns. Page is set in offset mode,
// NextPageAfter in cursor mode; Total always counts the filtered set as a
// whole, independent of the window.
type TenderPage struct {
	Data          []TenderReadModel `json:"data"`
	Page          int               `json:"page,omitempty"`
	NextPageAfter string            `json:"nextPageAfter,omitempty"`
	PageSize      int               `json:"pageSize"`
	Total         int               `json:"total"`
}
