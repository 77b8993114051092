package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// db model, tenders table
type Tender struct {
	Id                 string          `json:"id" db:"id"`
	Date               time.Time       `json:"date" db:"date"`
	Title              string          `json:"title" db:"title"`
	Description        *string         `json:"description" db:"description"`
	AwardedValueInEuro decimal.Decimal `json:"awardedValueInEuro" db:"awarded_value_eur"`
	Suppliers          []Supplier      `json:"suppliers"`
}

// db model, suppliers table. Id comes from the external source and is
// never generated by the store.
type Supplier struct {
	Id   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// controller model, built per query and never persisted
type TenderReadModel struct {
	Id                 string              `json:"id"`
	Date               time.Time           `json:"date"`
	Title              string              `json:"title"`
	Description        *string             `json:"description"`
	AwardedValueInEuro decimal.Decimal     `json:"awardedValueInEuro"`
	Suppliers          []SupplierReadModel `json:"suppliers"`
}

type SupplierReadModel struct {
	Id   int    `json:"id"`
	Name string `json:"name"`
}

func MapTenderReadModel(t *Tender) TenderReadModel {
	suppliers := make([]SupplierReadModel, 0, len(t.Suppliers))
	for _, s := range t.Suppliers {
		suppliers = append(suppliers, SupplierReadModel{Id: s.Id, Name: s.Name})
	}

	return TenderReadModel{
		Id:                 t.Id,
		Date:               t.Date,
		Title:              t.Title,
		Description:        t.Description,
		AwardedValueInEuro: t.AwardedValueInEuro,
		Suppliers:          suppliers,
	}
}
