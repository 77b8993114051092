package guru

import (
	"fmt"
	"strings"
	"time"
)

type TendersPage struct {
	Tenders []TenderDto `json:"data"`
}

type TenderDto struct {
	Id                 string           `json:"id"`
	Date               Date             `json:"date"`
	Title              string           `json:"title"`
	Description        *string          `json:"description"`
	AwardedValueInEuro string           `json:"awarded_value_eur"`
	Awards             []TenderAwardDto `json:"awarded"`
}

type TenderAwardDto struct {
	Suppliers []TenderSupplierDto `json:"suppliers"`
}

type TenderSupplierDto struct {
	Name string `json:"name"`
	Id   int    `json:"id"`
}

// Date handles the source's date-only values as well as full timestamps.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "null" || raw == "" {
		return nil
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			d.Time = parsed
			return nil
		}
	}

	return fmt.Errorf("unsupported date value %q", raw)
}
