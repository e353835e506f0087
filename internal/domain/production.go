package domain

import (
	"strconv"
	"strings"
	"time"
)

// Correctable production record fields.
const (
	FieldTotalEggs  = "totalEggs"
	FieldBrokenEggs = "brokenEggs"
)

// ProductionRecord is one egg count for a lot on a day.
type ProductionRecord struct {
	ID         string
	LotID      string
	Date       time.Time
	TotalEggs  int
	BrokenEggs int
}

// NewProductionRecord validates counts for a new record.
func NewProductionRecord(lotID string, date time.Time, totalEggs, brokenEggs int) (ProductionRecord, error) {
	if strings.TrimSpace(lotID) == "" {
		return ProductionRecord{}, invalid("lot id must not be blank")
	}
	if totalEggs < 0 {
		return ProductionRecord{}, invalid("total eggs cannot be negative")
	}
	if brokenEggs < 0 {
		return ProductionRecord{}, invalid("broken eggs cannot be negative")
	}
	if brokenEggs > totalEggs {
		return ProductionRecord{}, invalid("broken eggs (%d) cannot exceed total eggs (%d)", brokenEggs, totalEggs)
	}
	return ProductionRecord{LotID: lotID, Date: DateOf(date), TotalEggs: totalEggs, BrokenEggs: brokenEggs}, nil
}

// SetTotalEggs rejects negatives and totals below the broken count.
func (r *ProductionRecord) SetTotalEggs(n int) error {
	if n < 0 {
		return invalid("total eggs cannot be negative")
	}
	if n < r.BrokenEggs {
		return invalid("total eggs (%d) cannot be less than broken eggs (%d)", n, r.BrokenEggs)
	}
	r.TotalEggs = n
	return nil
}

// SetBrokenEggs rejects negatives and counts above the total.
func (r *ProductionRecord) SetBrokenEggs(n int) error {
	if n < 0 {
		return invalid("broken eggs cannot be negative")
	}
	if n > r.TotalEggs {
		return invalid("broken eggs (%d) cannot exceed total eggs (%d)", n, r.TotalEggs)
	}
	r.BrokenEggs = n
	return nil
}

// FieldValue renders a correctable field the way audit entries record it.
func (r ProductionRecord) FieldValue(field string) (string, error) {
	switch field {
	case FieldTotalEggs:
		return strconv.Itoa(r.TotalEggs), nil
	case FieldBrokenEggs:
		return strconv.Itoa(r.BrokenEggs), nil
	default:
		return "", invalid("production records have no correctable field %q", field)
	}
}

// SetField parses value and applies it to field through the field's setter.
func (r *ProductionRecord) SetField(field, value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return invalid("%s must be a whole number, got %q", field, value)
	}
	switch field {
	case FieldTotalEggs:
		return r.SetTotalEggs(n)
	case FieldBrokenEggs:
		return r.SetBrokenEggs(n)
	default:
		return invalid("production records have no correctable field %q", field)
	}
}

// BrokenRate returns broken/total as a percentage, 0 when nothing was laid.
func (r ProductionRecord) BrokenRate() float64 {
	if r.TotalEggs == 0 {
		return 0
	}
	return float64(r.BrokenEggs) / float64(r.TotalEggs) * 100
}
