package domain

import (
	"strings"
	"time"
)

// Lot is a flock of hens housed together in one pen.
type Lot struct {
	ID           string
	Code         string
	Breed        string
	InitialBirds int
	CurrentBirds int
	IntakeDate   time.Time
	PenID        string
}

// FieldCurrentBirds names the lot field changed by mortality records.
const FieldCurrentBirds = "currentBirds"

// NewLot validates user input for a new lot. The current count starts at the initial count.
func NewLot(code, breed string, initialBirds int, penID string, intake time.Time) (Lot, error) {
	if strings.TrimSpace(code) == "" {
		return Lot{}, invalid("lot code must not be blank")
	}
	if strings.TrimSpace(breed) == "" {
		return Lot{}, invalid("breed must not be blank")
	}
	if initialBirds <= 0 {
		return Lot{}, invalid("initial bird count must be greater than zero")
	}
	if strings.TrimSpace(penID) == "" {
		return Lot{}, invalid("pen id must not be blank")
	}
	return Lot{
		Code:         strings.TrimSpace(code),
		Breed:        strings.TrimSpace(breed),
		InitialBirds: initialBirds,
		CurrentBirds: initialBirds,
		IntakeDate:   DateOf(intake),
		PenID:        strings.TrimSpace(penID),
	}, nil
}

// SetCurrentBirds enforces 0 <= n <= InitialBirds.
func (l *Lot) SetCurrentBirds(n int) error {
	if n < 0 {
		return invalid("current bird count cannot be negative")
	}
	if n > l.InitialBirds {
		return invalid("current bird count cannot exceed the initial count %d", l.InitialBirds)
	}
	l.CurrentBirds = n
	return nil
}

// RecordDeaths subtracts deaths from the live count.
func (l *Lot) RecordDeaths(deaths int) error {
	if deaths <= 0 {
		return invalid("number of deaths must be greater than zero")
	}
	return l.SetCurrentBirds(l.CurrentBirds - deaths)
}

// DateOf truncates t to its calendar day in t's location, expressed in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateLayout is the persisted form of calendar dates.
const DateLayout = "2006-01-02"
