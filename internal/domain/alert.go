package domain

import (
	"strings"
	"time"
)

// AlertKind grades how urgent an alert is.
type AlertKind string

const (
	AlertCritical AlertKind = "Critical"
	AlertWarning  AlertKind = "Warning"
	AlertInfo     AlertKind = "Info"
)

func ParseAlertKind(s string) (AlertKind, error) {
	for _, k := range []AlertKind{AlertCritical, AlertWarning, AlertInfo} {
		if strings.EqualFold(strings.TrimSpace(s), string(k)) {
			return k, nil
		}
	}
	return "", invalid("unknown alert kind %q", s)
}

// AlertStatus tracks whether someone has dealt with an alert.
type AlertStatus string

const (
	AlertPending  AlertStatus = "Pending"
	AlertResolved AlertStatus = "Resolved"
)

func ParseAlertStatus(s string) (AlertStatus, error) {
	for _, st := range []AlertStatus{AlertPending, AlertResolved} {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, nil
		}
	}
	return "", invalid("unknown alert status %q", s)
}

// Alert is raised by the analytics checks for a lot.
type Alert struct {
	ID      string
	Date    time.Time
	LotID   string
	Kind    AlertKind
	Message string
	Status  AlertStatus
}

// NewAlert returns a pending alert dated on day.
func NewAlert(lotID string, kind AlertKind, message string, day time.Time) (Alert, error) {
	if strings.TrimSpace(lotID) == "" {
		return Alert{}, invalid("alert needs a lot id")
	}
	if _, err := ParseAlertKind(string(kind)); err != nil {
		return Alert{}, err
	}
	if strings.TrimSpace(message) == "" {
		return Alert{}, invalid("alert message must not be blank")
	}
	return Alert{Date: DateOf(day), LotID: lotID, Kind: kind, Message: message, Status: AlertPending}, nil
}

func (a *Alert) Resolve() { a.Status = AlertResolved }

func (a Alert) IsPending() bool { return a.Status == AlertPending }

func (a Alert) IsCritical() bool { return a.Kind == AlertCritical }
