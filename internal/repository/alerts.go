package repository

import (
	"sort"
	"time"

	"github.com/granjapro/granja/internal/domain"
	"github.com/granjapro/granja/pkg/docstore"
)

type alertDoc struct {
	ID      string `json:"id"`
	Date    string `json:"date"`
	LotID   string `json:"lotId"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func (d alertDoc) toDomain() (domain.Alert, error) {
	day, err := time.Parse(domain.DateLayout, d.Date)
	if err != nil {
		return domain.Alert{}, corrupt(CollectionAlerts, d.ID, err)
	}
	kind, err := domain.ParseAlertKind(d.Kind)
	if err != nil {
		return domain.Alert{}, corrupt(CollectionAlerts, d.ID, err)
	}
	status, err := domain.ParseAlertStatus(d.Status)
	if err != nil {
		return domain.Alert{}, corrupt(CollectionAlerts, d.ID, err)
	}
	a, err := domain.NewAlert(d.LotID, kind, d.Message, day)
	if err != nil {
		return domain.Alert{}, corrupt(CollectionAlerts, d.ID, err)
	}
	a.ID, a.Status = d.ID, status
	return a, nil
}

func alertToDoc(a domain.Alert) alertDoc {
	return alertDoc{
		ID:      a.ID,
		Date:    a.Date.Format(domain.DateLayout),
		LotID:   a.LotID,
		Kind:    string(a.Kind),
		Message: a.Message,
		Status:  string(a.Status),
	}
}

type AlertRepository struct {
	store docstore.Store
}

func NewAlertRepository(s docstore.Store) *AlertRepository {
	return &AlertRepository{store: s}
}

func (r *AlertRepository) Save(a domain.Alert) (domain.Alert, error) {
	if a.ID == "" {
		a.ID = newID()
	}
	if err := docstore.Put(r.store, CollectionAlerts, a.ID, alertToDoc(a)); err != nil {
		return domain.Alert{}, err
	}
	return a, nil
}

func (r *AlertRepository) FindByID(id string) (domain.Alert, bool, error) {
	doc, ok, err := lookup[alertDoc](r.store, CollectionAlerts, id)
	if err != nil || !ok {
		return domain.Alert{}, false, err
	}
	a, err := doc.toDomain()
	if err != nil {
		return domain.Alert{}, false, err
	}
	return a, true, nil
}

func (r *AlertRepository) FindByLot(lotID string) ([]domain.Alert, error) {
	return r.filter(func(a domain.Alert) bool { return a.LotID == lotID })
}

func (r *AlertRepository) FindPendingByLot(lotID string) ([]domain.Alert, error) {
	return r.filter(func(a domain.Alert) bool { return a.LotID == lotID && a.IsPending() })
}

func (r *AlertRepository) FindByKind(kind domain.AlertKind) ([]domain.Alert, error) {
	return r.filter(func(a domain.Alert) bool { return a.Kind == kind })
}

// FindByDateRange returns alerts dated within [from, to], both days inclusive.
func (r *AlertRepository) FindByDateRange(from, to time.Time) ([]domain.Alert, error) {
	from, to = domain.DateOf(from), domain.DateOf(to)
	return r.filter(func(a domain.Alert) bool { return !a.Date.Before(from) && !a.Date.After(to) })
}

func (r *AlertRepository) FindCriticalPending() ([]domain.Alert, error) {
	return r.filter(func(a domain.Alert) bool { return a.IsCritical() && a.IsPending() })
}

// Resolve marks an alert resolved. Resolving twice is a no-op.
func (r *AlertRepository) Resolve(id string) error {
	a, ok, err := r.FindByID(id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NotFound("alert", id)
	}
	if !a.IsPending() {
		return nil
	}
	a.Resolve()
	_, err = r.Save(a)
	return err
}

func (r *AlertRepository) CountPending() (int, error) {
	pending, err := r.filter(func(a domain.Alert) bool { return a.IsPending() })
	return len(pending), err
}

func (r *AlertRepository) CountByKind(kind domain.AlertKind) (int, error) {
	alerts, err := r.FindByKind(kind)
	return len(alerts), err
}

// filter returns matching alerts, newest day first.
func (r *AlertRepository) filter(keep func(domain.Alert) bool) ([]domain.Alert, error) {
	docs, err := docstore.All[alertDoc](r.store, CollectionAlerts)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Alert, 0)
	for _, d := range docs {
		a, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].Date.Equal(out[b].Date) {
			return out[a].Date.After(out[b].Date)
		}
		return out[a].ID > out[b].ID
	})
	return out, nil
}
