package repository

import (
	"sort"
	"time"

	"github.com/granjapro/granja/internal/domain"
	"github.com/granjapro/granja/pkg/docstore"
)

type lotDoc struct {
	ID           string `json:"id"`
	Code         string `json:"code"`
	Breed        string `json:"breed"`
	InitialBirds int    `json:"initialBirds"`
	CurrentBirds int    `json:"currentBirds"`
	IntakeDate   string `json:"intakeDate"`
	PenID        string `json:"penId"`
}

func (d lotDoc) toDomain() (domain.Lot, error) {
	intake, err := time.Parse(domain.DateLayout, d.IntakeDate)
	if err != nil {
		return domain.Lot{}, corrupt(CollectionLots, d.ID, err)
	}
	lot, err := domain.NewLot(d.Code, d.Breed, d.InitialBirds, d.PenID, intake)
	if err != nil {
		return domain.Lot{}, corrupt(CollectionLots, d.ID, err)
	}
	lot.ID = d.ID
	if err := lot.SetCurrentBirds(d.CurrentBirds); err != nil {
		return domain.Lot{}, corrupt(CollectionLots, d.ID, err)
	}
	return lot, nil
}

func lotToDoc(l domain.Lot) lotDoc {
	return lotDoc{
		ID:           l.ID,
		Code:         l.Code,
		Breed:        l.Breed,
		InitialBirds: l.InitialBirds,
		CurrentBirds: l.CurrentBirds,
		IntakeDate:   l.IntakeDate.Format(domain.DateLayout),
		PenID:        l.PenID,
	}
}

type LotRepository struct {
	store docstore.Store
}

func NewLotRepository(s docstore.Store) *LotRepository {
	return &LotRepository{store: s}
}

// Save inserts or replaces a lot. New lots get an id.
func (r *LotRepository) Save(l domain.Lot) (domain.Lot, error) {
	if l.ID == "" {
		l.ID = newID()
	}
	if err := docstore.Put(r.store, CollectionLots, l.ID, lotToDoc(l)); err != nil {
		return domain.Lot{}, err
	}
	return l, nil
}

func (r *LotRepository) FindByID(id string) (domain.Lot, bool, error) {
	doc, ok, err := lookup[lotDoc](r.store, CollectionLots, id)
	if err != nil || !ok {
		return domain.Lot{}, false, err
	}
	l, err := doc.toDomain()
	if err != nil {
		return domain.Lot{}, false, err
	}
	return l, true, nil
}

// FindAll returns every lot ordered by intake date, then code.
func (r *LotRepository) FindAll() ([]domain.Lot, error) {
	docs, err := docstore.All[lotDoc](r.store, CollectionLots)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Lot, 0, len(docs))
	for _, d := range docs {
		l, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].IntakeDate.Equal(out[b].IntakeDate) {
			return out[a].IntakeDate.Before(out[b].IntakeDate)
		}
		return out[a].Code < out[b].Code
	})
	return out, nil
}
