package repository

import (
	"sort"
	"time"

	"github.com/granjapro/granja/internal/domain"
	"github.com/granjapro/granja/pkg/docstore"
)

type productionDoc struct {
	ID         string `json:"id"`
	LotID      string `json:"lotId"`
	Date       string `json:"date"`
	TotalEggs  int    `json:"totalEggs"`
	BrokenEggs int    `json:"brokenEggs"`
}

func (d productionDoc) toDomain() (domain.ProductionRecord, error) {
	day, err := time.Parse(domain.DateLayout, d.Date)
	if err != nil {
		return domain.ProductionRecord{}, corrupt(CollectionProduction, d.ID, err)
	}
	rec, err := domain.NewProductionRecord(d.LotID, day, d.TotalEggs, d.BrokenEggs)
	if err != nil {
		return domain.ProductionRecord{}, corrupt(CollectionProduction, d.ID, err)
	}
	rec.ID = d.ID
	return rec, nil
}

func productionToDoc(p domain.ProductionRecord) productionDoc {
	return productionDoc{
		ID:         p.ID,
		LotID:      p.LotID,
		Date:       p.Date.Format(domain.DateLayout),
		TotalEggs:  p.TotalEggs,
		BrokenEggs: p.BrokenEggs,
	}
}

type ProductionRepository struct {
	store docstore.Store
}

func NewProductionRepository(s docstore.Store) *ProductionRepository {
	return &ProductionRepository{store: s}
}

func (r *ProductionRepository) Save(p domain.ProductionRecord) (domain.ProductionRecord, error) {
	if p.ID == "" {
		p.ID = newID()
	}
	if err := docstore.Put(r.store, CollectionProduction, p.ID, productionToDoc(p)); err != nil {
		return domain.ProductionRecord{}, err
	}
	return p, nil
}

func (r *ProductionRepository) FindByID(id string) (domain.ProductionRecord, bool, error) {
	doc, ok, err := lookup[productionDoc](r.store, CollectionProduction, id)
	if err != nil || !ok {
		return domain.ProductionRecord{}, false, err
	}
	p, err := doc.toDomain()
	if err != nil {
		return domain.ProductionRecord{}, false, err
	}
	return p, true, nil
}

// FindAll returns every record, oldest day first.
func (r *ProductionRepository) FindAll() ([]domain.ProductionRecord, error) {
	return r.filter(func(domain.ProductionRecord) bool { return true })
}

// FindByLot returns a lot's records in chronological order.
func (r *ProductionRepository) FindByLot(lotID string) ([]domain.ProductionRecord, error) {
	return r.filter(func(p domain.ProductionRecord) bool { return p.LotID == lotID })
}

func (r *ProductionRepository) filter(keep func(domain.ProductionRecord) bool) ([]domain.ProductionRecord, error) {
	docs, err := docstore.All[productionDoc](r.store, CollectionProduction)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ProductionRecord, 0)
	for _, d := range docs {
		p, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].Date.Equal(out[b].Date) {
			return out[a].Date.Before(out[b].Date)
		}
		return out[a].ID < out[b].ID
	})
	return out, nil
}
