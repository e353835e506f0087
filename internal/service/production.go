package service

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/granjapro/granja/internal/domain"
)

// ProductionService records egg counts and applies audited corrections to them.
type ProductionService struct {
	records ProductionStore
	lots    LotStore
	audit   AuditLog
	nowFn   func() time.Time
	log     *zap.Logger
}

func NewProductionService(records ProductionStore, lots LotStore, audit AuditLog, opts ...Option) *ProductionService {
	o := buildOptions(opts)
	return &ProductionService{
		records: records,
		lots:    lots,
		audit:   audit,
		nowFn:   o.nowFn,
		log:     o.logger.Named("production"),
	}
}

// RecordProduction stores today's egg count for a lot. Any logged-in identity may record.
func (s *ProductionService) RecordProduction(actor domain.Identity, lotID string, totalEggs, brokenEggs int) (domain.ProductionRecord, error) {
	if err := requireAuthenticated(actor); err != nil {
		return domain.ProductionRecord{}, err
	}
	if err := requireID("lot", lotID); err != nil {
		return domain.ProductionRecord{}, err
	}
	if _, ok, err := s.lots.FindByID(lotID); err != nil {
		return domain.ProductionRecord{}, err
	} else if !ok {
		return domain.ProductionRecord{}, domain.NotFound("lot", lotID)
	}

	rec, err := domain.NewProductionRecord(lotID, s.nowFn(), totalEggs, brokenEggs)
	if err != nil {
		return domain.ProductionRecord{}, err
	}
	saved, err := s.records.Save(rec)
	if err != nil {
		return domain.ProductionRecord{}, err
	}
	s.log.Info("production recorded",
		zap.String("actor", actor.Name),
		zap.String("lot", lotID),
		zap.Int("total", totalEggs),
		zap.Int("broken", brokenEggs),
	)
	return saved, nil
}

func (s *ProductionService) RecordsForLot(lotID string) ([]domain.ProductionRecord, error) {
	if err := requireID("lot", lotID); err != nil {
		return nil, err
	}
	return s.records.FindByLot(lotID)
}

func (s *ProductionService) ListRecords() ([]domain.ProductionRecord, error) {
	return s.records.FindAll()
}

func (s *ProductionService) GetRecord(id string) (domain.ProductionRecord, error) {
	if err := requireID("production record", id); err != nil {
		return domain.ProductionRecord{}, err
	}
	rec, ok, err := s.records.FindByID(id)
	if err != nil {
		return domain.ProductionRecord{}, err
	}
	if !ok {
		return domain.ProductionRecord{}, domain.NotFound("production record", id)
	}
	return rec, nil
}

// BrokenPercentage is broken/total over every record of the lot, 0 without eggs.
func (s *ProductionService) BrokenPercentage(lotID string) (float64, error) {
	records, err := s.RecordsForLot(lotID)
	if err != nil {
		return 0, err
	}
	var total, broken int
	for _, r := range records {
		total += r.TotalEggs
		broken += r.BrokenEggs
	}
	if total == 0 {
		return 0, nil
	}
	return float64(broken) / float64(total) * 100, nil
}

// CorrectField changes one field of a production record. The audit entry is
// appended before the record is saved. Setting a field to its current value
// is a silent no-op; the returned bool reports whether anything changed.
// Admin only.
func (s *ProductionService) CorrectField(actor domain.Identity, recordID, field, newValue, reason string) (bool, error) {
	if strings.TrimSpace(reason) == "" {
		return false, fmt.Errorf("%w: a reason is required for corrections", domain.ErrValidation)
	}
	if actor.ID == "" {
		return false, fmt.Errorf("%w: corrections need an actor", domain.ErrValidation)
	}
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return false, err
	}

	rec, err := s.GetRecord(recordID)
	if err != nil {
		return false, err
	}
	current, err := rec.FieldValue(field)
	if err != nil {
		return false, err
	}

	// Validate on a copy so a rejected value never reaches the audit log.
	updated := rec
	if err := updated.SetField(field, newValue); err != nil {
		return false, err
	}
	next, _ := updated.FieldValue(field)
	if next == current {
		s.log.Debug("correction skipped, value unchanged", zap.String("record", rec.ID), zap.String("field", field))
		return false, nil
	}

	entry := domain.NewUpdateEntry(actor, rec.ID, domain.EntityProduction, field, current, next, strings.TrimSpace(reason), s.nowFn())
	if _, err := s.audit.Append(entry); err != nil {
		return false, fmt.Errorf("audit correction: %w", err)
	}
	if _, err := s.records.Save(updated); err != nil {
		return false, err
	}
	s.log.Info("correction applied",
		zap.String("actor", actor.Name),
		zap.String("record", rec.ID),
		zap.String("field", field),
		zap.String("old", current),
		zap.String("new", next),
	)
	return true, nil
}

// Correction lists the fields to change; nil fields are left alone.
type Correction struct {
	TotalEggs  *int
	BrokenEggs *int
}

// CorrectRecord runs CorrectField for each supplied field in turn and stops at
// the first failure. Fields corrected before the failure stay applied and
// audited. It returns how many fields changed.
func (s *ProductionService) CorrectRecord(actor domain.Identity, recordID string, c Correction, reason string) (int, error) {
	type step struct {
		field string
		value int
	}
	var steps []step
	if c.TotalEggs != nil {
		steps = append(steps, step{domain.FieldTotalEggs, *c.TotalEggs})
	}
	if c.BrokenEggs != nil {
		steps = append(steps, step{domain.FieldBrokenEggs, *c.BrokenEggs})
	}
	if len(steps) == 0 {
		return 0, fmt.Errorf("%w: nothing to correct", domain.ErrValidation)
	}

	// Lowering the total below the current broken count only works once the
	// broken count has come down, so apply broken first in that case.
	if len(steps) == 2 {
		rec, err := s.GetRecord(recordID)
		if err != nil {
			return 0, err
		}
		if *c.TotalEggs < rec.BrokenEggs {
			steps[0], steps[1] = steps[1], steps[0]
		}
	}

	applied := 0
	for _, st := range steps {
		changed, err := s.CorrectField(actor, recordID, st.field, fmt.Sprint(st.value), reason)
		if err != nil {
			return applied, fmt.Errorf("correct %s: %w", st.field, err)
		}
		if changed {
			applied++
		}
	}
	return applied, nil
}
