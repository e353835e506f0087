package service

import (
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/granjapro/granja/internal/domain"
)

// LotService creates lots and tracks their live bird counts.
type LotService struct {
	lots  LotStore
	audit AuditLog
	nowFn func() time.Time
	log   *zap.Logger
}

func NewLotService(lots LotStore, audit AuditLog, opts ...Option) *LotService {
	o := buildOptions(opts)
	return &LotService{lots: lots, audit: audit, nowFn: o.nowFn, log: o.logger.Named("lots")}
}

// CreateLot registers a lot entering today with all its birds alive. Admin only.
func (s *LotService) CreateLot(actor domain.Identity, code, breed string, initialBirds int, penID string) (domain.Lot, error) {
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return domain.Lot{}, err
	}
	now := s.nowFn()
	lot, err := domain.NewLot(code, breed, initialBirds, penID, now)
	if err != nil {
		return domain.Lot{}, err
	}
	saved, err := s.lots.Save(lot)
	if err != nil {
		return domain.Lot{}, err
	}
	entry := domain.NewActionEntry(actor, saved.ID, domain.EntityLot, domain.ActionCreate,
		fmt.Sprintf("lot %s created with %d birds", saved.Code, saved.InitialBirds), now)
	if _, err := s.audit.Append(entry); err != nil {
		s.log.Error("lot stored without audit entry", zap.String("lot", saved.ID), zap.Error(err))
		return domain.Lot{}, fmt.Errorf("audit lot creation: %w", err)
	}
	s.log.Info("lot created", zap.String("actor", actor.Name), zap.String("lot", saved.ID), zap.String("code", saved.Code))
	return saved, nil
}

// RecordMortality subtracts deaths from a lot's live count. Admin only.
func (s *LotService) RecordMortality(actor domain.Identity, lotID string, deaths int) (domain.Lot, error) {
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return domain.Lot{}, err
	}
	lot, err := s.GetLot(lotID)
	if err != nil {
		return domain.Lot{}, err
	}
	updated := lot
	if err := updated.RecordDeaths(deaths); err != nil {
		return domain.Lot{}, err
	}

	entry := domain.NewUpdateEntry(actor, lot.ID, domain.EntityLot, domain.FieldCurrentBirds,
		strconv.Itoa(lot.CurrentBirds), strconv.Itoa(updated.CurrentBirds),
		fmt.Sprintf("mortality: %d birds", deaths), s.nowFn())
	if _, err := s.audit.Append(entry); err != nil {
		return domain.Lot{}, fmt.Errorf("audit mortality: %w", err)
	}
	saved, err := s.lots.Save(updated)
	if err != nil {
		return domain.Lot{}, err
	}
	s.log.Info("mortality recorded", zap.String("lot", lot.ID), zap.Int("deaths", deaths), zap.Int("live", saved.CurrentBirds))
	return saved, nil
}

func (s *LotService) GetLot(id string) (domain.Lot, error) {
	if err := requireID("lot", id); err != nil {
		return domain.Lot{}, err
	}
	lot, ok, err := s.lots.FindByID(id)
	if err != nil {
		return domain.Lot{}, err
	}
	if !ok {
		return domain.Lot{}, domain.NotFound("lot", id)
	}
	return lot, nil
}

func (s *LotService) ListLots() ([]domain.Lot, error) {
	return s.lots.FindAll()
}
