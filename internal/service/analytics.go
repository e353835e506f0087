package service

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/granjapro/granja/internal/domain"
)

// Thresholds parameterise the analytics checks.
type Thresholds struct {
	// LayingRate is the minimum acceptable eggs per live bird, in percent.
	LayingRate    float64
	FeedPerBirdKg float64
	EggWeightKg   float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{LayingRate: 70, FeedPerBirdKg: 0.115, EggWeightKg: 0.060}
}

// reportDays is how far back WeeklyReport looks, today included.
const reportDays = 7

// WeeklyReport summarises a lot's recent production.
type WeeklyReport struct {
	LotID             string
	LotCode           string
	From, To          time.Time
	TotalEggs         int
	DaysWithRecords   int
	AveragePerDay     float64
	LiveBirds         int
	AverageLayingRate float64
}

// AnalyticsService computes production KPIs and raises alerts.
type AnalyticsService struct {
	lots       LotStore
	production ProductionStore
	alerts     AlertStore
	thresholds Thresholds
	nowFn      func() time.Time
	log        *zap.Logger
}

func NewAnalyticsService(lots LotStore, production ProductionStore, alerts AlertStore, t Thresholds, opts ...Option) *AnalyticsService {
	o := buildOptions(opts)
	return &AnalyticsService{
		lots:       lots,
		production: production,
		alerts:     alerts,
		thresholds: t,
		nowFn:      o.nowFn,
		log:        o.logger.Named("analytics"),
	}
}

func (s *AnalyticsService) lot(lotID string) (domain.Lot, error) {
	if err := requireID("lot", lotID); err != nil {
		return domain.Lot{}, err
	}
	lot, ok, err := s.lots.FindByID(lotID)
	if err != nil {
		return domain.Lot{}, err
	}
	if !ok {
		return domain.Lot{}, domain.NotFound("lot", lotID)
	}
	return lot, nil
}

// eggsBetween sums total eggs and counts distinct days with records in [from, to].
func (s *AnalyticsService) eggsBetween(lotID string, from, to time.Time) (eggs, days int, err error) {
	records, err := s.production.FindByLot(lotID)
	if err != nil {
		return 0, 0, err
	}
	seen := make(map[time.Time]bool)
	for _, r := range records {
		if r.Date.Before(from) || r.Date.After(to) {
			continue
		}
		eggs += r.TotalEggs
		seen[r.Date] = true
	}
	return eggs, len(seen), nil
}

// LayingRate is eggs per live bird in percent, 0 with no live birds.
func LayingRate(eggs, liveBirds int) float64 {
	if liveBirds <= 0 {
		return 0
	}
	return float64(eggs) / float64(liveBirds) * 100
}

// RunDailyAnalysis checks today's production of a lot and stores any alert it
// raises. Without records for today there is nothing to check. An alert already
// pending for the same lot, day and kind is not raised again.
func (s *AnalyticsService) RunDailyAnalysis(lotID string) ([]domain.Alert, error) {
	lot, err := s.lot(lotID)
	if err != nil {
		return nil, err
	}
	today := domain.DateOf(s.nowFn())
	eggs, days, err := s.eggsBetween(lot.ID, today, today)
	if err != nil {
		return nil, err
	}
	raised := make([]domain.Alert, 0)
	if days == 0 {
		return raised, nil
	}

	var kind domain.AlertKind
	var msg string
	rate := LayingRate(eggs, lot.CurrentBirds)
	switch {
	case lot.CurrentBirds == 0 && eggs > 0:
		kind = domain.AlertCritical
		msg = fmt.Sprintf("lot %s recorded %d eggs but has no live birds", lot.Code, eggs)
	case rate < s.thresholds.LayingRate:
		kind = domain.AlertWarning
		msg = fmt.Sprintf("low production in lot %s: laying rate %.2f%% (expected >= %.0f%%)", lot.Code, rate, s.thresholds.LayingRate)
	default:
		return raised, nil
	}

	pending, err := s.alerts.FindPendingByLot(lot.ID)
	if err != nil {
		return nil, err
	}
	for _, a := range pending {
		if a.Kind == kind && a.Date.Equal(today) {
			return raised, nil
		}
	}

	alert, err := domain.NewAlert(lot.ID, kind, msg, today)
	if err != nil {
		return nil, err
	}
	alert, err = s.alerts.Save(alert)
	if err != nil {
		return nil, err
	}
	s.log.Warn("alert raised", zap.String("lot", lot.ID), zap.String("kind", string(kind)), zap.Float64("laying_rate", rate))
	return append(raised, alert), nil
}

// FeedConversionRatio is feed eaten today over egg mass laid today, both in kg.
// It is 0 when nothing was laid.
func (s *AnalyticsService) FeedConversionRatio(lotID string) (float64, error) {
	lot, err := s.lot(lotID)
	if err != nil {
		return 0, err
	}
	today := domain.DateOf(s.nowFn())
	eggs, _, err := s.eggsBetween(lot.ID, today, today)
	if err != nil {
		return 0, err
	}
	eggMass := float64(eggs) * s.thresholds.EggWeightKg
	if eggMass <= 0 {
		return 0, nil
	}
	feed := float64(lot.CurrentBirds) * s.thresholds.FeedPerBirdKg
	return feed / eggMass, nil
}

// WeeklyReport covers the reportDays days before today and today itself.
func (s *AnalyticsService) WeeklyReport(lotID string) (WeeklyReport, error) {
	lot, err := s.lot(lotID)
	if err != nil {
		return WeeklyReport{}, err
	}
	to := domain.DateOf(s.nowFn())
	from := to.AddDate(0, 0, -reportDays)
	eggs, days, err := s.eggsBetween(lot.ID, from, to)
	if err != nil {
		return WeeklyReport{}, err
	}
	r := WeeklyReport{
		LotID:           lot.ID,
		LotCode:         lot.Code,
		From:            from,
		To:              to,
		TotalEggs:       eggs,
		DaysWithRecords: days,
		LiveBirds:       lot.CurrentBirds,
	}
	if days > 0 {
		r.AveragePerDay = float64(eggs) / float64(days)
		r.AverageLayingRate = LayingRate(eggs, lot.CurrentBirds) / float64(days)
	}
	return r, nil
}

func (s *AnalyticsService) CriticalAlerts() ([]domain.Alert, error) {
	return s.alerts.FindCriticalPending()
}

func (s *AnalyticsService) LotAlerts(lotID string) ([]domain.Alert, error) {
	if err := requireID("lot", lotID); err != nil {
		return nil, err
	}
	return s.alerts.FindByLot(lotID)
}

// PendingAlertCount is 0 for a blank lot id.
func (s *AnalyticsService) PendingAlertCount(lotID string) (int, error) {
	if strings.TrimSpace(lotID) == "" {
		return 0, nil
	}
	pending, err := s.alerts.FindPendingByLot(lotID)
	return len(pending), err
}

func (s *AnalyticsService) TotalPendingAlerts() (int, error) {
	return s.alerts.CountPending()
}

// ResolveAlert marks an alert handled. Admin only.
func (s *AnalyticsService) ResolveAlert(actor domain.Identity, alertID string) error {
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return err
	}
	if err := requireID("alert", alertID); err != nil {
		return err
	}
	if err := s.alerts.Resolve(alertID); err != nil {
		return err
	}
	s.log.Info("alert resolved", zap.String("actor", actor.Name), zap.String("alert", alertID))
	return nil
}
