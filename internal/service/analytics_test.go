package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/granjapro/granja/internal/domain"
)

func TestDailyAnalysisRaisesWarningOnce(t *testing.T) {
	f := newFixture(t)
	admin := f.asAdmin(t)
	lot := f.newLot(t, admin, 100)

	alerts, err := f.analytics.RunDailyAnalysis(lot.ID)
	require.NoError(t, err)
	assert.Empty(t, alerts, "no records today, nothing to check")

	_, err = f.prodSvc.RecordProduction(admin, lot.ID, 60, 1)
	require.NoError(t, err)

	alerts, err = f.analytics.RunDailyAnalysis(lot.ID)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.AlertWarning, alerts[0].Kind)
	assert.Contains(t, alerts[0].Message, "60.00%")

	alerts, err = f.analytics.RunDailyAnalysis(lot.ID)
	require.NoError(t, err)
	assert.Empty(t, alerts)

	n, err := f.analytics.PendingAlertCount(lot.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = f.analytics.PendingAlertCount("")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDailyAnalysisHealthyLot(t *testing.T) {
	f := newFixture(t)
	admin := f.asAdmin(t)
	lot := f.newLot(t, admin, 100)

	_, err := f.prodSvc.RecordProduction(admin, lot.ID, 70, 0)
	require.NoError(t, err)

	alerts, err := f.analytics.RunDailyAnalysis(lot.ID)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestDailyAnalysisCriticalWithoutLiveBirds(t *testing.T) {
	f := newFixture(t)
	admin := f.asAdmin(t)
	lot := f.newLot(t, admin, 10)

	_, err := f.prodSvc.RecordProduction(admin, lot.ID, 5, 0)
	require.NoError(t, err)
	_, err = f.lotSvc.RecordMortality(admin, lot.ID, 10)
	require.NoError(t, err)

	alerts, err := f.analytics.RunDailyAnalysis(lot.ID)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.AlertCritical, alerts[0].Kind)

	critical, err := f.analytics.CriticalAlerts()
	require.NoError(t, err)
	require.Len(t, critical, 1)

	operator := domain.Identity{ID: "op", Name: "alice", Role: domain.RoleOperator, Active: true}
	assert.ErrorIs(t, f.analytics.ResolveAlert(operator, critical[0].ID), domain.ErrForbidden)
	require.NoError(t, f.analytics.ResolveAlert(admin, critical[0].ID))

	critical, err = f.analytics.CriticalAlerts()
	require.NoError(t, err)
	assert.Empty(t, critical)

	all, err := f.analytics.LotAlerts(lot.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestFeedConversionRatio(t *testing.T) {
	f := newFixture(t)
	admin := f.asAdmin(t)
	lot := f.newLot(t, admin, 100)

	ratio, err := f.analytics.FeedConversionRatio(lot.ID)
	require.NoError(t, err)
	assert.Zero(t, ratio)

	_, err = f.prodSvc.RecordProduction(admin, lot.ID, 50, 0)
	require.NoError(t, err)

	// 100 birds * 0.115 kg / (50 eggs * 0.060 kg)
	ratio, err = f.analytics.FeedConversionRatio(lot.ID)
	require.NoError(t, err)
	assert.InDelta(t, 11.5/3.0, ratio, 1e-9)

	_, err = f.analytics.FeedConversionRatio("missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWeeklyReport(t *testing.T) {
	f := newFixture(t)
	admin := f.asAdmin(t)
	lot := f.newLot(t, admin, 100)
	today := f.now

	record := func(daysAgo, eggs int) {
		f.now = today.AddDate(0, 0, -daysAgo)
		_, err := f.prodSvc.RecordProduction(admin, lot.ID, eggs, 0)
		require.NoError(t, err)
	}
	record(0, 80)
	record(0, 10)
	record(3, 70)
	record(7, 60)
	record(8, 1000)
	f.now = today

	r, err := f.analytics.WeeklyReport(lot.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DateOf(today), r.To)
	assert.Equal(t, domain.DateOf(today).AddDate(0, 0, -7), r.From)
	assert.Equal(t, 220, r.TotalEggs)
	assert.Equal(t, 3, r.DaysWithRecords)
	assert.InDelta(t, 220.0/3, r.AveragePerDay, 1e-9)
	assert.Equal(t, 100, r.LiveBirds)
	assert.InDelta(t, 220.0/3, r.AverageLayingRate, 1e-9)
	assert.Equal(t, "L-01", r.LotCode)

	f.now = today.Add(30 * 24 * time.Hour)
	r, err = f.analytics.WeeklyReport(lot.ID)
	require.NoError(t, err)
	assert.Zero(t, r.TotalEggs)
	assert.Zero(t, r.AveragePerDay)
}
