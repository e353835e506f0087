package console

import (
	"fmt"
	"strconv"
	"time"

	"github.com/granjapro/granja/internal/domain"
	"github.com/granjapro/granja/internal/service"
)

func (c *Console) lotsMenu() error {
	return c.menu("Lots", "Back", []menuItem{
		{"List lots", c.listLots},
		{"Create lot", c.createLot},
		{"Record mortality", c.recordMortality},
	})
}

func (c *Console) productionMenu() error {
	return c.menu("Production", "Back", []menuItem{
		{"Record production", c.recordProduction},
		{"Records of a lot", c.listRecords},
		{"Correct one field", c.correctField},
		{"Correct a record", c.correctRecord},
		{"Broken egg percentage", c.brokenPercentage},
		{"Export to Excel", c.exportProduction},
	})
}

func (c *Console) operatorProductionMenu() error {
	return c.menu("Production", "Back", []menuItem{
		{"Record production", c.recordProduction},
		{"Records of a lot", c.listRecords},
	})
}

func (c *Console) analyticsMenu() error {
	return c.menu("Analytics & alerts", "Back", []menuItem{
		{"Run daily analysis", c.runDailyAnalysis},
		{"Weekly report", c.weeklyReport},
		{"Feed conversion ratio", c.feedConversion},
		{"Critical alerts", c.criticalAlerts},
		{"Alerts of a lot", c.lotAlerts},
		{"Resolve an alert", c.resolveAlert},
	})
}

func (c *Console) usersMenu() error {
	return c.menu("Users", "Back", []menuItem{
		{"List users", c.listUsers},
		{"Create user", c.createUser},
		{"Deactivate user", func() error { return c.setUserActive(false) }},
		{"Reactivate user", func() error { return c.setUserActive(true) }},
	})
}

func (c *Console) auditMenu() error {
	return c.menu("Audit log", "Back", []menuItem{
		{"All entries", c.auditAll},
		{"Entries for a lot", c.auditForLot},
		{"Entries for a production record", c.auditForRecord},
		{"Entries by entity type", c.auditByType},
		{"Entries by date range", c.auditByDateRange},
		{"Export to Excel", c.exportAudit},
	})
}

// Lots.

func (c *Console) listLots() error {
	lots, err := c.svc.Lots.ListLots()
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(lots))
	for _, l := range lots {
		rows = append(rows, []string{
			l.Code, l.Breed, l.PenID,
			l.IntakeDate.Format(domain.DateLayout),
			strconv.Itoa(l.InitialBirds), strconv.Itoa(l.CurrentBirds),
		})
	}
	c.table([]string{"Code", "Breed", "Pen", "Intake", "Initial", "Live"}, rows)
	return nil
}

func (c *Console) createLot() error {
	actor, err := c.svc.Auth.RequireAdmin()
	if err != nil {
		return err
	}
	code, err := c.readLine("Lot code: ")
	if err != nil {
		return err
	}
	breed, err := c.readLine("Breed: ")
	if err != nil {
		return err
	}
	birds, err := c.readInt("Initial birds: ")
	if err != nil {
		return err
	}
	pen, err := c.readLine("Pen: ")
	if err != nil {
		return err
	}
	lot, err := c.svc.Lots.CreateLot(actor, code, breed, birds, pen)
	if err != nil {
		return err
	}
	c.done("Lot %s created with %d birds.", lot.Code, lot.CurrentBirds)
	return nil
}

func (c *Console) recordMortality() error {
	actor, err := c.svc.Auth.RequireAdmin()
	if err != nil {
		return err
	}
	lot, err := c.chooseLot()
	if err != nil {
		return err
	}
	deaths, err := c.readInt("Dead birds: ")
	if err != nil {
		return err
	}
	lot, err = c.svc.Lots.RecordMortality(actor, lot.ID, deaths)
	if err != nil {
		return err
	}
	c.done("Lot %s now has %d live birds.", lot.Code, lot.CurrentBirds)
	return nil
}

func (c *Console) chooseLot() (domain.Lot, error) {
	lots, err := c.svc.Lots.ListLots()
	if err != nil {
		return domain.Lot{}, err
	}
	labels := make([]string, len(lots))
	for i, l := range lots {
		labels[i] = fmt.Sprintf("%s (%s, %d birds)", l.Code, l.Breed, l.CurrentBirds)
	}
	i, err := c.pick("Lot: ", labels)
	if err != nil {
		return domain.Lot{}, err
	}
	return lots[i], nil
}

// Production.

func (c *Console) recordProduction() error {
	actor, err := c.svc.Auth.RequireAuthenticated()
	if err != nil {
		return err
	}
	lot, err := c.chooseLot()
	if err != nil {
		return err
	}
	total, err := c.readInt("Total eggs: ")
	if err != nil {
		return err
	}
	broken, err := c.readInt("Broken eggs: ")
	if err != nil {
		return err
	}
	rec, err := c.svc.Production.RecordProduction(actor, lot.ID, total, broken)
	if err != nil {
		return err
	}
	c.done("Recorded %d eggs (%d broken) for lot %s on %s.", rec.TotalEggs, rec.BrokenEggs, lot.Code, rec.Date.Format(domain.DateLayout))
	return nil
}

func (c *Console) listRecords() error {
	lot, err := c.chooseLot()
	if err != nil {
		return err
	}
	records, err := c.svc.Production.RecordsForLot(lot.ID)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Date.Format(domain.DateLayout),
			strconv.Itoa(r.TotalEggs), strconv.Itoa(r.BrokenEggs),
			fmt.Sprintf("%.2f%%", r.BrokenRate()),
		})
	}
	c.table([]string{"Date", "Total", "Broken", "Broken %"}, rows)
	return nil
}

func (c *Console) chooseRecord() (domain.ProductionRecord, error) {
	lot, err := c.chooseLot()
	if err != nil {
		return domain.ProductionRecord{}, err
	}
	records, err := c.svc.Production.RecordsForLot(lot.ID)
	if err != nil {
		return domain.ProductionRecord{}, err
	}
	labels := make([]string, len(records))
	for i, r := range records {
		labels[i] = fmt.Sprintf("%s: %d eggs, %d broken", r.Date.Format(domain.DateLayout), r.TotalEggs, r.BrokenEggs)
	}
	i, err := c.pick("Record: ", labels)
	if err != nil {
		return domain.ProductionRecord{}, err
	}
	return records[i], nil
}

func (c *Console) correctField() error {
	actor, err := c.svc.Auth.RequireAdmin()
	if err != nil {
		return err
	}
	rec, err := c.chooseRecord()
	if err != nil {
		return err
	}
	fields := []string{domain.FieldTotalEggs, domain.FieldBrokenEggs}
	i, err := c.pick("Field: ", fields)
	if err != nil {
		return err
	}
	value, err := c.readLine("New value: ")
	if err != nil {
		return err
	}
	reason, err := c.readLine("Reason: ")
	if err != nil {
		return err
	}
	changed, err := c.svc.Production.CorrectField(actor, rec.ID, fields[i], value, reason)
	if err != nil {
		return err
	}
	if !changed {
		c.println(c.st.dim.Render("Value unchanged, nothing recorded."))
		return nil
	}
	c.done("Correction saved.")
	return nil
}

func (c *Console) correctRecord() error {
	actor, err := c.svc.Auth.RequireAdmin()
	if err != nil {
		return err
	}
	rec, err := c.chooseRecord()
	if err != nil {
		return err
	}
	var corr service.Correction
	if corr.TotalEggs, err = c.readOptionalInt(fmt.Sprintf("Total eggs [%d]: ", rec.TotalEggs)); err != nil {
		return err
	}
	if corr.BrokenEggs, err = c.readOptionalInt(fmt.Sprintf("Broken eggs [%d]: ", rec.BrokenEggs)); err != nil {
		return err
	}
	reason, err := c.readLine("Reason: ")
	if err != nil {
		return err
	}
	n, err := c.svc.Production.CorrectRecord(actor, rec.ID, corr, reason)
	if err != nil {
		if n > 0 {
			c.println(c.st.warn.Render(fmt.Sprintf("%d field(s) were corrected before the failure.", n)))
		}
		return err
	}
	c.done("%d field(s) corrected.", n)
	return nil
}

func (c *Console) brokenPercentage() error {
	lot, err := c.chooseLot()
	if err != nil {
		return err
	}
	pct, err := c.svc.Production.BrokenPercentage(lot.ID)
	if err != nil {
		return err
	}
	c.printf("Broken eggs in lot %s: %.2f%%\n", lot.Code, pct)
	return nil
}

func (c *Console) exportProduction() error {
	if _, err := c.svc.Auth.RequireAdmin(); err != nil {
		return err
	}
	lots, err := c.svc.Lots.ListLots()
	if err != nil {
		return err
	}
	records, err := c.svc.Production.ListRecords()
	if err != nil {
		return err
	}
	path := c.exportPath("production")
	if err := c.exporter.Production(lots, records, path); err != nil {
		return err
	}
	c.done("Exported %d records to %s.", len(records), path)
	return nil
}

// Analytics.

func (c *Console) runDailyAnalysis() error {
	lots, err := c.svc.Lots.ListLots()
	if err != nil {
		return err
	}
	raised := 0
	for _, l := range lots {
		alerts, err := c.svc.Analytics.RunDailyAnalysis(l.ID)
		if err != nil {
			return err
		}
		for _, a := range alerts {
			c.println(c.alertLine(a))
		}
		raised += len(alerts)
	}
	c.done("Analysed %d lots, %d new alert(s).", len(lots), raised)
	return nil
}

func (c *Console) weeklyReport() error {
	lot, err := c.chooseLot()
	if err != nil {
		return err
	}
	r, err := c.svc.Analytics.WeeklyReport(lot.ID)
	if err != nil {
		return err
	}
	c.println(c.st.title.Render(fmt.Sprintf("Lot %s, %s to %s", r.LotCode, r.From.Format(domain.DateLayout), r.To.Format(domain.DateLayout))))
	c.table([]string{"Metric", "Value"}, [][]string{
		{"Total eggs", strconv.Itoa(r.TotalEggs)},
		{"Days with records", strconv.Itoa(r.DaysWithRecords)},
		{"Average per day", fmt.Sprintf("%.1f", r.AveragePerDay)},
		{"Live birds", strconv.Itoa(r.LiveBirds)},
		{"Average laying rate", fmt.Sprintf("%.2f%%", r.AverageLayingRate)},
	})
	return nil
}

func (c *Console) feedConversion() error {
	lot, err := c.chooseLot()
	if err != nil {
		return err
	}
	fcr, err := c.svc.Analytics.FeedConversionRatio(lot.ID)
	if err != nil {
		return err
	}
	c.printf("Feed conversion ratio for lot %s today: %.2f\n", lot.Code, fcr)
	return nil
}

func (c *Console) alertLine(a domain.Alert) string {
	line := fmt.Sprintf("[%s] %s %s (%s)", a.Kind, a.Date.Format(domain.DateLayout), a.Message, a.Status)
	if a.IsCritical() {
		return c.st.err.Render(line)
	}
	return c.st.warn.Render(line)
}

func (c *Console) criticalAlerts() error {
	alerts, err := c.svc.Analytics.CriticalAlerts()
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		c.println(c.st.ok.Render("No pending critical alerts."))
	}
	for _, a := range alerts {
		c.println(c.alertLine(a))
	}
	return nil
}

func (c *Console) lotAlerts() error {
	lot, err := c.chooseLot()
	if err != nil {
		return err
	}
	alerts, err := c.svc.Analytics.LotAlerts(lot.ID)
	if err != nil {
		return err
	}
	pending, err := c.svc.Analytics.PendingAlertCount(lot.ID)
	if err != nil {
		return err
	}
	for _, a := range alerts {
		c.println(c.alertLine(a))
	}
	c.printf("%d alert(s), %d pending.\n", len(alerts), pending)
	return nil
}

func (c *Console) resolveAlert() error {
	actor, err := c.svc.Auth.RequireAdmin()
	if err != nil {
		return err
	}
	lot, err := c.chooseLot()
	if err != nil {
		return err
	}
	alerts, err := c.svc.Analytics.LotAlerts(lot.ID)
	if err != nil {
		return err
	}
	var pending []domain.Alert
	var labels []string
	for _, a := range alerts {
		if a.IsPending() {
			pending = append(pending, a)
			labels = append(labels, fmt.Sprintf("[%s] %s %s", a.Kind, a.Date.Format(domain.DateLayout), a.Message))
		}
	}
	i, err := c.pick("Alert: ", labels)
	if err != nil {
		return err
	}
	if err := c.svc.Analytics.ResolveAlert(actor, pending[i].ID); err != nil {
		return err
	}
	c.done("Alert resolved.")
	return nil
}

// Users.

func (c *Console) listUsers() error {
	ids, err := c.svc.Auth.ListIdentities()
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, []string{id.Name, string(id.Role), strconv.FormatBool(id.Active)})
	}
	c.table([]string{"Name", "Role", "Active"}, rows)
	return nil
}

func (c *Console) createUser() error {
	name, err := c.readLine("Username: ")
	if err != nil {
		return err
	}
	password, err := c.readPassword("Password: ")
	if err != nil {
		return err
	}
	roleText, err := c.readLine("Role (Admin/Operator): ")
	if err != nil {
		return err
	}
	role, err := domain.ParseRole(roleText)
	if err != nil {
		return err
	}
	created, err := c.svc.Auth.CreateIdentity(name, password, role)
	if err != nil {
		return err
	}
	c.done("User %s created as %s.", created.Name, created.Role)
	return nil
}

func (c *Console) setUserActive(active bool) error {
	ids, err := c.svc.Auth.ListIdentities()
	if err != nil {
		return err
	}
	var candidates []domain.Identity
	var labels []string
	for _, id := range ids {
		if id.Active != active {
			candidates = append(candidates, id)
			labels = append(labels, fmt.Sprintf("%s (%s)", id.Name, id.Role))
		}
	}
	i, err := c.pick("User: ", labels)
	if err != nil {
		return err
	}
	target := candidates[i]
	if active {
		err = c.svc.Auth.Reactivate(target.ID)
	} else {
		err = c.svc.Auth.Deactivate(target.ID)
	}
	if err != nil {
		return err
	}
	state := "deactivated"
	if active {
		state = "reactivated"
	}
	c.done("User %s %s.", target.Name, state)
	return nil
}

// Audit.

func (c *Console) showEntries(entries []domain.AuditEntry) {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		change := ""
		if e.Change != nil {
			change = fmt.Sprintf("%s: %s -> %s", e.Change.Field, e.Change.OldValue, e.Change.NewValue)
		}
		rows = append(rows, []string{
			e.Timestamp.In(c.nowFn().Location()).Format(time.DateTime),
			e.ActorName,
			string(e.Action),
			string(e.EntityType),
			change,
			e.Reason,
		})
	}
	c.table([]string{"When", "Who", "Action", "Entity", "Change", "Reason"}, rows)
}

func (c *Console) auditAll() error {
	actor, err := c.svc.Auth.RequireAdmin()
	if err != nil {
		return err
	}
	entries, err := c.svc.Audit.All(actor)
	if err != nil {
		return err
	}
	c.showEntries(entries)
	return nil
}

func (c *Console) auditForLot() error {
	actor, err := c.svc.Auth.RequireAdmin()
	if err != nil {
		return err
	}
	lot, err := c.chooseLot()
	if err != nil {
		return err
	}
	entries, err := c.svc.Audit.ByEntity(actor, lot.ID)
	if err != nil {
		return err
	}
	c.showEntries(entries)
	return nil
}

func (c *Console) auditForRecord() error {
	actor, err := c.svc.Auth.RequireAdmin()
	if err != nil {
		return err
	}
	rec, err := c.chooseRecord()
	if err != nil {
		return err
	}
	entries, err := c.svc.Audit.ByEntity(actor, rec.ID)
	if err != nil {
		return err
	}
	c.showEntries(entries)
	return nil
}

func (c *Console) auditByType() error {
	actor, err := c.svc.Auth.RequireAdmin()
	if err != nil {
		return err
	}
	types := []string{string(domain.EntityLot), string(domain.EntityProduction), string(domain.EntityUser)}
	i, err := c.pick("Entity type: ", types)
	if err != nil {
		return err
	}
	entries, err := c.svc.Audit.ByEntityType(actor, domain.EntityType(types[i]))
	if err != nil {
		return err
	}
	c.showEntries(entries)
	return nil
}

func (c *Console) auditByDateRange() error {
	actor, err := c.svc.Auth.RequireAdmin()
	if err != nil {
		return err
	}
	from, err := c.readDate("From (YYYY-MM-DD): ")
	if err != nil {
		return err
	}
	to, err := c.readDate("To (YYYY-MM-DD): ")
	if err != nil {
		return err
	}
	// The end date is inclusive.
	entries, err := c.svc.Audit.ByDateRange(actor, from, to.AddDate(0, 0, 1).Add(-time.Nanosecond))
	if err != nil {
		return err
	}
	c.showEntries(entries)
	return nil
}

func (c *Console) exportAudit() error {
	actor, err := c.svc.Auth.RequireAdmin()
	if err != nil {
		return err
	}
	entries, err := c.svc.Audit.All(actor)
	if err != nil {
		return err
	}
	path := c.exportPath("audit")
	if err := c.exporter.Audit(entries, path); err != nil {
		return err
	}
	c.done("Exported %d entries to %s.", len(entries), path)
	return nil
}
