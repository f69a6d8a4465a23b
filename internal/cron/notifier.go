// Package cron runs background jobs of the API server.
package cron

import (
	"context"
	"fmt"
	"log"
	"time"

	"sesmt-backend/internal/compliance"
	"sesmt-backend/internal/models"
	"sesmt-backend/internal/repository"
)

// EmployeeSource lists employees with their stored tracks.
type EmployeeSource interface {
	List(ctx context.Context, f models.EmployeeFilter) ([]models.EmployeeRecord, error)
}

// EntityDocumentSource lists entity documents newest first.
type EntityDocumentSource interface {
	List(ctx context.Context) ([]models.EntityDocument, error)
}

// NotificationSink stores alerts, ignoring ones already written today.
type NotificationSink interface {
	Insert(ctx context.Context, n repository.NotificationInput) (bool, error)
}

// Notification types, one per alerting status.
const (
	TypeExpired   = "track_expired"
	TypeRenewSoon = "track_renew_soon"
)

// Notifier turns expired and renew-soon tracks into in-app notifications.
type Notifier struct {
	employees EmployeeSource
	docs      EntityDocumentSource
	sink      NotificationSink
	now       func() time.Time
}

// NewNotifier creates a Notifier. now supplies the current time in the
// organization's time zone.
func NewNotifier(employees EmployeeSource, docs EntityDocumentSource, sink NotificationSink, now func() time.Time) *Notifier {
	return &Notifier{employees: employees, docs: docs, sink: sink, now: now}
}

// Start launches a goroutine that runs one cycle immediately and then
// every interval until ctx is cancelled.
func (n *Notifier) Start(ctx context.Context, interval time.Duration) {
	go func() {
		n.runCycle(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[cron] compliance notifier stopped")
				return
			case <-ticker.C:
				n.runCycle(ctx)
			}
		}
	}()

	log.Printf("[cron] compliance notifier started – runs every %s", interval)
}

func (n *Notifier) runCycle(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	inserted, alerts, err := n.RunOnce(ctx)
	if err != nil {
		log.Printf("[cron] compliance check failed: %v", err)
		return
	}
	log.Printf("[cron] compliance check complete – %d new notifications from %d alerts", inserted, alerts)
}

// RunOnce computes every active employee's and every entity's tracks for
// today and stores one notification per alerting track. Notifications
// already written today are skipped by the sink.
func (n *Notifier) RunOnce(ctx context.Context) (inserted, alerts int, err error) {
	today := n.now()
	day := today.Format(compliance.DateLayout)

	active := true
	recs, err := n.employees.List(ctx, models.EmployeeFilter{Active: &active})
	if err != nil {
		return 0, 0, fmt.Errorf("list employees: %w", err)
	}
	docs, err := n.docs.List(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list entity documents: %w", err)
	}

	pending := employeeAlerts(recs, today, day)
	pending = append(pending, entityAlerts(docs, today, day)...)

	for _, a := range pending {
		ok, err := n.sink.Insert(ctx, a)
		if err != nil {
			if ctx.Err() != nil {
				return inserted, len(pending), ctx.Err()
			}
			log.Printf("[cron] insert notification error: %v", err)
			continue
		}
		if ok {
			inserted++
		}
	}
	return inserted, len(pending), nil
}

func employeeAlerts(recs []models.EmployeeRecord, today time.Time, day string) []repository.NotificationInput {
	var out []repository.NotificationInput
	for _, rec := range recs {
		for _, def := range compliance.PersonTracks() {
			v := compliance.Compute(compliance.ParseOptionalDate(rec.Tracks[def.ID].IssuanceDate), def, today)
			if a, ok := buildAlert(v, def, rec.Name+" ("+rec.Employer+")", "employee", rec.ID+":"+string(def.ID), day); ok {
				out = append(out, a)
			}
		}
	}
	return out
}

func entityAlerts(docs []models.EntityDocument, today time.Time, day string) []repository.NotificationInput {
	names := map[string]string{}
	recs := make([]compliance.EntityRecord, 0, len(docs))
	for _, d := range docs {
		key := compliance.NormalizeTaxID(d.CNPJ)
		if _, seen := names[key]; !seen {
			names[key] = d.CompanyName
		}
		recs = append(recs, compliance.EntityRecord{
			TaxID:               d.CNPJ,
			RiskProgramIssued:   compliance.ParseOptionalDate(d.RiskProgramIssued),
			HealthProgramIssued: compliance.ParseOptionalDate(d.HealthProgramIssued),
		})
	}

	risk, _ := compliance.LookupEntity(compliance.TrackRiskProgram)
	health, _ := compliance.LookupEntity(compliance.TrackHealthProgram)

	var out []repository.NotificationInput
	for _, st := range compliance.NewEntityIndex(recs, today).All() {
		subject := names[st.TaxID] + " (" + st.TaxID + ")"
		if a, ok := buildAlert(st.RiskProgram, risk, subject, "entity", st.TaxID+":"+string(risk.ID), day); ok {
			out = append(out, a)
		}
		if a, ok := buildAlert(st.HealthProgram, health, subject, "entity", st.TaxID+":"+string(health.ID), day); ok {
			out = append(out, a)
		}
	}
	return out
}

func buildAlert(v compliance.TrackValue, def compliance.Definition, subject, entityType, entityID, day string) (repository.NotificationInput, bool) {
	in := repository.NotificationInput{
		EntityType: entityType,
		EntityID:   entityID,
		Day:        day,
	}
	switch v.Status {
	case compliance.StatusExpired:
		in.Type = TypeExpired
		in.Title = fmt.Sprintf("%s – Expired", def.Name)
		in.Message = fmt.Sprintf("%s: %s expired %d days ago (%s).",
			subject, def.Name, -*v.DaysRemaining, v.ExpiryDate.Format(compliance.DateLayout))
	case compliance.StatusRenewSoon:
		in.Type = TypeRenewSoon
		in.Title = fmt.Sprintf("%s – Renew Soon", def.Name)
		in.Message = fmt.Sprintf("%s: %s expires in %d days (%s). Please renew promptly.",
			subject, def.Name, *v.DaysRemaining, v.ExpiryDate.Format(compliance.DateLayout))
	default:
		return repository.NotificationInput{}, false
	}
	return in, true
}
