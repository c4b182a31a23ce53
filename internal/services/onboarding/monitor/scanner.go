// Package monitor detects vendors that stopped answering follow-ups and tells
// procurement about them.
package monitor

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/louisbranch/vendorflow/internal/platform/otel"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/notify"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	// DefaultThresholdDays is how old a follow-up must be to count.
	DefaultThresholdDays = 3
	// DefaultMinFollowUps is how many old unresolved follow-ups mark a vendor.
	DefaultMinFollowUps = 2
)

// Report summarizes one scan.
type Report struct {
	StartedAt  time.Time
	FinishedAt time.Time
	// Candidates is the number of onboardings that crossed the threshold.
	Candidates int
	Notified   int
	Failed     int
}

// Scanner runs the unresponsive-vendor scan. Scheduled and manual runs share
// RunScan.
type Scanner struct {
	store         storage.Store
	emitter       *notify.Emitter
	mirror        *notify.Mirror
	clock         func() time.Time
	thresholdDays int
	minFollowUps  int
	logf          func(string, ...any)
}

// NewScanner builds a scanner with the default thresholds. A nil clock uses
// time.Now.
func NewScanner(store storage.Store, emitter *notify.Emitter, clock func() time.Time) *Scanner {
	if clock == nil {
		clock = time.Now
	}
	return &Scanner{
		store:         store,
		emitter:       emitter,
		clock:         clock,
		thresholdDays: DefaultThresholdDays,
		minFollowUps:  DefaultMinFollowUps,
		logf:          log.Printf,
	}
}

// SetThresholds overrides the age and count thresholds. Non-positive values
// keep the current setting.
func (s *Scanner) SetThresholds(thresholdDays int, minFollowUps int) {
	if s == nil {
		return
	}
	if thresholdDays > 0 {
		s.thresholdDays = thresholdDays
	}
	if minFollowUps > 0 {
		s.minFollowUps = minFollowUps
	}
}

// SetMirror forwards committed unresponsive notifications to mirror.
func (s *Scanner) SetMirror(mirror *notify.Mirror) {
	if s == nil {
		return
	}
	s.mirror = mirror
}

// SetLogger replaces the logger used for per-vendor failures.
func (s *Scanner) SetLogger(logf func(string, ...any)) {
	if s == nil || logf == nil {
		return
	}
	s.logf = logf
}

// RunScan notifies the creator of every vendor with enough old unresolved
// follow-ups. Each vendor is handled in its own unit of work; a failure is
// logged and the scan moves on. Once started the scan ignores cancellation.
func (s *Scanner) RunScan(ctx context.Context) (Report, error) {
	if s == nil || s.store == nil {
		return Report{}, domain.ErrStoreNotConfigured
	}
	if s.emitter == nil {
		return Report{}, fmt.Errorf("notification emitter is not configured")
	}
	ctx = context.WithoutCancel(ctx)
	ctx, span := otel.Tracer().Start(ctx, "onboarding.unresponsive_scan")
	defer span.End()

	now := s.clock().UTC()
	report := Report{StartedAt: now}
	cutoff := now.AddDate(0, 0, -s.thresholdDays)
	ids, err := s.store.ListUnresponsiveOnboardingIDs(ctx, domain.UnresolvedFollowUpStatuses(), cutoff, s.minFollowUps)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list candidates")
		return Report{}, fmt.Errorf("list unresponsive onboardings: %w", err)
	}
	report.Candidates = len(ids)

	for _, onboardingID := range ids {
		notification, err := s.notifyVendor(ctx, onboardingID, now)
		if err != nil {
			report.Failed++
			s.logf("unresponsive scan failed onboarding=%s err=%v", onboardingID, err)
			continue
		}
		if notification.ID != "" {
			report.Notified++
			s.mirror.Forward(notification)
		}
	}
	report.FinishedAt = s.clock().UTC()
	span.SetAttributes(
		attribute.Int("onboarding.scan.candidates", report.Candidates),
		attribute.Int("onboarding.scan.notified", report.Notified),
		attribute.Int("onboarding.scan.failed", report.Failed),
	)
	s.logf("unresponsive scan finished candidates=%d notified=%d failed=%d", report.Candidates, report.Notified, report.Failed)
	return report, nil
}

func (s *Scanner) notifyVendor(ctx context.Context, onboardingID string, now time.Time) (domain.Notification, error) {
	var notification domain.Notification
	err := s.store.WithinTx(ctx, func(tx storage.Store) error {
		onboarding, err := tx.GetOnboarding(ctx, onboardingID)
		if err != nil {
			return fmt.Errorf("get onboarding: %w", err)
		}
		request, err := tx.GetRequest(ctx, onboarding.RequestID)
		if err != nil {
			return fmt.Errorf("get request: %w", err)
		}
		latest, err := tx.LatestFollowUp(ctx, onboardingID)
		if err != nil {
			return fmt.Errorf("get latest follow-up: %w", err)
		}
		unresolved, err := tx.CountFollowUps(ctx, onboardingID, domain.UnresolvedFollowUpStatuses())
		if err != nil {
			return fmt.Errorf("count follow-ups: %w", err)
		}
		content := notify.Unresponsive(s.emitter.Localizer(), request, unresolved, DaysSince(latest.CreatedAt, now))
		notification, err = s.emitter.Emit(ctx, tx, request, content)
		return err
	})
	if err != nil {
		return domain.Notification{}, err
	}
	return notification, nil
}

// DaysSince counts whole days elapsed from then to now. Future times count
// as zero.
func DaysSince(then time.Time, now time.Time) int {
	elapsed := now.Sub(then)
	if elapsed <= 0 {
		return 0
	}
	return int(elapsed / (24 * time.Hour))
}
