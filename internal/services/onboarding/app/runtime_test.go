package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/followup"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/render"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/workflow"
)

func testConfig(t *testing.T) RuntimeConfig {
	t.Helper()
	return RuntimeConfig{
		DBPath:  filepath.Join(t.TempDir(), "nested", "onboarding.db"),
		Company: render.Company{Name: "Acme", SupportEmail: "support@acme.test", PortalURL: "https://vendors.acme.test"},
	}
}

func TestNewSeedsTemplatesOnce(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	ctx := context.Background()

	rt, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	templates, err := rt.FollowUps.ListTemplates(ctx, true)
	if err != nil {
		t.Fatalf("list templates: %v", err)
	}
	if len(templates) != len(followup.DefaultTemplates()) {
		t.Fatalf("templates = %d, want %d", len(templates), len(followup.DefaultTemplates()))
	}
	rt.Close()

	again, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("reopen runtime: %v", err)
	}
	defer again.Close()
	templates, err = again.FollowUps.ListTemplates(ctx, false)
	if err != nil {
		t.Fatalf("list templates after reopen: %v", err)
	}
	if len(templates) != len(followup.DefaultTemplates()) {
		t.Fatalf("templates after reopen = %d, want %d", len(templates), len(followup.DefaultTemplates()))
	}
}

func TestNewRejectsInvalidIntegrations(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*RuntimeConfig)
	}{
		{name: "ai without key", mutate: func(cfg *RuntimeConfig) { cfg.AIEnabled = true }},
		{name: "kafka without topic", mutate: func(cfg *RuntimeConfig) { cfg.KafkaBrokers = []string{"localhost:9092"} }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(t)
			tc.mutate(&cfg)
			rt, err := New(context.Background(), cfg)
			if err == nil {
				rt.Close()
				t.Fatal("expected configuration error")
			}
		})
	}
}

func TestRuntimeDeliversSubmissionFollowUps(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rt, err := New(ctx, testConfig(t))
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	defer rt.Close()

	request, err := rt.Workflow.CreateRequest(ctx, workflow.CreateRequestInput{
		VendorName:  "Globex",
		VendorEmail: "invite@globex.test",
		CreatedBy:   "alice",
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}

	expired := domain.DateOf(time.Now()).AddDate(0, 0, -2)
	result, err := rt.Workflow.Submit(ctx, workflow.SubmitInput{
		Token:      request.InvitationToken,
		Business:   &domain.BusinessDetails{LegalBusinessName: "Globex Corporation"},
		Contact:    &domain.ContactDetails{PrimaryContactName: "Hank", EmailAddress: "hank@globex.test", PhoneNumber: "(555) 123-4567"},
		Banking:    &domain.BankingDetails{AccountNumber: "123456789"},
		Compliance: &domain.ComplianceDetails{TaxIdentificationNumber: "12-3456789", LicenseExpiryDate: &expired},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	rt.Dispatcher.Wait()

	if len(result.FollowUps) != 2 {
		t.Fatalf("follow-ups = %d, want 2", len(result.FollowUps))
	}
	for _, followUp := range result.FollowUps {
		emails, err := rt.store.ListOutboundEmails(ctx, followUp.ID)
		if err != nil {
			t.Fatalf("list outbound emails: %v", err)
		}
		if len(emails) != 1 || emails[0].Status != domain.OutboundEmailQueued || emails[0].Recipient != "hank@globex.test" {
			t.Fatalf("outbound emails for %s = %+v", followUp.ID, emails)
		}
		stored, err := rt.FollowUps.GetFollowUp(ctx, followUp.ID)
		if err != nil {
			t.Fatalf("get follow-up: %v", err)
		}
		if !stored.EmailSent {
			t.Fatalf("follow-up %s not flagged as emailed", followUp.ID)
		}
	}

	unread, err := rt.Inbox.CountUnread(ctx, "alice")
	if err != nil {
		t.Fatalf("count unread: %v", err)
	}
	if unread == 0 {
		t.Fatal("expected unread notifications for the request creator")
	}
}

func TestRunScanOnceOnEmptyStore(t *testing.T) {
	t.Parallel()
	report, err := RunScanOnce(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("run scan once: %v", err)
	}
	if report.Candidates != 0 || report.Notified != 0 {
		t.Fatalf("report = %+v, want empty", report)
	}
}
