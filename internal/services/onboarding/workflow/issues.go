package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/storage"
)

// ResolveIssue closes a validation issue. Resolution is terminal: resolving
// an already resolved issue returns it unchanged.
func (s *Service) ResolveIssue(ctx context.Context, issueID string, resolvedBy string, notes string) (domain.ValidationIssue, error) {
	if err := s.ready(); err != nil {
		return domain.ValidationIssue{}, err
	}
	var resolved domain.ValidationIssue
	err := s.store.WithinTx(ctx, func(tx storage.Store) error {
		var err error
		resolved, err = s.resolveIssueTx(ctx, tx, issueID, resolvedBy, notes)
		return err
	})
	if err != nil {
		return domain.ValidationIssue{}, err
	}
	return resolved, nil
}

// BulkResolveIssues resolves every issue in one unit of work. Any unknown
// id rolls the whole batch back.
func (s *Service) BulkResolveIssues(ctx context.Context, issueIDs []string, resolvedBy string, notes string) ([]domain.ValidationIssue, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if len(issueIDs) == 0 {
		return nil, domain.InvalidInput("at least one issue id is required", nil)
	}
	resolved := make([]domain.ValidationIssue, 0, len(issueIDs))
	err := s.store.WithinTx(ctx, func(tx storage.Store) error {
		for _, issueID := range issueIDs {
			issue, err := s.resolveIssueTx(ctx, tx, issueID, resolvedBy, notes)
			if err != nil {
				return err
			}
			resolved = append(resolved, issue)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

func (s *Service) resolveIssueTx(ctx context.Context, tx storage.Store, issueID string, resolvedBy string, notes string) (domain.ValidationIssue, error) {
	issueID = strings.TrimSpace(issueID)
	if issueID == "" {
		return domain.ValidationIssue{}, domain.InvalidInput("issue id is required", nil)
	}
	issue, err := tx.GetIssue(ctx, issueID)
	if err != nil {
		return domain.ValidationIssue{}, notFound(err, "validation_issue", issueID)
	}
	if issue.Status == domain.IssueResolved {
		return issue, nil
	}
	now := s.clock().UTC()
	issue.Status = domain.IssueResolved
	issue.ResolvedBy = resolvedBy
	issue.ResolutionNotes = notes
	issue.ResolvedAt = &now
	if err := tx.PutIssue(ctx, issue); err != nil {
		return domain.ValidationIssue{}, fmt.Errorf("put issue: %w", err)
	}
	onboarding, err := getOnboarding(ctx, tx, issue.OnboardingID)
	if err != nil {
		return domain.ValidationIssue{}, err
	}
	if err := s.record(ctx, tx, onboarding.RequestID, domain.ActivityIssueResolved, "Validation issue resolved: "+issue.FieldName, notes, resolvedBy); err != nil {
		return domain.ValidationIssue{}, err
	}
	return issue, nil
}

// ListOpenIssues returns the onboarding's open issues, oldest first.
func (s *Service) ListOpenIssues(ctx context.Context, onboardingID string) ([]domain.ValidationIssue, error) {
	if s == nil || s.store == nil {
		return nil, domain.ErrStoreNotConfigured
	}
	if _, err := getOnboarding(ctx, s.store, onboardingID); err != nil {
		return nil, err
	}
	return s.store.ListIssues(ctx, onboardingID, domain.IssueOpen)
}

// CountCriticalIssues counts open CRITICAL issues of the onboarding.
func (s *Service) CountCriticalIssues(ctx context.Context, onboardingID string) (int, error) {
	issues, err := s.ListOpenIssues(ctx, onboardingID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, issue := range issues {
		if issue.Severity == domain.SeverityCritical {
			count++
		}
	}
	return count, nil
}

// GetOnboardingByRequest returns the submission of a vendor request.
func (s *Service) GetOnboardingByRequest(ctx context.Context, requestID string) (domain.VendorOnboarding, error) {
	if s == nil || s.store == nil {
		return domain.VendorOnboarding{}, domain.ErrStoreNotConfigured
	}
	onboarding, err := s.store.GetOnboardingByRequest(ctx, strings.TrimSpace(requestID))
	if err != nil {
		return domain.VendorOnboarding{}, notFound(err, "vendor_onboarding", requestID)
	}
	return onboarding, nil
}
