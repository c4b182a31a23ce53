package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/vendorflow/internal/services/onboarding/dispatch"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/followup"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/notify"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/storage"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/validation"
)

// SubmitInput is a vendor's onboarding form. Absent sections stay absent.
type SubmitInput struct {
	Token      string
	Business   *domain.BusinessDetails
	Contact    *domain.ContactDetails
	Banking    *domain.BankingDetails
	Compliance *domain.ComplianceDetails
	// Actor defaults to the vendor email.
	Actor string
}

// SubmitResult reports what a submission produced.
type SubmitResult struct {
	Request    domain.VendorRequest
	Onboarding domain.VendorOnboarding
	// Issues are the rule failures created by this submission.
	Issues []domain.ValidationIssue
	// FollowUps are the business-rule follow-ups created by this submission.
	FollowUps []domain.FollowUp
}

// Submit stores the vendor's form, creating the onboarding on first
// submission and updating it in place afterwards. The request moves to
// AWAITING_VALIDATION, the field rules run, and the business-rule pass
// raises at most one MISSING_DATA and one INCORRECT_DATA follow-up.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (SubmitResult, error) {
	if err := s.ready(); err != nil {
		return SubmitResult{}, err
	}
	if s.evaluator == nil || s.followUps == nil {
		return SubmitResult{}, fmt.Errorf("workflow validation is not configured")
	}

	fx := &effects{}
	var result SubmitResult
	err := s.store.WithinTx(ctx, func(tx storage.Store) error {
		request, err := s.requestByToken(ctx, tx, input.Token)
		if err != nil {
			return err
		}
		actor := strings.TrimSpace(input.Actor)
		if actor == "" {
			actor = request.VendorEmail
		}
		onboarding, err := s.saveSubmission(ctx, tx, request, input)
		if err != nil {
			return err
		}
		request, err = s.transitionTx(ctx, tx, fx, request, domain.StatusAwaitingValidation, actor)
		if err != nil {
			return err
		}
		if err := s.record(ctx, tx, request.ID, domain.ActivityFormSubmitted, "Vendor submitted the onboarding form", "", actor); err != nil {
			return err
		}
		if err := s.emit(ctx, tx, fx, request, notify.FormSubmitted(s.loc(), request)); err != nil {
			return err
		}

		issues, err := s.evaluator.Evaluate(ctx, tx, onboarding)
		if err != nil {
			return fmt.Errorf("evaluate submission: %w", err)
		}
		followUps, messages, err := s.businessFollowUps(ctx, tx, onboarding)
		if err != nil {
			return err
		}
		fx.messages = append(fx.messages, messages...)
		result = SubmitResult{Request: request, Onboarding: onboarding, Issues: issues, FollowUps: followUps}
		return nil
	})
	if err != nil {
		return SubmitResult{}, err
	}
	s.release(fx)
	return result, nil
}

func (s *Service) saveSubmission(ctx context.Context, tx storage.Store, request domain.VendorRequest, input SubmitInput) (domain.VendorOnboarding, error) {
	now := s.clock().UTC()
	onboarding, err := tx.GetOnboardingByRequest(ctx, request.ID)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		onboardingID, err := s.newID()
		if err != nil {
			return domain.VendorOnboarding{}, fmt.Errorf("generate onboarding id: %w", err)
		}
		onboarding = domain.VendorOnboarding{ID: onboardingID, RequestID: request.ID, CreatedAt: now}
	default:
		return domain.VendorOnboarding{}, fmt.Errorf("get onboarding: %w", err)
	}

	onboarding.Business = input.Business
	onboarding.Contact = input.Contact
	onboarding.Banking = input.Banking
	onboarding.Compliance = input.Compliance
	onboarding.IsComplete = input.Business != nil && input.Contact != nil && input.Banking != nil && input.Compliance != nil
	onboarding.SubmittedAt = &now
	onboarding.UpdatedAt = now
	if err := tx.PutOnboarding(ctx, onboarding); err != nil {
		return domain.VendorOnboarding{}, fmt.Errorf("put onboarding: %w", err)
	}
	return onboarding, nil
}

func (s *Service) businessFollowUps(ctx context.Context, tx storage.Store, onboarding domain.VendorOnboarding) ([]domain.FollowUp, []dispatch.Message, error) {
	findings := validation.CheckBusinessRules(onboarding, s.clock())
	if findings.Empty() {
		return nil, nil, nil
	}
	var (
		created  []domain.FollowUp
		messages []dispatch.Message
	)
	if len(findings.Missing) > 0 {
		followUp, message, err := s.followUps.CreateAutomaticFollowUpTx(ctx, tx, onboarding, domain.FollowUpMissingData, findings.MissingMessage(), findings.MissingFields())
		if err != nil {
			return nil, nil, err
		}
		created = append(created, followUp)
		messages = append(messages, message)
	}
	if len(findings.Invalid) > 0 {
		followUp, message, err := s.followUps.CreateAutomaticFollowUpTx(ctx, tx, onboarding, domain.FollowUpIncorrectData, findings.InvalidMessage(), findings.InvalidFields())
		if err != nil {
			return nil, nil, err
		}
		created = append(created, followUp)
		messages = append(messages, message)
	}
	return created, messages, nil
}

// ValidateResult reports what a validation run produced.
type ValidateResult struct {
	Request   domain.VendorRequest
	Issues    []domain.ValidationIssue
	FollowUps []domain.FollowUp
}

// Validate re-runs the field rules and raises one follow-up per issue type.
// A request waiting for validation that still has issues moves to
// MISSING_DATA and procurement is told which fields are affected.
func (s *Service) Validate(ctx context.Context, onboardingID string, actor string) (ValidateResult, error) {
	if err := s.ready(); err != nil {
		return ValidateResult{}, err
	}
	if s.evaluator == nil || s.followUps == nil {
		return ValidateResult{}, fmt.Errorf("workflow validation is not configured")
	}

	fx := &effects{}
	var result ValidateResult
	err := s.store.WithinTx(ctx, func(tx storage.Store) error {
		onboarding, err := getOnboarding(ctx, tx, onboardingID)
		if err != nil {
			return err
		}
		request, err := getRequest(ctx, tx, onboarding.RequestID)
		if err != nil {
			return err
		}
		issues, err := s.evaluator.Evaluate(ctx, tx, onboarding)
		if err != nil {
			return fmt.Errorf("evaluate onboarding: %w", err)
		}
		followUps, messages, err := s.followUps.AutoTriggerFollowUpTx(ctx, tx, onboarding, issues)
		if err != nil {
			return err
		}
		fx.messages = append(fx.messages, messages...)

		if len(issues) > 0 && request.Status == domain.StatusAwaitingValidation {
			request, err = s.transitionTx(ctx, tx, fx, request, domain.StatusMissingData, actor)
			if err != nil {
				return err
			}
			if err := s.emit(ctx, tx, fx, request, notify.MissingData(s.loc(), request, issueFields(issues))); err != nil {
				return err
			}
		}
		result = ValidateResult{Request: request, Issues: issues, FollowUps: followUps}
		return nil
	})
	if err != nil {
		return ValidateResult{}, err
	}
	s.release(fx)
	return result, nil
}

// issueFields lists the distinct fields of the issues in order.
func issueFields(issues []domain.ValidationIssue) string {
	return followup.IssueGroup{Issues: issues}.Fields()
}
