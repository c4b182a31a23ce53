// Package validation evaluates vendor submissions against field rules and
// business checks.
package validation

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"strings"
	"time"

	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/storage"
)

// Evaluator applies every registered rule to a submission and persists one
// OPEN issue per failing rule.
type Evaluator struct {
	rules []Rule
	clock func() time.Time
	newID func() (string, error)
	logf  func(string, ...any)
}

// NewEvaluator builds an evaluator over rules. A nil clock uses time.Now.
func NewEvaluator(rules []Rule, clock func() time.Time, newID func() (string, error)) *Evaluator {
	if clock == nil {
		clock = time.Now
	}
	return &Evaluator{
		rules: append([]Rule(nil), rules...),
		clock: clock,
		newID: newID,
		logf:  log.Printf,
	}
}

// SetLogger replaces the logger used for skipped rules.
func (e *Evaluator) SetLogger(logf func(string, ...any)) {
	if e == nil || logf == nil {
		return
	}
	e.logf = logf
}

// Rules returns a copy of the registered rule set.
func (e *Evaluator) Rules() []Rule {
	if e == nil {
		return nil
	}
	return append([]Rule(nil), e.rules...)
}

// Evaluate runs every rule independently. A rule that errors or panics is
// logged and skipped. Store failures abort the evaluation. Only issues
// created by this run are returned.
func (e *Evaluator) Evaluate(ctx context.Context, store storage.IssueStore, onboarding domain.VendorOnboarding) ([]domain.ValidationIssue, error) {
	if e == nil {
		return nil, fmt.Errorf("evaluator is not configured")
	}
	if store == nil {
		return nil, domain.ErrStoreNotConfigured
	}
	if strings.TrimSpace(onboarding.ID) == "" {
		return nil, domain.InvalidInput("onboarding id is required", nil)
	}

	issues := make([]domain.ValidationIssue, 0)
	for _, rule := range e.rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := e.apply(rule, onboarding)
		if err != nil {
			e.logf("validation rule skipped onboarding=%s rule=%s err=%v", onboarding.ID, ruleLabel(rule), err)
			continue
		}
		if result.Valid {
			continue
		}

		issue, err := e.newIssue(rule, onboarding.ID, result)
		if err != nil {
			return nil, err
		}
		if err := store.PutIssue(ctx, issue); err != nil {
			return nil, fmt.Errorf("save validation issue: %w", err)
		}
		issues = append(issues, issue)
	}
	e.logf("validation completed onboarding=%s issues=%d", onboarding.ID, len(issues))
	return issues, nil
}

func (e *Evaluator) apply(rule Rule, onboarding domain.VendorOnboarding) (result Result, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("panic: %v stack=%s", recovered, strings.TrimSpace(string(debug.Stack())))
		}
	}()
	if rule == nil {
		return Result{}, fmt.Errorf("rule is nil")
	}
	value, err := Extract(onboarding, rule.FieldName())
	if err != nil {
		return Result{}, err
	}
	result = rule.Validate(value, onboarding)
	if !result.Valid && result.Severity == "" {
		return Result{}, fmt.Errorf("failing result has no severity")
	}
	return result, nil
}

func (e *Evaluator) newIssue(rule Rule, onboardingID string, result Result) (domain.ValidationIssue, error) {
	if e.newID == nil {
		return domain.ValidationIssue{}, fmt.Errorf("id generator is not configured")
	}
	id, err := e.newID()
	if err != nil {
		return domain.ValidationIssue{}, fmt.Errorf("generate issue id: %w", err)
	}
	issueType := strings.TrimSpace(result.IssueType)
	if issueType == "" {
		issueType = rule.RuleName()
	}
	return domain.ValidationIssue{
		ID:             id,
		OnboardingID:   onboardingID,
		IssueType:      issueType,
		FieldName:      leafName(rule.FieldName()),
		FieldPath:      rule.FieldName(),
		CurrentValue:   result.CurrentValue,
		ExpectedValue:  result.ExpectedValue,
		Message:        result.Message,
		ValidationRule: rule.RuleName(),
		Severity:       result.Severity,
		Status:         domain.IssueOpen,
		CreatedAt:      e.clock().UTC(),
	}, nil
}

func ruleLabel(rule Rule) (label string) {
	defer func() {
		if recover() != nil {
			label = "unknown"
		}
	}()
	if rule == nil {
		return "nil"
	}
	return rule.RuleName() + ":" + rule.FieldName()
}
