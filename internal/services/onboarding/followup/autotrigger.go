package followup

import (
	"context"
	"strings"

	"github.com/louisbranch/vendorflow/internal/services/onboarding/dispatch"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/storage"
)

// IssueGroup is the set of issues sharing one issue type.
type IssueGroup struct {
	IssueType string
	Issues    []domain.ValidationIssue
}

// GroupIssues groups issues by type in order of first appearance.
func GroupIssues(issues []domain.ValidationIssue) []IssueGroup {
	index := make(map[string]int)
	groups := make([]IssueGroup, 0)
	for _, issue := range issues {
		i, ok := index[issue.IssueType]
		if !ok {
			i = len(groups)
			index[issue.IssueType] = i
			groups = append(groups, IssueGroup{IssueType: issue.IssueType})
		}
		groups[i].Issues = append(groups[i].Issues, issue)
	}
	return groups
}

// Fields returns the distinct field names of the group joined with ", ".
func (g IssueGroup) Fields() string {
	seen := make(map[string]struct{}, len(g.Issues))
	fields := make([]string, 0, len(g.Issues))
	for _, issue := range g.Issues {
		if _, ok := seen[issue.FieldName]; ok {
			continue
		}
		seen[issue.FieldName] = struct{}{}
		fields = append(fields, issue.FieldName)
	}
	return strings.Join(fields, ", ")
}

// Message is the consolidated vendor-facing text for the group.
func (g IssueGroup) Message() string {
	var b strings.Builder
	b.WriteString("We have identified the following issues with your submission:\n\n")
	for _, issue := range g.Issues {
		b.WriteString("• ")
		b.WriteString(issue.FieldName)
		b.WriteString(": ")
		b.WriteString(issue.Message)
		b.WriteString("\n")
	}
	b.WriteString("\nPlease review and update the information at your earliest convenience.")
	return b.String()
}

// AutoTriggerFollowUp creates one automatic follow-up per issue type and
// dispatches them once committed. Empty input is a no-op.
func (e *Engine) AutoTriggerFollowUp(ctx context.Context, onboarding domain.VendorOnboarding, issues []domain.ValidationIssue) ([]domain.FollowUp, error) {
	if len(issues) == 0 {
		return nil, nil
	}
	if err := e.ready(); err != nil {
		return nil, err
	}
	var (
		created  []domain.FollowUp
		messages []dispatch.Message
	)
	err := e.store.WithinTx(ctx, func(tx storage.Store) error {
		var err error
		created, messages, err = e.AutoTriggerFollowUpTx(ctx, tx, onboarding, issues)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.Dispatch(messages...)
	return created, nil
}

// AutoTriggerFollowUpTx is AutoTriggerFollowUp inside the caller's unit of
// work. The returned messages must be passed to Dispatch once it commits.
func (e *Engine) AutoTriggerFollowUpTx(ctx context.Context, tx storage.Store, onboarding domain.VendorOnboarding, issues []domain.ValidationIssue) ([]domain.FollowUp, []dispatch.Message, error) {
	groups := GroupIssues(issues)
	if len(groups) == 0 {
		return nil, nil, nil
	}
	created := make([]domain.FollowUp, 0, len(groups))
	messages := make([]dispatch.Message, 0, len(groups))
	for _, group := range groups {
		followUp, message, err := e.CreateAutomaticFollowUpTx(ctx, tx, onboarding, domain.FollowUpType(group.IssueType), group.Message(), group.Fields())
		if err != nil {
			return nil, nil, err
		}
		created = append(created, followUp)
		messages = append(messages, message)
	}
	return created, messages, nil
}
