package followup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/render"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/storage"
)

// AIInput describes a generated follow-up request.
type AIInput struct {
	OnboardingID    string
	Type            domain.FollowUpType
	EscalationLevel int
	// Issues seeds the prompt and template variables. Nil loads the
	// onboarding's open issues.
	Issues          []domain.ValidationIssue
	FieldsConcerned string
	Initiator       string
}

// AIResult is a PENDING follow-up with its generation audit row.
type AIResult struct {
	FollowUp    domain.FollowUp
	History     domain.MessageHistory
	TemplateID  string
	AIGenerated bool
}

type composed struct {
	text      string
	model     string
	tokens    int
	prompt    string
	generated bool
	genErr    string
}

// CreateAIFollowUp composes a message for (type, level) and stores it as a
// PENDING follow-up awaiting review. Generation failures fall back to the
// template body; the attempt is audited either way.
func (e *Engine) CreateAIFollowUp(ctx context.Context, input AIInput) (AIResult, error) {
	if err := e.ready(); err != nil {
		return AIResult{}, err
	}
	followUpType, err := domain.ParseFollowUpType(string(input.Type))
	if err != nil {
		return AIResult{}, err
	}
	input.Type = followUpType
	if input.EscalationLevel < 0 {
		return AIResult{}, domain.InvalidInput("escalation level must not be negative", nil)
	}
	onboarding, request, err := loadOnboarding(ctx, e.store, input.OnboardingID)
	if err != nil {
		return AIResult{}, err
	}
	issues := input.Issues
	if issues == nil {
		issues, err = e.store.ListIssues(ctx, onboarding.ID, domain.IssueOpen)
		if err != nil {
			return AIResult{}, fmt.Errorf("list open issues: %w", err)
		}
	}
	template, err := SelectTemplate(ctx, e.store, input.Type, input.EscalationLevel)
	if err != nil {
		return AIResult{}, err
	}

	message := e.compose(ctx, template, request, issues)
	var result AIResult
	err = e.store.WithinTx(ctx, func(tx storage.Store) error {
		var err error
		result, err = e.storeAIFollowUp(ctx, tx, onboarding, request, input, template, message)
		return err
	})
	if err != nil {
		return AIResult{}, err
	}
	return result, nil
}

func (e *Engine) compose(ctx context.Context, template domain.Template, request domain.VendorRequest, issues []domain.ValidationIssue) composed {
	vars := render.Variables(render.VariableInput{
		Request: request,
		Issues:  issues,
		Now:     e.clock(),
		Company: e.company,
	})
	fallback := render.Render(template.BodyTemplate, vars)
	if e.generator == nil || strings.TrimSpace(template.AIUserPromptTemplate) == "" {
		return composed{text: fallback}
	}

	userPrompt := render.Render(template.AIUserPromptTemplate, vars) + "\n\n" + VendorContext(request, issues)
	generation, err := e.generator.Generate(ctx, template.AISystemPrompt, userPrompt)
	if err != nil {
		e.logf("message generation failed, using template type=%s level=%d err=%v", template.Type, template.EscalationLevel, err)
		return composed{text: fallback, prompt: userPrompt, genErr: err.Error()}
	}
	return composed{
		text:      generation.Text,
		model:     generation.Model,
		tokens:    generation.Tokens,
		prompt:    userPrompt,
		generated: true,
	}
}

func (e *Engine) storeAIFollowUp(ctx context.Context, tx storage.Store, onboarding domain.VendorOnboarding, request domain.VendorRequest, input AIInput, template domain.Template, message composed) (AIResult, error) {
	followUpID, err := e.newID()
	if err != nil {
		return AIResult{}, fmt.Errorf("generate follow-up id: %w", err)
	}
	historyID, err := e.newID()
	if err != nil {
		return AIResult{}, fmt.Errorf("generate history id: %w", err)
	}
	initiator := strings.TrimSpace(input.Initiator)
	if initiator == "" {
		initiator = domain.InitiatorSystem
	}
	now := e.clock().UTC()

	followUp := domain.FollowUp{
		ID:              followUpID,
		OnboardingID:    onboarding.ID,
		Type:            input.Type,
		Message:         message.text,
		FieldsConcerned: input.FieldsConcerned,
		InitiatedBy:     initiator,
		IsAutomatic:     initiator == domain.InitiatorSystem,
		Status:          domain.FollowUpPending,
		EscalationLevel: input.EscalationLevel,
		AIGenerated:     message.generated,
		AIModel:         message.model,
		AIPromptVersion: domain.PromptVersion,
		CreatedAt:       now,
	}
	if err := tx.PutFollowUp(ctx, followUp); err != nil {
		return AIResult{}, fmt.Errorf("put follow-up: %w", err)
	}
	history := domain.MessageHistory{
		ID:               historyID,
		FollowUpID:       followUp.ID,
		OnboardingID:     onboarding.ID,
		TemplateID:       template.ID,
		Model:            message.model,
		Prompt:           message.prompt,
		GeneratedMessage: message.text,
		Tokens:           message.tokens,
		Succeeded:        message.generated,
		Error:            message.genErr,
		CreatedAt:        now,
	}
	if err := tx.PutMessageHistory(ctx, history); err != nil {
		return AIResult{}, fmt.Errorf("put message history: %w", err)
	}
	if err := e.recordCreated(ctx, tx, request.ID, followUp); err != nil {
		return AIResult{}, err
	}
	return AIResult{
		FollowUp:    followUp,
		History:     history,
		TemplateID:  template.ID,
		AIGenerated: message.generated,
	}, nil
}

// VendorContext is the vendor summary appended to generation prompts.
func VendorContext(request domain.VendorRequest, issues []domain.ValidationIssue) string {
	var b strings.Builder
	b.WriteString("Vendor Information:\n")
	fmt.Fprintf(&b, "Name: %s\n", orNA(request.VendorName))
	fmt.Fprintf(&b, "Email: %s\n", orNA(request.VendorEmail))
	fmt.Fprintf(&b, "Contact: %s\n", orNA(request.ContactPerson))
	if len(issues) > 0 {
		b.WriteString("\nValidation Issues:\n")
		for i, issue := range issues {
			fmt.Fprintf(&b, "%d. %s (%s): %s\n", i+1, issue.FieldName, issue.Severity, issue.Message)
		}
	}
	return b.String()
}

func orNA(value string) string {
	if strings.TrimSpace(value) == "" {
		return "N/A"
	}
	return value
}

// EscalateInput describes an escalation of an existing follow-up.
type EscalateInput struct {
	FollowUpID  string
	EscalatedTo string
	Actor       string
}

// EscalateFollowUp creates the next-level follow-up for the same onboarding
// and type, and records the hand-off on the escalated one. The new level is
// one above the highest level already used, so levels never go down.
func (e *Engine) EscalateFollowUp(ctx context.Context, input EscalateInput) (AIResult, error) {
	if err := e.ready(); err != nil {
		return AIResult{}, err
	}
	previous, err := getFollowUp(ctx, e.store, input.FollowUpID)
	if err != nil {
		return AIResult{}, err
	}
	if previous.Status == domain.FollowUpResolved {
		return AIResult{}, domain.InvalidInput("resolved follow-up cannot be escalated", map[string]string{"id": previous.ID})
	}
	highest, err := e.store.MaxEscalationLevel(ctx, previous.OnboardingID, previous.Type)
	if err != nil {
		return AIResult{}, fmt.Errorf("max escalation level: %w", err)
	}
	if previous.EscalationLevel > highest {
		highest = previous.EscalationLevel
	}
	level := highest + 1

	onboarding, request, err := loadOnboarding(ctx, e.store, previous.OnboardingID)
	if err != nil {
		return AIResult{}, err
	}
	issues, err := e.store.ListIssues(ctx, onboarding.ID, domain.IssueOpen)
	if err != nil {
		return AIResult{}, fmt.Errorf("list open issues: %w", err)
	}
	template, err := SelectTemplate(ctx, e.store, previous.Type, level)
	if err != nil {
		return AIResult{}, err
	}
	message := e.compose(ctx, template, request, issues)

	next := AIInput{
		OnboardingID:    onboarding.ID,
		Type:            previous.Type,
		EscalationLevel: level,
		FieldsConcerned: previous.FieldsConcerned,
		Initiator:       input.Actor,
	}
	var result AIResult
	err = e.store.WithinTx(ctx, func(tx storage.Store) error {
		current, err := getFollowUp(ctx, tx, previous.ID)
		if err != nil {
			return err
		}
		now := e.clock().UTC()
		current.EscalatedTo = strings.TrimSpace(input.EscalatedTo)
		current.EscalatedAt = &now
		if err := tx.PutFollowUp(ctx, current); err != nil {
			return fmt.Errorf("put escalated follow-up: %w", err)
		}
		result, err = e.storeAIFollowUp(ctx, tx, onboarding, request, next, template, message)
		return err
	})
	if err != nil {
		return AIResult{}, err
	}
	return result, nil
}

// MarkMessageEdited flags a generated message as edited by a reviewer and
// keeps the edited text as feedback.
func (e *Engine) MarkMessageEdited(ctx context.Context, historyID string, editedMessage string) (domain.MessageHistory, error) {
	return e.updateHistory(ctx, historyID, func(history *domain.MessageHistory) {
		history.WasEdited = true
		if strings.TrimSpace(editedMessage) != "" {
			history.Feedback = editedMessage
		}
	})
}

// RateMessage stores a 1 to 5 reviewer rating on a generated message.
func (e *Engine) RateMessage(ctx context.Context, historyID string, rating int, feedback string) (domain.MessageHistory, error) {
	if rating < 1 || rating > 5 {
		return domain.MessageHistory{}, domain.InvalidInput("rating must be between 1 and 5", map[string]string{"rating": fmt.Sprint(rating)})
	}
	return e.updateHistory(ctx, historyID, func(history *domain.MessageHistory) {
		history.Rating = rating
		history.Feedback = feedback
	})
}

func (e *Engine) updateHistory(ctx context.Context, historyID string, apply func(*domain.MessageHistory)) (domain.MessageHistory, error) {
	if e == nil || e.store == nil {
		return domain.MessageHistory{}, domain.ErrStoreNotConfigured
	}
	historyID = strings.TrimSpace(historyID)
	if historyID == "" {
		return domain.MessageHistory{}, domain.InvalidInput("history id is required", nil)
	}
	var updated domain.MessageHistory
	err := e.store.WithinTx(ctx, func(tx storage.Store) error {
		history, err := tx.GetMessageHistory(ctx, historyID)
		if err != nil {
			return notFound(err, "message_history", historyID)
		}
		apply(&history)
		if err := tx.PutMessageHistory(ctx, history); err != nil {
			return fmt.Errorf("put message history: %w", err)
		}
		updated = history
		return nil
	})
	if err != nil {
		return domain.MessageHistory{}, err
	}
	return updated, nil
}

// UsageStats summarizes generation history created at or after since.
// Token and rating averages only count rows that carry a value; the edit
// rate is a percentage of all rows.
func (e *Engine) UsageStats(ctx context.Context, since time.Time) (domain.UsageStats, error) {
	if e == nil || e.store == nil {
		return domain.UsageStats{}, domain.ErrStoreNotConfigured
	}
	rows, err := e.store.ListMessageHistorySince(ctx, since)
	if err != nil {
		return domain.UsageStats{}, fmt.Errorf("list message history: %w", err)
	}
	return summarize(rows), nil
}

func summarize(rows []domain.MessageHistory) domain.UsageStats {
	var stats domain.UsageStats
	var tokenSum, tokenRows, ratingSum, ratedRows int
	stats.TotalMessages = len(rows)
	for _, row := range rows {
		if row.Tokens > 0 {
			tokenSum += row.Tokens
			tokenRows++
		}
		if row.Rating > 0 {
			ratingSum += row.Rating
			ratedRows++
		}
		if row.WasEdited {
			stats.EditedCount++
		}
	}
	if tokenRows > 0 {
		stats.AverageTokens = float64(tokenSum) / float64(tokenRows)
	}
	if ratedRows > 0 {
		stats.AverageRating = float64(ratingSum) / float64(ratedRows)
	}
	if stats.TotalMessages > 0 {
		stats.EditRate = float64(stats.EditedCount) / float64(stats.TotalMessages) * 100
	}
	return stats
}
