package followup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/render"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/storage"
)

const defaultSystemPrompt = "You are a procurement assistant writing to a vendor on behalf of the procurement team. " +
	"Write a short, polite and specific email body. Do not invent requirements that are not listed."

// SelectTemplate returns the active template for (type, level), falling back
// to level 0. A type with no usable template yields TemplateNotFound.
func SelectTemplate(ctx context.Context, store storage.TemplateStore, followUpType domain.FollowUpType, level int) (domain.Template, error) {
	if store == nil {
		return domain.Template{}, domain.ErrStoreNotConfigured
	}
	if level < 0 {
		level = 0
	}
	template, err := store.GetActiveTemplate(ctx, followUpType, level)
	if err == nil {
		return template, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return domain.Template{}, fmt.Errorf("get template: %w", err)
	}
	if level > 0 {
		template, err = store.GetActiveTemplate(ctx, followUpType, 0)
		if err == nil {
			return template, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return domain.Template{}, fmt.Errorf("get base template: %w", err)
		}
	}
	return domain.Template{}, domain.TemplateNotFound(followUpType, level)
}

// SelectTemplate is the engine-bound form of the package function.
func (e *Engine) SelectTemplate(ctx context.Context, followUpType domain.FollowUpType, level int) (domain.Template, error) {
	if e == nil || e.store == nil {
		return domain.Template{}, domain.ErrStoreNotConfigured
	}
	return SelectTemplate(ctx, e.store, followUpType, level)
}

// SaveTemplate creates or replaces a template. New templates are active.
func (e *Engine) SaveTemplate(ctx context.Context, template domain.Template) (domain.Template, error) {
	if err := e.ready(); err != nil {
		return domain.Template{}, err
	}
	template.Name = strings.TrimSpace(template.Name)
	if template.Name == "" {
		return domain.Template{}, domain.InvalidInput("template name is required", nil)
	}
	followUpType, err := domain.ParseFollowUpType(string(template.Type))
	if err != nil {
		return domain.Template{}, err
	}
	template.Type = followUpType
	if template.EscalationLevel < 0 {
		return domain.Template{}, domain.InvalidInput("escalation level must not be negative", nil)
	}
	if strings.TrimSpace(template.BodyTemplate) == "" {
		return domain.Template{}, domain.InvalidInput("template body is required", nil)
	}
	if strings.TrimSpace(template.AvailableVariables) == "" {
		template.AvailableVariables = strings.Join(render.VariableNames(), ",")
	}

	now := e.clock().UTC()
	if template.ID == "" {
		id, err := e.newID()
		if err != nil {
			return domain.Template{}, fmt.Errorf("generate template id: %w", err)
		}
		template.ID = id
		template.Active = true
		template.CreatedAt = now
	} else {
		existing, err := e.store.GetTemplate(ctx, template.ID)
		switch {
		case err == nil:
			template.CreatedAt = existing.CreatedAt
		case errors.Is(err, storage.ErrNotFound):
			template.CreatedAt = now
		default:
			return domain.Template{}, fmt.Errorf("get template: %w", err)
		}
	}
	template.UpdatedAt = now
	if err := e.store.PutTemplate(ctx, template); err != nil {
		return domain.Template{}, fmt.Errorf("put template: %w", err)
	}
	return template, nil
}

// DeactivateTemplate removes a template from selection.
func (e *Engine) DeactivateTemplate(ctx context.Context, id string) (domain.Template, error) {
	if err := e.ready(); err != nil {
		return domain.Template{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Template{}, domain.InvalidInput("template id is required", nil)
	}
	template, err := e.store.GetTemplate(ctx, id)
	if err != nil {
		return domain.Template{}, notFound(err, "follow_up_template", id)
	}
	if !template.Active {
		return template, nil
	}
	template.Active = false
	template.UpdatedAt = e.clock().UTC()
	if err := e.store.PutTemplate(ctx, template); err != nil {
		return domain.Template{}, fmt.Errorf("put template: %w", err)
	}
	return template, nil
}

// ListTemplates lists templates ordered by type and level.
func (e *Engine) ListTemplates(ctx context.Context, activeOnly bool) ([]domain.Template, error) {
	if e == nil || e.store == nil {
		return nil, domain.ErrStoreNotConfigured
	}
	return e.store.ListTemplates(ctx, activeOnly)
}

// SeedDefaultTemplates stores each default template whose (type, level) has
// no active template yet and returns how many were added.
func (e *Engine) SeedDefaultTemplates(ctx context.Context) (int, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	added := 0
	for _, template := range DefaultTemplates() {
		_, err := e.store.GetActiveTemplate(ctx, template.Type, template.EscalationLevel)
		if err == nil {
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return added, fmt.Errorf("get template: %w", err)
		}
		if _, err := e.SaveTemplate(ctx, template); err != nil {
			return added, fmt.Errorf("seed template %s: %w", template.Name, err)
		}
		added++
	}
	return added, nil
}

// DefaultTemplates is the built-in template set.
func DefaultTemplates() []domain.Template {
	return []domain.Template{
		{
			Name:            "Missing data",
			Type:            domain.FollowUpMissingData,
			EscalationLevel: 0,
			SubjectTemplate: "Action required: complete your {{companyName}} vendor profile",
			BodyTemplate: "Hello {{contactPerson}},\n\n" +
				"Thank you for starting your onboarding with {{companyName}}. The following information is still missing:\n" +
				"{{missingFields}}\n\n" +
				"Please update your submission at {{portalUrl}}.\n\n" +
				"Questions? Reach us at {{supportEmail}}.",
			UseAIEnhancement:     true,
			AISystemPrompt:       defaultSystemPrompt,
			AIUserPromptTemplate: "Ask {{vendorName}} to provide the missing fields below. Keep it friendly.",
		},
		{
			Name:            "Missing data reminder",
			Type:            domain.FollowUpMissingData,
			EscalationLevel: 1,
			SubjectTemplate: "Reminder: your {{companyName}} vendor profile is incomplete",
			BodyTemplate: "Hello {{contactPerson}},\n\n" +
				"We are still waiting for the following information as of {{currentDate}}:\n" +
				"{{missingFields}}\n\n" +
				"Your onboarding cannot continue until it is provided. Please update your submission at {{portalUrl}}.",
			UseAIEnhancement:     true,
			AISystemPrompt:       defaultSystemPrompt,
			AIUserPromptTemplate: "Write a firm second reminder to {{vendorName}} about the missing fields below.",
		},
		{
			Name:            "Incorrect data",
			Type:            domain.FollowUpIncorrectData,
			EscalationLevel: 0,
			SubjectTemplate: "Please review your {{companyName}} vendor submission",
			BodyTemplate: "Hello {{contactPerson}},\n\n" +
				"We found {{issueCount}} issue(s) in your submission:\n" +
				"{{issueList}}\n\n" +
				"Please correct them at {{portalUrl}}.",
			UseAIEnhancement:     true,
			AISystemPrompt:       defaultSystemPrompt,
			AIUserPromptTemplate: "Explain to {{vendorName}} which fields below are invalid and how to fix them.",
		},
		{
			Name:            "Incorrect data escalation",
			Type:            domain.FollowUpIncorrectData,
			EscalationLevel: 1,
			SubjectTemplate: "Second notice: corrections needed for your {{companyName}} vendor submission",
			BodyTemplate: "Hello {{contactPerson}},\n\n" +
				"The following issues are still open as of {{currentDate}}:\n" +
				"{{issueList}}\n\n" +
				"{{criticalIssueCount}} of them are critical. Please correct them at {{portalUrl}} or contact {{supportEmail}}.",
		},
		{
			Name:            "Expired document",
			Type:            domain.FollowUpExpiredDocument,
			EscalationLevel: 0,
			SubjectTemplate: "Expired documents on your {{companyName}} vendor profile",
			BodyTemplate: "Hello {{contactPerson}},\n\n" +
				"Some of your documents have expired:\n" +
				"{{incorrectFields}}\n\n" +
				"Please upload current versions at {{portalUrl}}.",
		},
		{
			Name:            "Unresponsive vendor",
			Type:            domain.FollowUpUnresponsive,
			EscalationLevel: 0,
			SubjectTemplate: "We have not heard from you",
			BodyTemplate: "Hello {{contactPerson}},\n\n" +
				"We have sent several requests about your {{companyName}} onboarding without a response.\n" +
				"Please review the open items at {{portalUrl}} or contact {{supportEmail}}.",
		},
		{
			Name:            "Clarification needed",
			Type:            domain.FollowUpClarificationNeeded,
			EscalationLevel: 0,
			SubjectTemplate: "Clarification needed on your {{companyName}} vendor submission",
			BodyTemplate: "Hello {{contactPerson}},\n\n" +
				"We need clarification on the following items:\n" +
				"{{issueList}}\n\n" +
				"Please reply or update your submission at {{portalUrl}}.",
		},
		{
			Name:            "Manual follow-up",
			Type:            domain.FollowUpManual,
			EscalationLevel: 0,
			SubjectTemplate: "Message from the {{companyName}} procurement team",
			BodyTemplate: "Hello {{contactPerson}},\n\n" +
				"Please review your onboarding submission at {{portalUrl}}.\n\n" +
				"{{issueList}}",
		},
	}
}
