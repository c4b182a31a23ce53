package domain

import (
	"strings"
	"time"
)

// InitiatorSystem is the initiator recorded on automation-created follow-ups.
const InitiatorSystem = "SYSTEM"

// PromptVersion tags follow-ups and history rows produced by the current prompts.
const PromptVersion = "1"

// FollowUpType classifies why a vendor is being contacted.
type FollowUpType string

const (
	FollowUpMissingData         FollowUpType = "MISSING_DATA"
	FollowUpIncompleteData      FollowUpType = "INCOMPLETE_DATA"
	FollowUpIncorrectData       FollowUpType = "INCORRECT_DATA"
	FollowUpIncorrectFile       FollowUpType = "INCORRECT_FILE"
	FollowUpExpiredDocument     FollowUpType = "EXPIRED_DOCUMENT"
	FollowUpDelayedResponse     FollowUpType = "DELAYED_RESPONSE"
	FollowUpUnresponsive        FollowUpType = "UNRESPONSIVE"
	FollowUpClarificationNeeded FollowUpType = "CLARIFICATION_NEEDED"
	FollowUpComplianceIssue     FollowUpType = "COMPLIANCE_ISSUE"
	FollowUpManual              FollowUpType = "MANUAL"
)

var followUpDescriptions = map[FollowUpType]string{
	FollowUpMissingData:         "Missing Required Data",
	FollowUpIncompleteData:      "Incomplete Optional Data",
	FollowUpIncorrectData:       "Incorrect or Invalid Data",
	FollowUpIncorrectFile:       "File Format or Content Issue",
	FollowUpExpiredDocument:     "Expired Document",
	FollowUpDelayedResponse:     "Delayed Response",
	FollowUpUnresponsive:        "Vendor Unresponsive",
	FollowUpClarificationNeeded: "Clarification Needed",
	FollowUpComplianceIssue:     "Compliance Requirement Not Met",
	FollowUpManual:              "Manual Follow-up",
}

// FollowUpTypes lists every known follow-up type.
func FollowUpTypes() []FollowUpType {
	return []FollowUpType{
		FollowUpMissingData,
		FollowUpIncompleteData,
		FollowUpIncorrectData,
		FollowUpIncorrectFile,
		FollowUpExpiredDocument,
		FollowUpDelayedResponse,
		FollowUpUnresponsive,
		FollowUpClarificationNeeded,
		FollowUpComplianceIssue,
		FollowUpManual,
	}
}

// ParseFollowUpType normalizes a caller-provided follow-up type.
func ParseFollowUpType(raw string) (FollowUpType, error) {
	candidate := FollowUpType(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := followUpDescriptions[candidate]; !ok {
		return "", InvalidInput("unknown follow-up type", map[string]string{"type": raw})
	}
	return candidate, nil
}

// Description returns the human label for the type. Types coming from
// custom rule names fall back to the raw value.
func (t FollowUpType) Description() string {
	if description, ok := followUpDescriptions[t]; ok {
		return description
	}
	return string(t)
}

// FollowUpStatus tracks delivery and resolution of a follow-up.
type FollowUpStatus string

const (
	FollowUpSent     FollowUpStatus = "SENT"
	FollowUpPending  FollowUpStatus = "PENDING"
	FollowUpResolved FollowUpStatus = "RESOLVED"
)

// UnresolvedFollowUpStatuses are the statuses that count toward unresponsiveness.
func UnresolvedFollowUpStatuses() []FollowUpStatus {
	return []FollowUpStatus{FollowUpSent, FollowUpPending}
}

// FollowUp is one outbound corrective communication tied to an onboarding.
type FollowUp struct {
	ID              string
	OnboardingID    string
	Type            FollowUpType
	Reason          string
	Message         string
	FieldsConcerned string
	InitiatedBy     string
	IsAutomatic     bool
	Status          FollowUpStatus
	EscalationLevel int
	EscalatedTo     string
	EscalatedAt     *time.Time
	AIGenerated     bool
	AIModel         string
	AIPromptVersion string
	EmailSent       bool
	EmailSentAt     *time.Time
	CreatedAt       time.Time
	SentAt          *time.Time
	ReadAt          *time.Time
	RespondedAt     *time.Time
	ResolvedAt      *time.Time
}

// Template is a follow-up message template for one type and escalation level.
type Template struct {
	ID                   string
	Name                 string
	Type                 FollowUpType
	EscalationLevel      int
	SubjectTemplate      string
	BodyTemplate         string
	UseAIEnhancement     bool
	AISystemPrompt       string
	AIUserPromptTemplate string
	AvailableVariables   string
	Active               bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Generation is the output of one language-model call.
type Generation struct {
	Text   string
	Model  string
	Tokens int
}

// MessageHistory audits one message-generation attempt.
type MessageHistory struct {
	ID               string
	FollowUpID       string
	OnboardingID     string
	TemplateID       string
	Model            string
	Prompt           string
	GeneratedMessage string
	Tokens           int
	Succeeded        bool
	Error            string
	WasEdited        bool
	Rating           int
	Feedback         string
	CreatedAt        time.Time
}

// UsageStats summarizes message-generation history over a window.
type UsageStats struct {
	TotalMessages int
	AverageTokens float64
	EditedCount   int
	AverageRating float64
	EditRate      float64
}
