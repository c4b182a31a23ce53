package domain

import "time"

// Severity ranks how urgently an issue needs attention.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// IssueStatus is the open/resolved lifecycle of a validation issue.
type IssueStatus string

const (
	IssueOpen     IssueStatus = "OPEN"
	IssueResolved IssueStatus = "RESOLVED"
)

// Issue types produced by the built-in rules. Rules may report other types;
// an empty type defaults to the rule name.
const (
	IssueTypeMissingData   = "MISSING_DATA"
	IssueTypeIncorrectData = "INCORRECT_DATA"
)

// ValidationIssue is one rule failure against one onboarding field.
type ValidationIssue struct {
	ID              string
	OnboardingID    string
	IssueType       string
	FieldName       string
	FieldPath       string
	CurrentValue    string
	ExpectedValue   string
	Message         string
	ValidationRule  string
	Severity        Severity
	Status          IssueStatus
	ResolvedBy      string
	ResolutionNotes string
	CreatedAt       time.Time
	ResolvedAt      *time.Time
}
