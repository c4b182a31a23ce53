package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
)

// Rule checks one field of a submission.
type Rule interface {
	// FieldName is the dotted accessor path the rule reads.
	FieldName() string
	RuleName() string
	Required() bool
	Validate(value any, onboarding domain.VendorOnboarding) Result
}

// Result is one rule verdict. Failing results carry a severity and an issue
// type; an empty issue type falls back to the rule name.
type Result struct {
	Valid         bool
	Message       string
	CurrentValue  string
	ExpectedValue string
	Suggestion    string
	Severity      domain.Severity
	IssueType     string
}

const (
	RuleMandatoryField = "MANDATORY_FIELD"
	RuleEmailFormat    = "EMAIL_FORMAT"
	RulePhoneFormat    = "PHONE_FORMAT"
)

var (
	emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	phonePattern = regexp.MustCompile(`^[+]?[(]?[0-9]{1,4}[)]?[-\s.]?[(]?[0-9]{1,4}[)]?[-\s.]?[0-9]{1,9}$`)
)

const minPhoneLength = 10

// DefaultRules returns the built-in rule set.
func DefaultRules() []Rule {
	return []Rule{
		MandatoryField{Path: "businessDetails.legalBusinessName", Display: "Legal Business Name"},
		MandatoryField{Path: "contactDetails.primaryContactName", Display: "Primary Contact Name"},
		MandatoryField{Path: "bankingDetails.accountNumber", Display: "Account Number"},
		MandatoryField{Path: "complianceDetails.taxIdentificationNumber", Display: "Tax Identification Number"},
		EmailFormat{Path: "contactDetails.emailAddress"},
		PhoneFormat{Path: "contactDetails.phoneNumber"},
	}
}

// MandatoryField fails when the field is absent or blank.
type MandatoryField struct {
	Path    string
	Display string
}

func (r MandatoryField) FieldName() string { return r.Path }
func (r MandatoryField) RuleName() string  { return RuleMandatoryField }
func (r MandatoryField) Required() bool    { return true }

func (r MandatoryField) Validate(value any, _ domain.VendorOnboarding) Result {
	display := r.Display
	if display == "" {
		display = leafName(r.Path)
	}
	current := "null"
	if value != nil {
		current = formatValue(value)
	}
	if isEmpty(value) {
		return Result{
			Message:       display + " is required",
			CurrentValue:  current,
			ExpectedValue: "Non-empty value",
			Suggestion:    "Please provide " + display,
			Severity:      domain.SeverityHigh,
			IssueType:     domain.IssueTypeMissingData,
		}
	}
	return Result{Valid: true, CurrentValue: current}
}

// EmailFormat requires a well-formed email address.
type EmailFormat struct {
	Path string
}

func (r EmailFormat) FieldName() string { return r.Path }
func (r EmailFormat) RuleName() string  { return RuleEmailFormat }
func (r EmailFormat) Required() bool    { return true }

func (r EmailFormat) Validate(value any, _ domain.VendorOnboarding) Result {
	if isEmpty(value) {
		return Result{
			Message:    "Email address is required",
			Suggestion: "Please provide a valid email address",
			Severity:   domain.SeverityHigh,
			IssueType:  domain.IssueTypeMissingData,
		}
	}
	email := strings.TrimSpace(formatValue(value))
	if emailPattern.MatchString(email) {
		return Result{Valid: true, CurrentValue: email}
	}
	return Result{
		Message:       "Invalid email format",
		CurrentValue:  email,
		ExpectedValue: "user@example.com",
		Suggestion:    "Email should be in format: user@domain.com",
		Severity:      domain.SeverityHigh,
		IssueType:     domain.IssueTypeIncorrectData,
	}
}

// PhoneFormat requires a loosely international phone number of at least ten characters.
type PhoneFormat struct {
	Path string
}

func (r PhoneFormat) FieldName() string { return r.Path }
func (r PhoneFormat) RuleName() string  { return RulePhoneFormat }
func (r PhoneFormat) Required() bool    { return true }

func (r PhoneFormat) Validate(value any, _ domain.VendorOnboarding) Result {
	if isEmpty(value) {
		return Result{
			Message:    "Phone number is required",
			Suggestion: "Please provide a valid phone number",
			Severity:   domain.SeverityHigh,
			IssueType:  domain.IssueTypeMissingData,
		}
	}
	phone := strings.TrimSpace(formatValue(value))
	if phonePattern.MatchString(phone) && len(phone) >= minPhoneLength {
		return Result{Valid: true, CurrentValue: phone}
	}
	return Result{
		Message:       "Invalid phone number format",
		CurrentValue:  phone,
		ExpectedValue: "+1-234-567-8900",
		Suggestion:    "Phone number should be at least 10 digits, with optional country code",
		Severity:      domain.SeverityMedium,
		IssueType:     domain.IssueTypeIncorrectData,
	}
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	default:
		return false
	}
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		return v.UTC().Format(domain.DateLayout)
	default:
		return fmt.Sprint(v)
	}
}
