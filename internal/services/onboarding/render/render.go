// Package render substitutes {{name}} placeholders in follow-up templates.
package render

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
)

// placeholderPattern takes everything up to the first closing brace as the
// name, so stray opening braces belong to the name and never survive.
var placeholderPattern = regexp.MustCompile(`\{\{([^}]*)\}\}`)

// Variable names available to templates.
const (
	VarVendorName         = "vendorName"
	VarVendorEmail        = "vendorEmail"
	VarContactPerson      = "contactPerson"
	VarContactNumber      = "contactNumber"
	VarMissingFields      = "missingFields"
	VarIncorrectFields    = "incorrectFields"
	VarIssueCount         = "issueCount"
	VarCriticalIssueCount = "criticalIssueCount"
	VarIssueList          = "issueList"
	VarCurrentDate        = "currentDate"
	VarCompanyName        = "companyName"
	VarSupportEmail       = "supportEmail"
	VarPortalURL          = "portalUrl"
)

// VariableNames lists every variable Variables produces.
func VariableNames() []string {
	return []string{
		VarVendorName,
		VarVendorEmail,
		VarContactPerson,
		VarContactNumber,
		VarMissingFields,
		VarIncorrectFields,
		VarIssueCount,
		VarCriticalIssueCount,
		VarIssueList,
		VarCurrentDate,
		VarCompanyName,
		VarSupportEmail,
		VarPortalURL,
	}
}

// Render replaces every {{name}} in a single pass. Unknown and empty names
// render as the empty string and substituted values are not rescanned.
func Render(template string, vars map[string]string) string {
	if !strings.Contains(template, "{{") {
		return template
	}
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := strings.TrimSpace(match[2 : len(match)-2])
		if name == "" {
			return ""
		}
		return vars[name]
	})
}

// Placeholders returns the distinct placeholder names of a template in order
// of first appearance.
func Placeholders(template string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(template, -1)
	seen := make(map[string]struct{}, len(matches))
	names := make([]string, 0, len(matches))
	for _, match := range matches {
		name := strings.TrimSpace(match[1])
		if _, ok := seen[name]; ok || name == "" {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// Company is the sender identity shown in vendor-facing messages.
type Company struct {
	Name         string
	SupportEmail string
	PortalURL    string
}

// VariableInput is everything Variables reads.
type VariableInput struct {
	Request domain.VendorRequest
	Issues  []domain.ValidationIssue
	Now     time.Time
	Company Company
}

// Variables builds the template variable map.
func Variables(input VariableInput) map[string]string {
	vars := map[string]string{
		VarVendorName:         input.Request.VendorName,
		VarVendorEmail:        input.Request.VendorEmail,
		VarContactPerson:      input.Request.ContactPerson,
		VarContactNumber:      input.Request.ContactNumber,
		VarMissingFields:      "",
		VarIncorrectFields:    "",
		VarIssueCount:         strconv.Itoa(len(input.Issues)),
		VarCriticalIssueCount: "0",
		VarIssueList:          "",
		VarCurrentDate:        input.Now.UTC().Format(domain.DateLayout),
		VarCompanyName:        input.Company.Name,
		VarSupportEmail:       input.Company.SupportEmail,
		VarPortalURL:          input.Company.PortalURL,
	}
	if len(input.Issues) == 0 {
		return vars
	}

	var missing, incorrect, list []string
	critical := 0
	for i, issue := range input.Issues {
		switch issue.IssueType {
		case domain.IssueTypeMissingData:
			missing = append(missing, issue.FieldName)
		case domain.IssueTypeIncorrectData:
			incorrect = append(incorrect, issue.FieldName)
		}
		if issue.Severity == domain.SeverityCritical {
			critical++
		}
		list = append(list, fmt.Sprintf("%d. %s: %s", i+1, issue.FieldName, issue.Message))
	}
	vars[VarMissingFields] = strings.Join(missing, "\n")
	vars[VarIncorrectFields] = strings.Join(incorrect, "\n")
	vars[VarCriticalIssueCount] = strconv.Itoa(critical)
	vars[VarIssueList] = strings.Join(list, "\n")
	return vars
}
