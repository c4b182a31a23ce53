package validation

import (
	"strings"
	"time"

	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
)

// BusinessFindings batches the business-rule pass into two categories.
type BusinessFindings struct {
	Missing []string
	Invalid []string
}

// Empty reports whether the pass found nothing.
func (f BusinessFindings) Empty() bool {
	return len(f.Missing) == 0 && len(f.Invalid) == 0
}

// MissingFields returns the comma-joined missing labels.
func (f BusinessFindings) MissingFields() string {
	return strings.Join(f.Missing, ", ")
}

// InvalidFields returns the comma-joined invalid labels.
func (f BusinessFindings) InvalidFields() string {
	return strings.Join(f.Invalid, ", ")
}

// MissingMessage is the vendor-facing text for the missing-data follow-up.
func (f BusinessFindings) MissingMessage() string {
	return "The following required fields are missing or incomplete:\n" +
		f.MissingFields() + "\n\n" +
		"Please provide the missing information to complete your onboarding process."
}

// InvalidMessage is the vendor-facing text for the incorrect-data follow-up.
func (f BusinessFindings) InvalidMessage() string {
	return "The following fields contain invalid or expired information:\n" +
		f.InvalidFields() + "\n\n" +
		"Please update these fields with valid information."
}

// CheckBusinessRules inspects the submission sections directly. Expiry dates
// strictly before today's date are invalid.
func CheckBusinessRules(onboarding domain.VendorOnboarding, now time.Time) BusinessFindings {
	var findings BusinessFindings
	today := domain.DateOf(now)

	if b := onboarding.Business; b != nil {
		if b.YearEstablished == nil {
			findings.Missing = append(findings.Missing, "Year Established")
		}
		if blank(b.NumberOfEmployees) {
			findings.Missing = append(findings.Missing, "Number of Employees")
		}
		if blank(b.IndustrySector) {
			findings.Missing = append(findings.Missing, "Industry/Sector")
		}
		if blank(b.BusinessDetailsFilePath) {
			findings.Missing = append(findings.Missing, "Business Details File")
		}
	} else {
		findings.Missing = append(findings.Missing, "Business Details")
	}

	if c := onboarding.Contact; c != nil {
		if blank(c.JobTitle) {
			findings.Missing = append(findings.Missing, "Job Title")
		}
		if blank(c.Website) {
			findings.Missing = append(findings.Missing, "Website")
		}
	} else {
		findings.Missing = append(findings.Missing, "Contact Details")
	}

	if b := onboarding.Banking; b != nil {
		if blank(b.RoutingSwiftCode) {
			findings.Missing = append(findings.Missing, "Routing/SWIFT Code")
		}
		if blank(b.PaymentTerms) {
			findings.Missing = append(findings.Missing, "Payment Terms")
		}
		if blank(b.Currency) {
			findings.Missing = append(findings.Missing, "Currency")
		}
	} else {
		findings.Missing = append(findings.Missing, "Banking Details")
	}

	if c := onboarding.Compliance; c != nil {
		if expired(c.LicenseExpiryDate, today) {
			findings.Invalid = append(findings.Invalid, "Business License (Expired on "+c.LicenseExpiryDate.UTC().Format(domain.DateLayout)+")")
		}
		if expired(c.InsuranceExpiryDate, today) {
			findings.Invalid = append(findings.Invalid, "Insurance Policy (Expired on "+c.InsuranceExpiryDate.UTC().Format(domain.DateLayout)+")")
		}
	} else {
		findings.Missing = append(findings.Missing, "Compliance Details")
	}
	return findings
}

func blank(value string) bool {
	return strings.TrimSpace(value) == ""
}

func expired(expiry *time.Time, today time.Time) bool {
	return expiry != nil && domain.DateOf(*expiry).Before(today)
}
