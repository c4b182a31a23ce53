package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
)

// Accessor reads one field of a submission. It returns nil when the field or
// its enclosing section is absent.
type Accessor func(domain.VendorOnboarding) any

func business(read func(*domain.BusinessDetails) any) Accessor {
	return func(o domain.VendorOnboarding) any {
		if o.Business == nil {
			return nil
		}
		return read(o.Business)
	}
}

func contact(read func(*domain.ContactDetails) any) Accessor {
	return func(o domain.VendorOnboarding) any {
		if o.Contact == nil {
			return nil
		}
		return read(o.Contact)
	}
}

func banking(read func(*domain.BankingDetails) any) Accessor {
	return func(o domain.VendorOnboarding) any {
		if o.Banking == nil {
			return nil
		}
		return read(o.Banking)
	}
}

func compliance(read func(*domain.ComplianceDetails) any) Accessor {
	return func(o domain.VendorOnboarding) any {
		if o.Compliance == nil {
			return nil
		}
		return read(o.Compliance)
	}
}

var accessors = map[string]Accessor{
	"businessDetails.legalBusinessName":          business(func(b *domain.BusinessDetails) any { return b.LegalBusinessName }),
	"businessDetails.businessRegistrationNumber": business(func(b *domain.BusinessDetails) any { return b.BusinessRegistrationNumber }),
	"businessDetails.businessType":               business(func(b *domain.BusinessDetails) any { return b.BusinessType }),
	"businessDetails.yearEstablished": business(func(b *domain.BusinessDetails) any {
		if b.YearEstablished == nil {
			return nil
		}
		return *b.YearEstablished
	}),
	"businessDetails.businessAddress":         business(func(b *domain.BusinessDetails) any { return b.BusinessAddress }),
	"businessDetails.numberOfEmployees":       business(func(b *domain.BusinessDetails) any { return b.NumberOfEmployees }),
	"businessDetails.industrySector":          business(func(b *domain.BusinessDetails) any { return b.IndustrySector }),
	"businessDetails.businessDetailsFilePath": business(func(b *domain.BusinessDetails) any { return b.BusinessDetailsFilePath }),

	"contactDetails.primaryContactName":     contact(func(c *domain.ContactDetails) any { return c.PrimaryContactName }),
	"contactDetails.jobTitle":               contact(func(c *domain.ContactDetails) any { return c.JobTitle }),
	"contactDetails.emailAddress":           contact(func(c *domain.ContactDetails) any { return c.EmailAddress }),
	"contactDetails.phoneNumber":            contact(func(c *domain.ContactDetails) any { return c.PhoneNumber }),
	"contactDetails.secondaryContactName":   contact(func(c *domain.ContactDetails) any { return c.SecondaryContactName }),
	"contactDetails.secondaryContactEmail":  contact(func(c *domain.ContactDetails) any { return c.SecondaryContactEmail }),
	"contactDetails.website":                contact(func(c *domain.ContactDetails) any { return c.Website }),
	"contactDetails.contactDetailsFilePath": contact(func(c *domain.ContactDetails) any { return c.ContactDetailsFilePath }),

	"bankingDetails.bankName":               banking(func(b *domain.BankingDetails) any { return b.BankName }),
	"bankingDetails.accountHolderName":      banking(func(b *domain.BankingDetails) any { return b.AccountHolderName }),
	"bankingDetails.accountNumber":          banking(func(b *domain.BankingDetails) any { return b.AccountNumber }),
	"bankingDetails.accountType":            banking(func(b *domain.BankingDetails) any { return b.AccountType }),
	"bankingDetails.routingSwiftCode":       banking(func(b *domain.BankingDetails) any { return b.RoutingSwiftCode }),
	"bankingDetails.iban":                   banking(func(b *domain.BankingDetails) any { return b.IBAN }),
	"bankingDetails.paymentTerms":           banking(func(b *domain.BankingDetails) any { return b.PaymentTerms }),
	"bankingDetails.currency":               banking(func(b *domain.BankingDetails) any { return b.Currency }),
	"bankingDetails.bankingDetailsFilePath": banking(func(b *domain.BankingDetails) any { return b.BankingDetailsFilePath }),

	"complianceDetails.taxIdentificationNumber": compliance(func(c *domain.ComplianceDetails) any { return c.TaxIdentificationNumber }),
	"complianceDetails.businessLicenseNumber":   compliance(func(c *domain.ComplianceDetails) any { return c.BusinessLicenseNumber }),
	"complianceDetails.licenseExpiryDate": compliance(func(c *domain.ComplianceDetails) any {
		if c.LicenseExpiryDate == nil {
			return nil
		}
		return *c.LicenseExpiryDate
	}),
	"complianceDetails.insuranceProvider":     compliance(func(c *domain.ComplianceDetails) any { return c.InsuranceProvider }),
	"complianceDetails.insurancePolicyNumber": compliance(func(c *domain.ComplianceDetails) any { return c.InsurancePolicyNumber }),
	"complianceDetails.insuranceExpiryDate": compliance(func(c *domain.ComplianceDetails) any {
		if c.InsuranceExpiryDate == nil {
			return nil
		}
		return *c.InsuranceExpiryDate
	}),
	"complianceDetails.industryCertifications": compliance(func(c *domain.ComplianceDetails) any { return c.IndustryCertifications }),
	"complianceDetails.complianceFilePath":     compliance(func(c *domain.ComplianceDetails) any { return c.ComplianceFilePath }),
}

// Extract reads the field at a dotted path such as "contactDetails.emailAddress".
func Extract(onboarding domain.VendorOnboarding, path string) (any, error) {
	accessor, ok := accessors[strings.TrimSpace(path)]
	if !ok {
		return nil, fmt.Errorf("unknown field path %q", path)
	}
	return accessor(onboarding), nil
}

// FieldPaths lists every extractable path in sorted order.
func FieldPaths() []string {
	paths := make([]string, 0, len(accessors))
	for path := range accessors {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// leafName returns the last segment of a dotted path.
func leafName(path string) string {
	if idx := strings.LastIndex(path, "."); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
