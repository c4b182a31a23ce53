package domain

import "time"

// VendorRequest identifies one vendor invited to onboard.
type VendorRequest struct {
	ID                  string
	VendorName          string
	VendorEmail         string
	ContactPerson       string
	ContactNumber       string
	VendorCategory      string
	Remarks             string
	Status              Status
	InvitationToken     string
	InvitationSentAt    *time.Time
	InvitationExpiresAt *time.Time
	CreatedBy           string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	DeletedAt           *time.Time
}

// IsDeleted reports whether the request carries a soft-delete marker.
func (r VendorRequest) IsDeleted() bool {
	return r.DeletedAt != nil
}

// InvitationExpired reports whether the invitation link is no longer usable at now.
func (r VendorRequest) InvitationExpired(now time.Time) bool {
	return r.InvitationExpiresAt != nil && now.After(*r.InvitationExpiresAt)
}

// BusinessDetails is the company profile section of a submission.
type BusinessDetails struct {
	LegalBusinessName          string `json:"legal_business_name,omitempty"`
	BusinessRegistrationNumber string `json:"business_registration_number,omitempty"`
	BusinessType               string `json:"business_type,omitempty"`
	YearEstablished            *int   `json:"year_established,omitempty"`
	BusinessAddress            string `json:"business_address,omitempty"`
	NumberOfEmployees          string `json:"number_of_employees,omitempty"`
	IndustrySector             string `json:"industry_sector,omitempty"`
	BusinessDetailsFilePath    string `json:"business_details_file_path,omitempty"`
}

// ContactDetails is the contact section of a submission.
type ContactDetails struct {
	PrimaryContactName     string `json:"primary_contact_name,omitempty"`
	JobTitle               string `json:"job_title,omitempty"`
	EmailAddress           string `json:"email_address,omitempty"`
	PhoneNumber            string `json:"phone_number,omitempty"`
	SecondaryContactName   string `json:"secondary_contact_name,omitempty"`
	SecondaryContactEmail  string `json:"secondary_contact_email,omitempty"`
	Website                string `json:"website,omitempty"`
	ContactDetailsFilePath string `json:"contact_details_file_path,omitempty"`
}

// BankingDetails is the payment section of a submission.
type BankingDetails struct {
	BankName               string `json:"bank_name,omitempty"`
	AccountHolderName      string `json:"account_holder_name,omitempty"`
	AccountNumber          string `json:"account_number,omitempty"`
	AccountType            string `json:"account_type,omitempty"`
	RoutingSwiftCode       string `json:"routing_swift_code,omitempty"`
	IBAN                   string `json:"iban,omitempty"`
	PaymentTerms           string `json:"payment_terms,omitempty"`
	Currency               string `json:"currency,omitempty"`
	BankingDetailsFilePath string `json:"banking_details_file_path,omitempty"`
}

// ComplianceDetails is the tax, license and insurance section of a submission.
// Expiry dates are calendar dates stored at UTC midnight.
type ComplianceDetails struct {
	TaxIdentificationNumber string     `json:"tax_identification_number,omitempty"`
	BusinessLicenseNumber   string     `json:"business_license_number,omitempty"`
	LicenseExpiryDate       *time.Time `json:"license_expiry_date,omitempty"`
	InsuranceProvider       string     `json:"insurance_provider,omitempty"`
	InsurancePolicyNumber   string     `json:"insurance_policy_number,omitempty"`
	InsuranceExpiryDate     *time.Time `json:"insurance_expiry_date,omitempty"`
	IndustryCertifications  string     `json:"industry_certifications,omitempty"`
	ComplianceFilePath      string     `json:"compliance_file_path,omitempty"`
}

// VendorOnboarding is the submitted data container for one vendor request.
type VendorOnboarding struct {
	ID          string
	RequestID   string
	Business    *BusinessDetails
	Contact     *ContactDetails
	Banking     *BankingDetails
	Compliance  *ComplianceDetails
	IsComplete  bool
	SubmittedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateLayout formats calendar dates in vendor-facing copy.
const DateLayout = "2006-01-02"
