package auth

import "strings"

// DefaultEmailDomain is the public domain used for synthetic workshop identifiers.
const DefaultEmailDomain = "bengkelink.com"

// WorkshopEmail builds the email-shaped identifier for a workshop partnership number.
// The identity backend only accepts email identifiers, so workshops sign in as
// <partnershipNumber>@workshop.<domain>.
func WorkshopEmail(partnershipNumber, domain string) string {
	if domain == "" {
		domain = DefaultEmailDomain
	}
	return strings.TrimSpace(partnershipNumber) + "@workshop." + domain
}

// LoginCredentials is the login form input.
type LoginCredentials struct {
	// Email also accepts a username typed into the combined field.
	Email             string
	PartnershipNumber string
	Password          string
	Role              Role
}

// HasIdentifier reports whether an email or partnership number is present.
func (c LoginCredentials) HasIdentifier() bool {
	return strings.TrimSpace(c.Email) != "" || strings.TrimSpace(c.PartnershipNumber) != ""
}

// Identifier returns the email to present to the identity backend.
func (c LoginCredentials) Identifier(domain string) string {
	if email := strings.TrimSpace(c.Email); email != "" {
		return email
	}
	return WorkshopEmail(c.PartnershipNumber, domain)
}

// PasswordCredentials is what the identity backend's password grant accepts.
type PasswordCredentials struct {
	Email    string
	Password string
}

// WorkshopSignup carries the business fields collected from workshop applicants.
type WorkshopSignup struct {
	WorkshopName      string
	Province          string
	City              string
	PostalCode        string
	Address           string
	OperationalHours  map[string]any
	Services          []string
	VehicleTypes      []string
	TechnicianCount   int
	OwnerName         string
	OwnerKTPNumber    string
	OwnerKTPScan      string
	OwnerPhone        string
	NIB               string
	NPWP              string
	BankName          string
	BankAccountNumber string
	BankAccountHolder string
}

// TechnicianSignup carries identity document fields collected from technicians.
type TechnicianSignup struct {
	KTPNumber string
	KTPScan   string
	BirthDate string
}

// SignupData is the registration form input.
type SignupData struct {
	Name            string
	Email           string
	Username        string
	Phone           string
	Password        string
	ConfirmPassword string
	Role            Role
	TermsAccepted   bool
	ProfilePhotoURL string

	Workshop   *WorkshopSignup
	Technician *TechnicianSignup
}

// Metadata builds the user metadata sent with the signup call.
// Role-specific fields are attached only when the role matches.
func (d SignupData) Metadata() map[string]any {
	username := strings.TrimSpace(d.Username)
	if username == "" {
		username, _, _ = strings.Cut(strings.TrimSpace(d.Email), "@")
	}
	md := map[string]any{
		"role":           string(d.Role),
		"name":           d.Name,
		"username":       username,
		"phone":          d.Phone,
		"terms_accepted": d.TermsAccepted,
	}
	if d.ProfilePhotoURL != "" {
		md["profile_photo_url"] = d.ProfilePhotoURL
	}

	switch {
	case d.Role == RoleWorkshop && d.Workshop != nil:
		w := d.Workshop
		md["workshop_name"] = w.WorkshopName
		md["province"] = w.Province
		md["city"] = w.City
		md["postal_code"] = w.PostalCode
		md["address"] = w.Address
		md["operational_hours"] = w.OperationalHours
		md["services"] = w.Services
		md["vehicle_types"] = w.VehicleTypes
		md["technician_count"] = w.TechnicianCount
		md["owner_name"] = w.OwnerName
		md["owner_ktp_number"] = w.OwnerKTPNumber
		md["owner_ktp_scan"] = w.OwnerKTPScan
		md["owner_phone"] = w.OwnerPhone
		md["nib"] = w.NIB
		md["npwp"] = w.NPWP
		md["bank_name"] = w.BankName
		md["bank_account_number"] = w.BankAccountNumber
		md["bank_account_holder"] = w.BankAccountHolder
	case d.Role == RoleTechnician && d.Technician != nil:
		t := d.Technician
		md["ktp_number"] = t.KTPNumber
		md["ktp_scan"] = t.KTPScan
		md["birth_date"] = t.BirthDate
	}
	return md
}

// SignUpRequest is the identity backend's signup payload.
type SignUpRequest struct {
	Email      string
	Password   string
	RedirectTo string
	Metadata   map[string]any
}

// SignUpResult is the identity backend's signup response.
// Session is nil when the backend requires email confirmation first.
type SignUpResult struct {
	UserID  string
	Session *Session
}

// FailureKind classifies why a login or signup did not succeed.
type FailureKind string

const (
	FailureValidation  FailureKind = "validation"
	FailureProvider    FailureKind = "provider"
	FailureProfileLoad FailureKind = "profile_load"
	FailureUnexpected  FailureKind = "unexpected"
)

// LoginResult is the outcome of a login attempt.
type LoginResult struct {
	Success bool        `json:"success"`
	Role    Role        `json:"role,omitempty"`
	Error   string      `json:"error,omitempty"`
	Kind    FailureKind `json:"kind,omitempty"`
}

// SignupResult is the outcome of a signup attempt.
type SignupResult struct {
	Success              bool        `json:"success"`
	RequiresConfirmation bool        `json:"requiresConfirmation,omitempty"`
	Error                string      `json:"error,omitempty"`
	Field                string      `json:"field,omitempty"`
	Kind                 FailureKind `json:"kind,omitempty"`
}
