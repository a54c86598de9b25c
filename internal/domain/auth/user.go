package auth

import "time"

// VerificationStatus tracks partner review of a workshop or technician account.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

func parseVerificationStatus(s string) VerificationStatus {
	switch VerificationStatus(s) {
	case VerificationVerified, VerificationRejected:
		return VerificationStatus(s)
	default:
		return VerificationPending
	}
}

// User is one of *CustomerUser, *TechnicianUser or *WorkshopUser.
// The set is closed: only this package can add variants.
type User interface {
	// Role is fixed by the variant and never changes for the lifetime of a session.
	Role() Role
	// Account returns the fields shared by every variant.
	Account() BaseUser
	isUser()
}

// BaseUser holds the fields common to all roles.
type BaseUser struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone"`
	Username      string    `json:"username"`
	TermsAccepted bool      `json:"termsAccepted"`
	IsVerified    bool      `json:"isVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	ProfilePhoto  string    `json:"profilePhoto"`
}

// Account implements User.
func (b BaseUser) Account() BaseUser { return b }

// BusinessProfile is the partner business data carried by workshop and technician accounts.
type BusinessProfile struct {
	WorkshopName       string             `json:"workshopName"`
	Province           string             `json:"province"`
	City               string             `json:"city"`
	PostalCode         string             `json:"postalCode"`
	DetailAddress      string             `json:"detailAddress"`
	OperatingHours     map[string]any     `json:"operatingHours"`
	Services           []string           `json:"services"`
	VehicleTypes       []string           `json:"vehicleTypes"`
	TechnicianCount    int                `json:"technicianCount"`
	OwnerName          string             `json:"ownerName"`
	BusinessNumber     string             `json:"businessNumber"`
	TaxNumber          string             `json:"taxNumber"`
	BankName           string             `json:"bankName"`
	AccountNumber      string             `json:"accountNumber"`
	AccountName        string             `json:"accountName"`
	IsApproved         bool               `json:"isApproved"`
	Rating             float64            `json:"rating"`
	VerificationStatus VerificationStatus `json:"verificationStatus"`
}

// CustomerUser is a vehicle owner booking services.
type CustomerUser struct {
	BaseUser
	Address     string `json:"address"`
	DateOfBirth string `json:"dateOfBirth"`
	// InviteCount and ServiceCount feed promo eligibility.
	InviteCount  int `json:"inviteCount"`
	ServiceCount int `json:"serviceCount"`
}

// TechnicianUser is an independent mechanic partnered with BengkeLink.
type TechnicianUser struct {
	BaseUser
	BusinessProfile
	PartnershipNumber string    `json:"partnershipNumber"`
	IDNumber          string    `json:"idNumber"`
	IDPhoto           string    `json:"idPhoto"`
	Specialization    string    `json:"specialization"`
	ExperienceYears   int       `json:"experienceYears"`
	IsAvailable       bool      `json:"isAvailable"`
	IsActive          bool      `json:"isActive"`
	DateOfBirth       time.Time `json:"dateOfBirth"`
	CompletedServices int       `json:"completedServices"`
}

// WorkshopUser is a partner workshop (bengkel).
type WorkshopUser struct {
	BaseUser
	BusinessProfile
}

func (*CustomerUser) Role() Role   { return RoleCustomer }
func (*TechnicianUser) Role() Role { return RoleTechnician }
func (*WorkshopUser) Role() Role   { return RoleWorkshop }

func (*CustomerUser) isUser()   {}
func (*TechnicianUser) isUser() {}
func (*WorkshopUser) isUser()   {}

var (
	_ User = (*CustomerUser)(nil)
	_ User = (*TechnicianUser)(nil)
	_ User = (*WorkshopUser)(nil)
)
