package devauth

import (
	domainauth "github.com/bengkelink/bengkelink-web/internal/domain/auth"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "bengkelink123"

// DefaultAccounts returns one account per role. The workshop signs in with its
// partnership number, so its email is derived from it.
func DefaultAccounts(emailDomain string) []Account {
	return []Account{
		{
			Email:    "pelanggan@" + emailDomain,
			Password: DefaultPassword,
			Profile: domainauth.RawProfileRecord{
				"role":           "customer",
				"name":           "Budi Santoso",
				"username":       "budi",
				"phone":          "081234567890",
				"address":        "Jl. Merdeka No. 10, Bandung",
				"birth_date":     "1995-08-17",
				"terms_accepted": true,
				"is_verified":    true,
				"invite_count":   1,
				"service_count":  0,
			},
		},
		{
			Email:    "teknisi@" + emailDomain,
			Password: DefaultPassword,
			Profile: domainauth.RawProfileRecord{
				"role":                "technician",
				"name":                "Andi Pratama",
				"username":            "andi_teknisi",
				"phone":               "081298765432",
				"partnership_number":  "TKN-0001",
				"specialization":      "Mesin & Kelistrikan",
				"experience_years":    5,
				"is_available":        true,
				"completed_services":  42,
				"rating":              4.8,
				"verification_status": "verified",
				"date_of_birth":       "1990-04-02",
			},
		},
		{
			Email:    domainauth.WorkshopEmail("BKL-0001", emailDomain),
			Password: DefaultPassword,
			Profile: domainauth.RawProfileRecord{
				"role":                "workshop",
				"name":                "Sari Wulandari",
				"workshop_name":       "Bengkel Maju Jaya",
				"partnership_number":  "BKL-0001",
				"province":            "Jawa Barat",
				"city":                "Bandung",
				"postal_code":         "40115",
				"address":             "Jl. Asia Afrika No. 5",
				"services":            []any{"Servis Berkala", "Ganti Oli", "Tune Up"},
				"vehicle_types":       []any{"Motor", "Mobil"},
				"technician_count":    4,
				"owner_name":          "Sari Wulandari",
				"bank_name":           "BCA",
				"bank_account_number": "1234567890",
				"bank_account_holder": "Sari Wulandari",
				"is_approved":         true,
				"rating":              4.6,
				"verification_status": "verified",
				"operational_hours":   map[string]any{"senin": "08:00-17:00", "sabtu": "08:00-12:00"},
			},
		},
	}
}
