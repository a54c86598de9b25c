package auth

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrNoProfile is returned by MapProfile when no profile row is available.
var ErrNoProfile = errors.New("no profile data provided")

// RawProfileRecord is one row of the profiles table keyed by column name.
// It is the superset of every role's columns; any column may be missing or NULL.
type RawProfileRecord map[string]any

// ID returns the account identifier of the row.
func (r RawProfileRecord) ID() string { return r.String("id") }

// String returns the column as a string, or "" when missing, NULL or not a string.
func (r RawProfileRecord) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// Number coerces the column to a float, returning 0 for anything that is not a finite number.
func (r RawProfileRecord) Number(key string) float64 {
	var f float64
	switch v := r[key].(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		f, _ = v.Float64()
	case string:
		f, _ = strconv.ParseFloat(strings.TrimSpace(v), 64)
	case bool:
		if v {
			f = 1
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Int is Number truncated to an int and clamped to the int range.
func (r RawProfileRecord) Int(key string) int {
	f := r.Number(key)
	switch {
	case f >= math.MaxInt:
		return math.MaxInt
	case f <= math.MinInt:
		return math.MinInt
	default:
		return int(f)
	}
}

// Bool returns the column as a boolean; missing, NULL and non-boolean values are false.
func (r RawProfileRecord) Bool(key string) bool {
	return r.BoolOr(key, false)
}

// BoolOr returns the column as a boolean, or def when the column is missing or NULL.
func (r RawProfileRecord) BoolOr(key string, def bool) bool {
	v, ok := r[key]
	if !ok || v == nil {
		return def
	}
	b, isBool := v.(bool)
	return isBool && b
}

// Strings returns the column as a string slice. Non-array values yield an empty slice.
func (r RawProfileRecord) Strings(key string) []string {
	out := []string{}
	switch v := r[key].(type) {
	case []string:
		out = append(out, v...)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

// Object returns the column as a JSON object. Non-object values yield an empty map.
func (r RawProfileRecord) Object(key string) map[string]any {
	if m, ok := r[key].(map[string]any); ok && m != nil {
		return m
	}
	return map[string]any{}
}

// Time parses the column as an RFC 3339 timestamp, falling back to def.
func (r RawProfileRecord) Time(key string, def time.Time) time.Time {
	if t, ok := r[key].(time.Time); ok {
		return t
	}
	s := r.String(key)
	if s == "" {
		return def
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999-07", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return def
}

// MapProfile converts a profiles row and the session's email into a fully populated User.
// The row never stores email, so sessionEmail wins; the row's email column is used only when the session has none.
// Unknown or missing roles map to a customer.
func MapProfile(raw RawProfileRecord, sessionEmail string, now time.Time) (User, error) {
	if raw == nil {
		return nil, ErrNoProfile
	}

	role, ok := ParseRole(raw.String("role"))
	if !ok {
		role = RoleCustomer
	}

	base := mapBase(raw, role, sessionEmail, now)
	switch role {
	case RoleWorkshop:
		return &WorkshopUser{
			BaseUser:        base,
			BusinessProfile: mapBusiness(raw, raw.Int("technician_count")),
		}, nil
	case RoleTechnician:
		return &TechnicianUser{
			BaseUser: base,
			// technician_count only describes workshops
			BusinessProfile:   mapBusiness(raw, 0),
			PartnershipNumber: raw.String("partnership_number"),
			IDNumber:          raw.String("ktp_number"),
			IDPhoto:           raw.String("ktp_scan"),
			Specialization:    raw.String("specialization"),
			ExperienceYears:   raw.Int("experience_years"),
			IsAvailable:       raw.Bool("is_available"),
			IsActive:          raw.BoolOr("is_active", true),
			DateOfBirth:       raw.Time("date_of_birth", now),
			CompletedServices: raw.Int("completed_services"),
		}, nil
	case RoleCustomer:
		return &CustomerUser{
			BaseUser:     base,
			Address:      raw.String("address"),
			DateOfBirth:  raw.String("birth_date"),
			InviteCount:  raw.Int("invite_count"),
			ServiceCount: raw.Int("service_count"),
		}, nil
	}
	return nil, errors.New("unreachable role")
}

func mapBase(raw RawProfileRecord, role Role, sessionEmail string, now time.Time) BaseUser {
	email := sessionEmail
	if email == "" {
		email = raw.String("email")
	}
	name := raw.String("name")
	if name == "" {
		name = role.Label()
	}
	return BaseUser{
		ID:            raw.ID(),
		Email:         email,
		Name:          name,
		Phone:         raw.String("phone"),
		Username:      raw.String("username"),
		TermsAccepted: raw.Bool("terms_accepted"),
		IsVerified:    raw.Bool("is_verified"),
		CreatedAt:     raw.Time("created_at", now),
		UpdatedAt:     raw.Time("updated_at", now),
		ProfilePhoto:  raw.String("profile_photo_url"),
	}
}

func mapBusiness(raw RawProfileRecord, technicianCount int) BusinessProfile {
	return BusinessProfile{
		WorkshopName:       raw.String("workshop_name"),
		Province:           raw.String("province"),
		City:               raw.String("city"),
		PostalCode:         raw.String("postal_code"),
		DetailAddress:      raw.String("address"),
		OperatingHours:     raw.Object("operational_hours"),
		Services:           raw.Strings("services"),
		VehicleTypes:       raw.Strings("vehicle_types"),
		TechnicianCount:    technicianCount,
		OwnerName:          raw.String("owner_name"),
		BusinessNumber:     raw.String("nib"),
		TaxNumber:          raw.String("npwp"),
		BankName:           raw.String("bank_name"),
		AccountNumber:      raw.String("bank_account_number"),
		AccountName:        raw.String("bank_account_holder"),
		IsApproved:         raw.Bool("is_approved"),
		Rating:             raw.Number("rating"),
		VerificationStatus: parseVerificationStatus(raw.String("verification_status")),
	}
}
