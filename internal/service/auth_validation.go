package service

import (
	"fmt"
	"regexp"
	"strings"

	domainauth "github.com/bengkelink/bengkelink-web/internal/domain/auth"
	apperrors "github.com/bengkelink/bengkelink-web/internal/errors"
	"golang.org/x/net/publicsuffix"
)

// MinPasswordLength is the shortest password accepted at signup.
const MinPasswordLength = 6

var (
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	phonePattern    = regexp.MustCompile(`^[0-9+\-\s()]*$`)
)

// ValidateSignup checks signup input before any call to the identity backend.
// The returned error is an *apperrors.AppError with code validation and the offending field.
func ValidateSignup(d domainauth.SignupData) error {
	if d.Email == "" || d.Password == "" || strings.TrimSpace(d.Name) == "" || d.Phone == "" {
		return apperrors.Validation("Nama, email, nomor telepon, dan password harus diisi")
	}
	if !d.Role.Valid() {
		return apperrors.ValidationField("role", "Peran tidak valid")
	}

	email := strings.TrimSpace(d.Email)
	if email == "" {
		return apperrors.ValidationField("email", "Email tidak boleh kosong")
	}
	if strings.HasSuffix(email, ".") {
		return apperrors.ValidationField("email", "Email tidak boleh diakhiri dengan titik")
	}
	if !emailPattern.MatchString(email) || !hasRegistrableDomain(email) {
		return apperrors.ValidationField("email", fmt.Sprintf("Format email tidak valid (%s). Contoh: nama@contoh.com", email))
	}

	if d.Username != "" && !usernamePattern.MatchString(d.Username) {
		return apperrors.ValidationField("username", "Username hanya boleh berisi huruf, angka, dan underscore (_)")
	}
	if !phonePattern.MatchString(d.Phone) {
		return apperrors.ValidationField("phone", "Format nomor telepon tidak valid")
	}

	if len(d.Password) < MinPasswordLength {
		return apperrors.ValidationField("password", fmt.Sprintf("Password minimal %d karakter", MinPasswordLength))
	}
	if d.ConfirmPassword != "" && d.ConfirmPassword != d.Password {
		return apperrors.ValidationField("confirm_password", "Konfirmasi password tidak cocok")
	}
	if !d.TermsAccepted {
		return apperrors.ValidationField("terms_accepted", "Anda harus menyetujui syarat dan ketentuan")
	}
	return nil
}

// hasRegistrableDomain rejects addresses whose domain is itself a public suffix, such as user@co.id.
func hasRegistrableDomain(email string) bool {
	_, domain, ok := strings.Cut(email, "@")
	if !ok {
		return false
	}
	_, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(domain))
	return err == nil
}
