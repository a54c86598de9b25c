package service

import (
	"errors"
	"strings"

	domainauth "github.com/bengkelink/bengkelink-web/internal/domain/auth"
)

// User-facing messages for the auth flows.
const (
	msgLoginMissingFields  = "Email/Partnership number dan password diperlukan"
	msgLoginInvalid        = "Email/nomor kemitraan atau password salah"
	msgLoginGeneric        = "Terjadi kesalahan saat login"
	msgLoginNoUser         = "Gagal memuat data pengguna"
	msgLoginProfileFailed  = "Gagal memuat profil pengguna"
	msgLoginInvalidSession = "Sesi tidak valid"
	msgLoginRoleFailed     = "Gagal memuat peran pengguna"

	msgSignupGeneric    = "Terjadi kesalahan saat mendaftar"
	msgSignupSuccess    = "Pendaftaran berhasil! Silakan periksa email Anda untuk verifikasi."
	msgSignupUnknown    = "Terjadi kesalahan yang tidak diketahui. Silakan coba lagi."
	msgSignupUnexpected = "Terjadi kesalahan yang tidak terduga. Silakan coba lagi nanti."

	msgLogoutSuccessTitle = "Logout Berhasil"
	msgLogoutSuccess      = "Anda telah keluar dari akun Anda"
	msgLogoutFailedTitle  = "Logout Gagal"
	msgLogoutFailed       = "Terjadi kesalahan saat logout"
)

// signupErrorMessages maps identity backend error codes to messages.
var signupErrorMessages = map[string]string{
	"email_address_in_use":     "Email sudah terdaftar. Silakan gunakan email lain.",
	"user_already_exists":      "Email sudah terdaftar. Silakan gunakan email lain.",
	"email_not_allowed":        "Email tidak diizinkan. Silakan gunakan email yang valid.",
	"email_exceeds_max_length": "Email terlalu panjang. Maksimal 255 karakter.",
	"email_invalid":            "Format email tidak valid. Contoh: nama@contoh.com",
	"invalid_email":            "Format email tidak valid. Contoh: nama@contoh.com",
	"weak_password":            "Password terlalu lemah. Minimal 6 karakter.",
	"password_too_short":       "Password terlalu pendek. Minimal 6 karakter.",
	"network_failure":          "Koneksi jaringan bermasalah. Periksa koneksi internet Anda.",
}

// SignupErrorMessage converts a signup rejection into a message.
// Unknown codes fall back to sniffing the raw message, then to a generic message.
func SignupErrorMessage(err error) string {
	var pe *domainauth.ProviderError
	if !errors.As(err, &pe) {
		return msgSignupGeneric
	}
	if msg, ok := signupErrorMessages[pe.Code]; ok {
		return msg
	}

	raw := strings.ToLower(pe.Message)
	switch {
	case raw == "":
		return msgSignupGeneric
	case strings.Contains(raw, "already registered"), strings.Contains(raw, "already in use"):
		return "Email sudah terdaftar"
	case strings.Contains(raw, "email"):
		return "Format email tidak valid"
	case strings.Contains(raw, "phone"):
		return "Format nomor telepon tidak valid"
	case strings.Contains(raw, "network"):
		return "Koneksi jaringan bermasalah"
	default:
		return msgSignupGeneric
	}
}

// isInvalidCredentials reports whether a sign-in rejection means a wrong identifier or password.
func isInvalidCredentials(pe *domainauth.ProviderError) bool {
	return pe.Code == "invalid_credentials" ||
		pe.Code == "invalid_grant" ||
		strings.Contains(pe.Message, "Invalid login credentials")
}
