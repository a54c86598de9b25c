package httpx

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	domainauth "github.com/bengkelink/bengkelink-web/internal/domain/auth"
	apperrors "github.com/bengkelink/bengkelink-web/internal/errors"
	"github.com/bengkelink/bengkelink-web/internal/service"
)

// Days shown on the workshop operating-hours fieldset, in display order.
var operatingDays = []string{"senin", "selasa", "rabu", "kamis", "jumat", "sabtu", "minggu"}

func formValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.PostFormValue(key))
}

func formList(r *http.Request, key string) []string {
	var out []string
	for _, v := range r.PostForm[key] {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func formBool(r *http.Request, key string) bool {
	switch strings.ToLower(formValue(r, key)) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}

// parseLoginForm reads the login form. The role falls back to customer.
func parseLoginForm(r *http.Request) (domainauth.LoginCredentials, error) {
	if err := r.ParseForm(); err != nil {
		return domainauth.LoginCredentials{}, apperrors.Validation("Form tidak valid")
	}
	role, ok := domainauth.ParseRole(formValue(r, "role"))
	if !ok {
		role = domainauth.RoleCustomer
	}
	return domainauth.LoginCredentials{
		Email:             formValue(r, "email"),
		PartnershipNumber: formValue(r, "partnership_number"),
		// Passwords are taken verbatim.
		Password: r.PostFormValue("password"),
		Role:     role,
	}, nil
}

// parseSignupForm reads the signup form, urlencoded or multipart. Role-specific sections are
// populated only for their role.
func parseSignupForm(r *http.Request, maxMemory int64) (domainauth.SignupData, error) {
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(maxMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		if errors.Is(err, multipart.ErrMessageTooLarge) {
			return domainauth.SignupData{}, apperrors.Validation("Ukuran berkas terlalu besar")
		}
		return domainauth.SignupData{}, apperrors.Validation("Form tidak valid")
	}

	role, _ := domainauth.ParseRole(formValue(r, "role"))
	d := domainauth.SignupData{
		Name:            formValue(r, "name"),
		Email:           formValue(r, "email"),
		Username:        formValue(r, "username"),
		Phone:           formValue(r, "phone"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
		Role:            role,
		TermsAccepted:   formBool(r, "terms_accepted"),
	}

	switch role {
	case domainauth.RoleWorkshop:
		count, _ := strconv.Atoi(formValue(r, "technician_count"))
		d.Workshop = &domainauth.WorkshopSignup{
			WorkshopName:      formValue(r, "workshop_name"),
			Province:          formValue(r, "province"),
			City:              formValue(r, "city"),
			PostalCode:        formValue(r, "postal_code"),
			Address:           formValue(r, "address"),
			OperationalHours:  parseOperatingHours(r),
			Services:          formList(r, "services"),
			VehicleTypes:      formList(r, "vehicle_types"),
			TechnicianCount:   max(count, 0),
			OwnerName:         formValue(r, "owner_name"),
			OwnerKTPNumber:    formValue(r, "owner_ktp_number"),
			OwnerPhone:        formValue(r, "owner_phone"),
			NIB:               formValue(r, "nib"),
			NPWP:              formValue(r, "npwp"),
			BankName:          formValue(r, "bank_name"),
			BankAccountNumber: formValue(r, "bank_account_number"),
			BankAccountHolder: formValue(r, "bank_account_holder"),
		}
	case domainauth.RoleTechnician:
		d.Technician = &domainauth.TechnicianSignup{
			KTPNumber: formValue(r, "ktp_number"),
			BirthDate: formValue(r, "birth_date"),
		}
	}
	return d, nil
}

// parseOperatingHours reads hours_<day>_open / hours_<day>_close pairs. Days without both
// times are closed.
func parseOperatingHours(r *http.Request) map[string]any {
	hours := make(map[string]any, len(operatingDays))
	for _, day := range operatingDays {
		open := formValue(r, "hours_"+day+"_open")
		closing := formValue(r, "hours_"+day+"_close")
		if open == "" || closing == "" {
			hours[day] = map[string]any{"closed": true}
			continue
		}
		hours[day] = map[string]any{"open": open, "close": closing, "closed": false}
	}
	return hours
}

// signupFiles collects the upload slots present on a multipart form. The caller closes the
// returned files.
func signupFiles(r *http.Request) ([]service.SignupFile, func(), error) {
	var files []service.SignupFile
	var closers []multipart.File
	closeAll := func() {
		for _, f := range closers {
			_ = f.Close()
		}
	}
	if r.MultipartForm == nil {
		return nil, closeAll, nil
	}
	for _, slot := range []string{service.UploadProfilePhoto, service.UploadKTPScan} {
		headers := r.MultipartForm.File[slot]
		if len(headers) == 0 || headers[0].Size == 0 {
			continue
		}
		fh := headers[0]
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("open %s: %w", slot, err)
		}
		closers = append(closers, f)
		files = append(files, service.SignupFile{
			Slot:        slot,
			FileName:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Body:        f,
			Size:        fh.Size,
		})
	}
	return files, closeAll, nil
}

// signupFormValues echoes non-secret fields back into a re-rendered form.
func signupFormValues(r *http.Request) map[string]string {
	out := make(map[string]string, len(r.PostForm))
	for k, v := range r.PostForm {
		if len(v) == 0 || k == "password" || k == "confirm_password" || k == DefaultCSRFCookieName {
			continue
		}
		out[k] = v[0]
	}
	return out
}
