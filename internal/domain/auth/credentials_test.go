package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkshopEmail(t *testing.T) {
	assert.Equal(t, "BL123@workshop.bengkelink.com", WorkshopEmail("BL123", ""))
	assert.Equal(t, "BL123@workshop.example.org", WorkshopEmail(" BL123 ", "example.org"))
}

func TestLoginCredentials_Identifier(t *testing.T) {
	c := LoginCredentials{PartnershipNumber: "P-9", Role: RoleWorkshop}
	assert.True(t, c.HasIdentifier())
	assert.Equal(t, "P-9@workshop.bengkelink.com", c.Identifier(DefaultEmailDomain))

	c.Email = "owner@example.com"
	assert.Equal(t, "owner@example.com", c.Identifier(DefaultEmailDomain))

	assert.False(t, LoginCredentials{Password: "x"}.HasIdentifier())
}

func TestSignupData_MetadataRoleScoped(t *testing.T) {
	d := SignupData{
		Name:  "Ani",
		Email: "ani@example.com",
		Phone: "0812",
		Role:  RoleCustomer,
		Workshop: &WorkshopSignup{
			WorkshopName: "ignored",
		},
		Technician: &TechnicianSignup{KTPNumber: "ignored"},
	}
	md := d.Metadata()
	assert.Equal(t, "ani", md["username"])
	assert.NotContains(t, md, "workshop_name")
	assert.NotContains(t, md, "ktp_number")

	d.Role = RoleWorkshop
	md = d.Metadata()
	assert.Equal(t, "ignored", md["workshop_name"])
	assert.NotContains(t, md, "ktp_number")

	d.Role = RoleTechnician
	d.Username = "ani_tech"
	md = d.Metadata()
	assert.Equal(t, "ani_tech", md["username"])
	assert.Equal(t, "ignored", md["ktp_number"])
	assert.NotContains(t, md, "workshop_name")
}
