package devauth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bengkelink/bengkelink-web/internal/adapters/jwtverify"
	domainauth "github.com/bengkelink/bengkelink-web/internal/domain/auth"
	apperrors "github.com/bengkelink/bengkelink-web/internal/errors"
)

func newTestBackend(t *testing.T) (*Backend, *jwtverify.HS256) {
	t.Helper()
	signer, err := jwtverify.New(jwtverify.Config{Secret: "dev-secret-dev-secret-dev-secret-1234"})
	require.NoError(t, err)
	b, err := NewBackend(Config{Signer: signer, Accounts: DefaultAccounts("bengkelink.dev")})
	require.NoError(t, err)
	return b, signer
}

func TestNewBackend_RequiresSigner(t *testing.T) {
	_, err := NewBackend(Config{})
	require.Error(t, err)
}

func TestBackend_PasswordGrantAndProfile(t *testing.T) {
	b, signer := newTestBackend(t)
	ctx := context.Background()

	sess, err := b.PasswordGrant(ctx, domainauth.PasswordCredentials{Email: "Pelanggan@bengkelink.dev", Password: DefaultPassword})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.RefreshToken)

	claims, err := signer.Verify(ctx, sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, claims.Subject)

	row, err := b.QueryProfile(ctx, sess.UserID)
	require.NoError(t, err)
	u, err := domainauth.MapProfile(row, sess.Email, time.Now())
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleCustomer, u.Role())
	assert.Equal(t, "Budi Santoso", u.Account().Name)
}

func TestBackend_WorkshopSignsInWithPartnershipEmail(t *testing.T) {
	b, _ := newTestBackend(t)
	creds := domainauth.LoginCredentials{PartnershipNumber: "BKL-0001", Password: DefaultPassword, Role: domainauth.RoleWorkshop}

	sess, err := b.PasswordGrant(context.Background(), domainauth.PasswordCredentials{
		Email:    creds.Identifier("bengkelink.dev"),
		Password: creds.Password,
	})
	require.NoError(t, err)

	row, err := b.QueryProfile(context.Background(), sess.UserID)
	require.NoError(t, err)
	assert.Equal(t, "workshop", row.String("role"))
}

func TestBackend_PasswordGrant_Invalid(t *testing.T) {
	b, _ := newTestBackend(t)
	_, err := b.PasswordGrant(context.Background(), domainauth.PasswordCredentials{Email: "pelanggan@bengkelink.dev", Password: "wrong"})
	var pe *domainauth.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "invalid_credentials", pe.Code)

	_, err = b.PasswordGrant(context.Background(), domainauth.PasswordCredentials{Email: "nobody@bengkelink.dev", Password: "x"})
	require.ErrorAs(t, err, &pe)
}

func TestBackend_RefreshRotates(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()
	sess, err := b.PasswordGrant(ctx, domainauth.PasswordCredentials{Email: "teknisi@bengkelink.dev", Password: DefaultPassword})
	require.NoError(t, err)

	next, err := b.RefreshGrant(ctx, sess.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, sess.RefreshToken, next.RefreshToken)

	_, err = b.RefreshGrant(ctx, sess.RefreshToken)
	var pe *domainauth.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "refresh_token_not_found", pe.Code)
}

func TestBackend_SignOutRevokesRefreshTokens(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()
	sess, err := b.PasswordGrant(ctx, domainauth.PasswordCredentials{Email: "teknisi@bengkelink.dev", Password: DefaultPassword})
	require.NoError(t, err)

	require.NoError(t, b.SignOut(ctx, sess.AccessToken))
	_, err = b.RefreshGrant(ctx, sess.RefreshToken)
	require.Error(t, err)

	require.NoError(t, b.SignOut(ctx, "garbage"))
}

func TestBackend_SignUp(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()

	res, err := b.SignUp(ctx, domainauth.SignUpRequest{
		Email:    "baru@bengkelink.dev",
		Password: "rahasia",
		Metadata: map[string]any{"role": "technician", "name": "Teknisi Baru", "ktp_number": "3201"},
	})
	require.NoError(t, err)
	assert.Nil(t, res.Session)

	row, err := b.QueryProfile(ctx, res.UserID)
	require.NoError(t, err)
	assert.Equal(t, "pending", row.String("verification_status"))
	assert.Equal(t, "3201", row.String("ktp_number"))

	_, err = b.SignUp(ctx, domainauth.SignUpRequest{Email: "BARU@bengkelink.dev", Password: "rahasia"})
	var pe *domainauth.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusUnprocessableEntity, pe.Status)
	assert.Equal(t, "user_already_exists", pe.Code)

	_, err = b.SignUp(ctx, domainauth.SignUpRequest{Email: "weak@bengkelink.dev", Password: "123"})
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "weak_password", pe.Code)
}

func TestBackend_QueryProfile_NotFound(t *testing.T) {
	b, _ := newTestBackend(t)
	_, err := b.QueryProfile(context.Background(), "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestClaimStore(t *testing.T) {
	s := NewClaimStore()
	ctx := context.Background()
	require.NoError(t, s.Claim(ctx, "u1", 3))
	require.NoError(t, s.Claim(ctx, "u1", 1))
	assert.True(t, apperrors.IsConflict(s.Claim(ctx, "u1", 3)))

	ids, err := s.ClaimedPromoIDs(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, ids)

	ids, err = s.ClaimedPromoIDs(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
