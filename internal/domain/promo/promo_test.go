package promo

import (
	"strings"
	"testing"
	"time"

	"github.com/bengkelink/bengkelink-web/internal/domain/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	all := c.All()
	require.Len(t, all, 6)
	assert.Equal(t, "NEWUSER50", all[0].Code)
	assert.Equal(t, "DOUBLE66", all[5].Code)

	p, err := c.Get(3)
	require.NoError(t, err)
	assert.Equal(t, "REFERRAL50K", p.Code)

	_, err = c.Get(99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPromo_Expired(t *testing.T) {
	p := Promo{ID: 5, Expires: "01-06-2025"}
	lastDay := time.Date(2025, 6, 1, 23, 0, 0, 0, wib)
	assert.False(t, p.Expired(lastDay))
	assert.True(t, p.Expired(lastDay.Add(time.Hour)))
	assert.True(t, Promo{ID: 7, Expires: "soon"}.Expired(lastDay))
}

func TestLoadCatalog_RejectsBadExpiry(t *testing.T) {
	_, err := LoadCatalog(strings.NewReader(`[{"id":1,"title":"x","expires":"2025/01/01"}]`))
	require.Error(t, err)

	c, err := LoadCatalog(strings.NewReader(`[{"id":2,"title":"b","expires":"01-01-2030"},{"id":1,"title":"a","expires":"01-01-2030"}]`))
	require.NoError(t, err)
	assert.Equal(t, 1, c.All()[0].ID)
}

func TestFactsFor(t *testing.T) {
	assert.Equal(t, Facts{}, FactsFor(nil))

	c := &auth.CustomerUser{InviteCount: 2, ServiceCount: 10}
	f := FactsFor(c)
	assert.Equal(t, Facts{Role: "customer", InviteCount: 2, ServiceCount: 10}, f)

	fresh := FactsFor(&auth.CustomerUser{})
	assert.True(t, fresh.IsNewUser)

	tech := FactsFor(&auth.TechnicianUser{CompletedServices: 3})
	assert.Equal(t, 3, tech.ServiceCount)
	assert.False(t, tech.IsNewUser)
}
