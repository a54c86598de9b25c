// Package promo models the promotional offers shown to signed-in users.
package promo

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/bengkelink/bengkelink-web/internal/domain/auth"
)

// ExpiryLayout is the day-month-year format promo expiry dates are written in.
const ExpiryLayout = "02-01-2006"

// wib is Western Indonesia Time, the zone promo dates are published in.
var wib = time.FixedZone("WIB", 7*60*60)

// ErrNotFound is returned when a promo id is not in the catalog.
var ErrNotFound = errors.New("promo not found")

// Promo is a single offer. Eligibility is a JMESPath expression evaluated against Facts.
type Promo struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Image       string `json:"image"`
	Description string `json:"description"`
	Terms       string `json:"terms"`
	Expires     string `json:"expires"`
	Eligibility string `json:"eligibility"`
	Code        string `json:"code"`
}

// ExpiresAt is the first instant after the promo's last valid day.
func (p Promo) ExpiresAt() (time.Time, error) {
	day, err := time.ParseInLocation(ExpiryLayout, p.Expires, wib)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse promo %d expiry: %w", p.ID, err)
	}
	return day.AddDate(0, 0, 1), nil
}

// Expired reports whether the promo can no longer be claimed at now.
// Promos with an unreadable expiry are treated as expired.
func (p Promo) Expired(now time.Time) bool {
	end, err := p.ExpiresAt()
	if err != nil {
		return true
	}
	return !now.Before(end)
}

// Facts are the user attributes eligibility expressions may reference.
type Facts struct {
	Role         string `json:"role"`
	IsNewUser    bool   `json:"isNewUser"`
	InviteCount  int    `json:"inviteCount"`
	ServiceCount int    `json:"serviceCount"`
}

// Map returns the facts as generic JSON data for expression evaluation.
func (f Facts) Map() map[string]any {
	return map[string]any{
		"role":         f.Role,
		"isNewUser":    f.IsNewUser,
		"inviteCount":  float64(f.InviteCount),
		"serviceCount": float64(f.ServiceCount),
	}
}

// FactsFor derives eligibility facts from a user. A new user is one who has never completed a service.
func FactsFor(u auth.User) Facts {
	if u == nil {
		return Facts{}
	}
	f := Facts{Role: string(u.Role())}
	switch v := u.(type) {
	case *auth.CustomerUser:
		f.InviteCount = v.InviteCount
		f.ServiceCount = v.ServiceCount
	case *auth.TechnicianUser:
		f.ServiceCount = v.CompletedServices
	case *auth.WorkshopUser:
	}
	f.IsNewUser = f.ServiceCount == 0
	return f
}

// Catalog is an immutable, id-ordered set of promos.
type Catalog struct {
	promos []Promo
	byID   map[int]Promo
}

//go:embed catalog.json
var defaultCatalog []byte

// DefaultCatalog returns the built-in promo catalog.
func DefaultCatalog() *Catalog {
	var promos []Promo
	if err := json.Unmarshal(defaultCatalog, &promos); err != nil {
		panic(fmt.Sprintf("embedded promo catalog: %v", err))
	}
	return NewCatalog(promos)
}

// LoadCatalog decodes a JSON array of promos.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var promos []Promo
	if err := json.NewDecoder(r).Decode(&promos); err != nil {
		return nil, fmt.Errorf("decode promo catalog: %w", err)
	}
	for _, p := range promos {
		if p.ID <= 0 {
			return nil, fmt.Errorf("promo %q: id must be positive", p.Title)
		}
		if _, err := p.ExpiresAt(); err != nil {
			return nil, err
		}
	}
	return NewCatalog(promos), nil
}

// NewCatalog builds a catalog. Later duplicates of an id replace earlier ones.
func NewCatalog(promos []Promo) *Catalog {
	byID := make(map[int]Promo, len(promos))
	for _, p := range promos {
		byID[p.ID] = p
	}
	ordered := make([]Promo, 0, len(byID))
	for _, p := range byID {
		ordered = append(ordered, p)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })
	return &Catalog{promos: ordered, byID: byID}
}

// All returns a copy of every promo ordered by id.
func (c *Catalog) All() []Promo {
	out := make([]Promo, len(c.promos))
	copy(out, c.promos)
	return out
}

// Get looks up a promo by id.
func (c *Catalog) Get(id int) (Promo, error) {
	p, ok := c.byID[id]
	if !ok {
		return Promo{}, ErrNotFound
	}
	return p, nil
}
