package config

import "strings"

// PromoConfig controls the promo catalog.
type PromoConfig struct {
	// CatalogPath replaces the built-in catalog with a JSON file.
	CatalogPath string `env:"CATALOG_PATH"`
}

// Sanitize trims the configured path.
func (p *PromoConfig) Sanitize() {
	p.CatalogPath = strings.TrimSpace(p.CatalogPath)
}
