// Package bengkelink embeds the web front-end for production builds.
package bengkelink

import "embed"

// In dev mode templates and static files are read from disk so edits show up without a rebuild.

//go:embed all:frontend/static
var StaticFS embed.FS

//go:embed all:frontend/templates
var TemplateFS embed.FS
