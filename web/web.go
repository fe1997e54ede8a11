// Package web holds the HTML templates and static assets of the site.
package web

import "embed"

//go:embed templates/*.html static
var FS embed.FS
