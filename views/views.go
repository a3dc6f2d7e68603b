// Package views embeds the html templates.
package views

import "embed"

//go:embed layouts/*.html auth/*.html chirps/*.html errors/*.html home.html
var FS embed.FS
