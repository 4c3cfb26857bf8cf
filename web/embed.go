package web

import "embed"

// StaticFS contains the marketing site and feed page assets.
//
//go:embed static
var StaticFS embed.FS
