// Package assets carries the tilemap shipped with the binary.
package assets

import "embed"

//go:embed tilemap.png
var FS embed.FS
