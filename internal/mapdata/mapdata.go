// Package mapdata bundles the maps that ship with the binary.
package mapdata

import "embed"

// FS holds every bundled .smap file at its root.
//
//go:embed *.smap
var FS embed.FS
