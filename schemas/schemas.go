// Package schemas carries the JSON schemas for region files and the
// filter service messages.
package schemas

import "embed"

//go:embed *.schema.json
var FS embed.FS
