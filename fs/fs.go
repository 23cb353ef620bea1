// Package appfs embeds static application files (DB migrations).
package appfs

import "embed"

//go:embed migrations
var FS embed.FS
