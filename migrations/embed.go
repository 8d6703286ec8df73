// Package migrations embeds the Taskboard schema migrations so the binary and
// the integration tests apply the same files through golang-migrate's iofs source.
package migrations

import "embed"

// FS holds the numbered up/down SQL files.
//
//go:embed *.sql
var FS embed.FS
