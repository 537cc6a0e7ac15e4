// Package schemas provides embedded SQL migration files.
package schemas

import "embed"

// Migrations holds one directory of migration files per database driver.
//
//go:embed migrations/*/*.sql
var Migrations embed.FS
