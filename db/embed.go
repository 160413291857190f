// Package db embeds the coupon store schema.
package db

import _ "embed"

// Schema creates the coupon tables when they do not exist yet.
//
//go:embed migrations/001_schema.sql
var Schema string
