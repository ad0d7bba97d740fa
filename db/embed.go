// Package db provides the embedded database schema and catalog seed data.
package db

import _ "embed"

// Schema contains the DDL statements for all application tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// SeedProducts is the JSON array of products loaded into an empty catalog.
//
//go:embed seed/products.json
var SeedProducts []byte
