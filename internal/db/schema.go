package db

import _ "embed"

// Schema is the DDL applied by postgres.Migrate and by the test containers.
//
//go:embed migrations/001_init.sql
var Schema string
