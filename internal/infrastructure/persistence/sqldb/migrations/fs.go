package migrations

import "embed"

// OracleInit is the single Oracle script, statements separated by "/".
const OracleInit = "oracle/20261018000000_listing.sql"

//go:embed postgres/*.sql
var PostgresFS embed.FS

//go:embed oracle/*.sql
var OracleFS embed.FS
