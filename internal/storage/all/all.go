// Package all registers every storage backend with the factory. Importing it
// for side effects gives a binary support for all configured backend kinds.
package all

import (
	_ "salesetl/internal/storage/mssql"
	_ "salesetl/internal/storage/postgres"
	_ "salesetl/internal/storage/sqlite"
)
