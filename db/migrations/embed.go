// db/migrations/embed.go

package migrations

import "embed"

//go:embed 000001_initial_schema.up.sql
var InitialSchemaUp string

//go:embed 000001_initial_schema.down.sql
var InitialSchemaDown string

// Automation rules, conditions, actions en de run audit log
//go:embed 000002_automation_schema.up.sql
var AutomationSchemaUp string

//go:embed 000002_automation_schema.down.sql
var AutomationSchemaDown string

// Indexes voor de due-date scanner
//go:embed 000003_due_scan_indexes.up.sql
var DueScanIndexesUp string

//go:embed 000003_due_scan_indexes.down.sql
var DueScanIndexesDown string

// SQLFiles bevat alle migraties als bestandssysteem, voor golang-migrate (cmd/migrate).
//go:embed *.sql
var SQLFiles embed.FS
