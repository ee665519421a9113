package telemetry

import (
	"strings"

	"gorm.io/gorm"
)

// registerAround installs before and after hooks on every gorm operation.
// after receives the statement kind, with Row and Raw statements classified
// from their SQL, and runs while the otelgorm span is still open.
func registerAround(db *gorm.DB, prefix string, before func(*gorm.DB), after func(db *gorm.DB, kind string)) error {
	cb := db.Callback()
	afterKind := func(kind string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			if kind == "" {
				after(tx, detectOperationType(tx.Statement.SQL.String()))
				return
			}
			after(tx, kind)
		}
	}

	steps := []func() error{
		func() error { return cb.Create().Before("gorm:create").Register(prefix+":before_create", before) },
		func() error { return cb.Query().Before("gorm:query").Register(prefix+":before_query", before) },
		func() error { return cb.Update().Before("gorm:update").Register(prefix+":before_update", before) },
		func() error { return cb.Delete().Before("gorm:delete").Register(prefix+":before_delete", before) },
		func() error { return cb.Row().Before("gorm:row").Register(prefix+":before_row", before) },
		func() error { return cb.Raw().Before("gorm:raw").Register(prefix+":before_raw", before) },
		func() error {
			return cb.Create().After("gorm:create").Before("otel:after:create").Register(prefix+":after_create", afterKind("INSERT"))
		},
		func() error {
			return cb.Query().After("gorm:query").Before("otel:after:select").Register(prefix+":after_query", afterKind("SELECT"))
		},
		func() error {
			return cb.Update().After("gorm:update").Before("otel:after:update").Register(prefix+":after_update", afterKind("UPDATE"))
		},
		func() error {
			return cb.Delete().After("gorm:delete").Before("otel:after:delete").Register(prefix+":after_delete", afterKind("DELETE"))
		},
		func() error {
			return cb.Row().After("gorm:row").Before("otel:after:row").Register(prefix+":after_row", afterKind(""))
		},
		func() error {
			return cb.Raw().After("gorm:raw").Before("otel:after:raw").Register(prefix+":after_raw", afterKind(""))
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// detectOperationType classifies a statement by its leading keyword.
func detectOperationType(sql string) string {
	sql = strings.TrimSpace(strings.ToUpper(sql))

	switch {
	case strings.HasPrefix(sql, "SELECT"):
		return "SELECT"
	case strings.HasPrefix(sql, "INSERT"):
		return "INSERT"
	case strings.HasPrefix(sql, "UPDATE"):
		return "UPDATE"
	case strings.HasPrefix(sql, "DELETE"):
		return "DELETE"
	default:
		return "OTHER"
	}
}
