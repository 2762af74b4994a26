package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// ErrorDump flattens an error chain for structured logs. It never reaches
// clients.
type ErrorDump struct {
	TopMessage string
	Code       Code
	Chain      []string

	// DBCode is the SQLSTATE for postgres or the extended result code for sqlite.
	DBCode       string
	DBConstraint string
	DBTable      string
	DBColumn     string
	DBDetail     string
	DBMessage    string
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	var liteErr sqlite3.Error
	switch {
	case errors.As(err, &pgxErr):
		d.DBCode = pgxErr.Code
		d.DBConstraint = pgxErr.ConstraintName
		d.DBTable = pgxErr.TableName
		d.DBColumn = pgxErr.ColumnName
		d.DBDetail = pgxErr.Detail
		d.DBMessage = pgxErr.Message
	case errors.As(err, &pqErr):
		d.DBCode = string(pqErr.Code)
		d.DBConstraint = pqErr.Constraint
		d.DBTable = pqErr.Table
		d.DBColumn = pqErr.Column
		d.DBDetail = pqErr.Detail
		d.DBMessage = pqErr.Message
	case errors.As(err, &liteErr):
		d.DBCode = fmt.Sprintf("sqlite:%d", int(liteErr.ExtendedCode))
		d.DBMessage = liteErr.Error()
	}
	return d
}

// LogFields renders the dump as logger fields, omitting empty db fields.
func (d ErrorDump) LogFields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_code":  d.Code,
		"error_chain": d.Chain,
	}
	if d.DBCode == "" {
		return fields
	}
	fields["db_code"] = d.DBCode
	for key, val := range map[string]string{
		"db_constraint": d.DBConstraint,
		"db_table":      d.DBTable,
		"db_column":     d.DBColumn,
		"db_detail":     d.DBDetail,
		"db_message":    d.DBMessage,
	} {
		if val != "" {
			fields[key] = val
		}
	}
	return fields
}
