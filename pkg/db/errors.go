package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// IsUniqueViolation reports whether the provided error references a unique
// violation. When constraintName is provided, the constraint must also match.
// sqlite errors are matched by message since the driver carries no SQLSTATE.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolation {
			return false
		}
		return constraintName == "" || pgErr.ConstraintName == constraintName
	}
	msg := err.Error()
	if constraintName != "" && strings.Contains(msg, constraintName) {
		return true
	}
	if strings.Contains(msg, "UNIQUE constraint failed") {
		return constraintName == "" || sqliteColumnsMatch(msg, constraintName)
	}
	return constraintName == "" && strings.Contains(msg, "duplicate key value")
}

// IsForeignKeyViolation reports whether err is a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// IsCheckViolation reports whether err is a CHECK constraint violation.
func IsCheckViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgCheckViolation
	}
	return strings.Contains(err.Error(), "CHECK constraint failed")
}

// sqlite reports "UNIQUE constraint failed: users.email" rather than the index
// name, so constraint names are mapped to the columns they guard.
var sqliteConstraintColumns = map[string]string{
	ConstraintUsersEmail:          "users.email",
	ConstraintAddressesDefault:    "addresses.user_id",
	ConstraintCartsUser:           "carts.user_id",
	ConstraintCartItemsLine:       "cart_items.cart_id, cart_items.product_id, cart_items.size",
	ConstraintProductSizesProduct: "product_sizes.product_id, product_sizes.size",
}

func sqliteColumnsMatch(msg, constraintName string) bool {
	cols, ok := sqliteConstraintColumns[constraintName]
	return ok && strings.Contains(msg, cols)
}

const (
	ConstraintUsersEmail          = "ux_users_email"
	ConstraintAddressesDefault    = "ux_addresses_user_default"
	ConstraintCartsUser           = "ux_carts_user_id"
	ConstraintCartItemsLine       = "ux_cart_items_line"
	ConstraintProductSizesProduct = "ux_product_sizes_product_size"
)
