package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"copydesk/internal/domain"
)

const (
	pgUniqueViolation = "23505"

	constraintSlaveEmail  = "slave_accounts_email_key"
	constraintSlaveHandle = "slave_accounts_resource_handle_key"
	constraintMasterEmail = "master_accounts_email_key"
)

// translateInsertError maps unique violations to domain sentinels
func translateInsertError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case constraintSlaveEmail, constraintMasterEmail:
		return domain.ErrDuplicateEmail
	case constraintSlaveHandle:
		return domain.ErrDuplicateHandle
	default:
		return err
	}
}

// notFound converts pgx.ErrNoRows into domain.ErrNotFound
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}
