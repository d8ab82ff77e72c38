package repo

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// EnsureSchema creates the identity tables if they do not exist (idempotent).
// This is a convenience for early development; production deployments own
// their schema and migrations. Key columns are TEXT, which covers string,
// KSUID and UUID keys; callers with numeric keys bring their own schema.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS accounts (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL,
  normalized_username TEXT NOT NULL UNIQUE,
  email TEXT,
  normalized_email TEXT UNIQUE,
  email_confirmed BOOLEAN NOT NULL DEFAULT false,
  password_hash TEXT,
  security_stamp TEXT NOT NULL DEFAULT '',
  concurrency_stamp TEXT NOT NULL DEFAULT '',
  phone_number TEXT,
  phone_confirmed BOOLEAN NOT NULL DEFAULT false,
  two_factor_enabled BOOLEAN NOT NULL DEFAULT false,
  lockout_end TIMESTAMPTZ,
  lockout_enabled BOOLEAN NOT NULL DEFAULT false,
  access_failed_count INT NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS roles (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  normalized_name TEXT NOT NULL UNIQUE,
  concurrency_stamp TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS account_claims (
  id BIGSERIAL PRIMARY KEY,
  account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
  claim_type TEXT NOT NULL,
  claim_value TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_account_claims_account ON account_claims(account_id);
CREATE TABLE IF NOT EXISTS role_claims (
  id BIGSERIAL PRIMARY KEY,
  role_id TEXT NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
  claim_type TEXT NOT NULL,
  claim_value TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_role_claims_role ON role_claims(role_id);
CREATE TABLE IF NOT EXISTS external_logins (
  login_provider TEXT NOT NULL,
  provider_key TEXT NOT NULL,
  provider_display_name TEXT NOT NULL DEFAULT '',
  account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
  PRIMARY KEY (login_provider, provider_key)
);
CREATE INDEX IF NOT EXISTS idx_external_logins_account ON external_logins(account_id);
CREATE TABLE IF NOT EXISTS account_tokens (
  account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
  login_provider TEXT NOT NULL,
  name TEXT NOT NULL,
  value TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (account_id, login_provider, name)
);
CREATE TABLE IF NOT EXISTS account_roles (
  account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
  role_id TEXT NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
  PRIMARY KEY (account_id, role_id)
);
`
	_, err := db.ExecContext(ctx, ddl)
	return err
}
