package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/m-mizutani/goerr/v2"

	"leadagent/pkg/model"
)

const profileTableDDL = `
CREATE TABLE IF NOT EXISTS lead_profiles (
	category   VARCHAR(64)  NOT NULL,
	user_id    VARCHAR(128) NOT NULL,
	record_key VARCHAR(64)  NOT NULL,
	profile    JSON         NOT NULL,
	updated_at TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	PRIMARY KEY (category, user_id, record_key)
)`

// MySQL implements ProfileStore over a single shared connection handle.
// The handle is checked and lazily re-opened before each operation; a failed
// reconnect is fatal to that operation and propagates to the caller.
type MySQL struct {
	mu  sync.Mutex
	dsn string
	db  *sql.DB
}

// NewMySQL opens the store and ensures the profile table exists
func NewMySQL(ctx context.Context, dsn string) (*MySQL, error) {
	s := &MySQL{dsn: dsn}

	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, profileTableDDL); err != nil {
		return nil, goerr.Wrap(err, "failed to create profile table")
	}

	return s, nil
}

// Close releases the underlying connection handle
func (s *MySQL) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// conn returns a live connection handle, re-opening it when the current one
// is closed or broken
func (s *MySQL) conn(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		if err := s.db.PingContext(ctx); err == nil {
			return s.db, nil
		}
		_ = s.db.Close()
		s.db = nil
	}

	db, err := sql.Open("mysql", s.dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open mysql connection")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to reconnect to mysql")
	}

	s.db = db
	return s.db, nil
}

func (s *MySQL) GetProfile(ctx context.Context, ns model.Namespace, key string) (*model.Profile, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	var raw []byte
	row := db.QueryRowContext(ctx,
		"SELECT profile FROM lead_profiles WHERE category = ? AND user_id = ? AND record_key = ?",
		ns.Category, string(ns.UserID), key)
	if err := row.Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to query profile",
			goerr.V("category", ns.Category), goerr.V("user_id", ns.UserID))
	}

	var profile model.Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, goerr.Wrap(err, "failed to decode stored profile")
	}

	return &profile, nil
}

func (s *MySQL) PutProfile(ctx context.Context, ns model.Namespace, key string, profile *model.Profile) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(profile)
	if err != nil {
		return goerr.Wrap(err, "failed to encode profile")
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO lead_profiles (category, user_id, record_key, profile)
		 VALUES (?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE profile = VALUES(profile)`,
		ns.Category, string(ns.UserID), key, raw)
	if err != nil {
		return goerr.Wrap(err, "failed to store profile",
			goerr.V("category", ns.Category), goerr.V("user_id", ns.UserID))
	}

	return nil
}
