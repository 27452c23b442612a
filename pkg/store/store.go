// Package store persists service configs and sealed credentials in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pilotlabs/webops/pkg/types"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS services (
	service_id TEXT PRIMARY KEY,
	url        TEXT NOT NULL,
	config     BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS credentials (
	service_id TEXT PRIMARY KEY,
	sealed     BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// Store is a SQLite-backed persistence layer. Configs are stored as JSON
// blobs and replaced wholesale; credentials are sealed with a secret key
// before they touch disk.
type Store struct {
	db  *sql.DB
	key [32]byte
}

// Open opens (or creates) the database at path. The secret seals stored
// credentials; it must stay stable across restarts or stored credentials
// become unreadable.
func Open(path, secret string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, key: deriveKey(secret)}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveServiceConfig stores the config, replacing any previous config for
// the same service wholesale.
func (s *Store) SaveServiceConfig(ctx context.Context, config *types.ServiceConfig) error {
	blob, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal service config: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO services (service_id, url, config, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(service_id) DO UPDATE SET url=excluded.url, config=excluded.config, updated_at=excluded.updated_at`,
		config.ServiceID, config.URL, blob, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save service config: %w", err)
	}
	return nil
}

// GetServiceConfig loads the stored config for a service.
func (s *Store) GetServiceConfig(ctx context.Context, serviceID string) (*types.ServiceConfig, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT config FROM services WHERE service_id = ?`, serviceID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("service %s: %w", serviceID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load service config: %w", err)
	}

	var config types.ServiceConfig
	if err := json.Unmarshal(blob, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal service config: %w", err)
	}
	return &config, nil
}

// ListServiceIDs returns the ids of all stored services.
func (s *Store) ListServiceIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT service_id FROM services ORDER BY service_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteService removes a service's config and credentials.
func (s *Store) DeleteService(ctx context.Context, serviceID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM services WHERE service_id = ?`, serviceID); err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE service_id = ?`, serviceID); err != nil {
		return fmt.Errorf("failed to delete credentials: %w", err)
	}
	return nil
}

// SaveCredentials seals and stores a service's credentials.
func (s *Store) SaveCredentials(ctx context.Context, serviceID string, creds types.Credentials) error {
	plain, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	sealed, err := seal(s.key, plain)
	if err != nil {
		return fmt.Errorf("failed to seal credentials: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO credentials (service_id, sealed, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(service_id) DO UPDATE SET sealed=excluded.sealed, updated_at=excluded.updated_at`,
		serviceID, sealed, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

// GetCredentials loads and unseals a service's credentials.
func (s *Store) GetCredentials(ctx context.Context, serviceID string) (types.Credentials, error) {
	var sealed []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT sealed FROM credentials WHERE service_id = ?`, serviceID).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Credentials{}, fmt.Errorf("credentials for %s: %w", serviceID, ErrNotFound)
	}
	if err != nil {
		return types.Credentials{}, fmt.Errorf("failed to load credentials: %w", err)
	}

	plain, err := open(s.key, sealed)
	if err != nil {
		return types.Credentials{}, fmt.Errorf("failed to unseal credentials: %w", err)
	}

	var creds types.Credentials
	if err := json.Unmarshal(plain, &creds); err != nil {
		return types.Credentials{}, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}
	return creds, nil
}
