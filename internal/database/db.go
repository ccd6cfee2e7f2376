package database

import (
	"database/sql"
	_ "embed"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
)

//go:embed schema.sql
var schemaSQL string

// Setting keys used by the service.
const (
	SettingCarrierPassPhrase = "carrier.pass_phrase"

	dataTypeString = "string"
	dataTypeSecret = "secret"
)

// ErrSettingNotFound is returned when a setting key has no row.
var ErrSettingNotFound = errors.New("setting not found")

// DB wraps the SQLite database
type DB struct {
	*sql.DB
}

// Open opens or creates the database
func Open(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Initialize schema
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &DB{db}, nil
}

// Setting represents an application setting (key-value pair)
type Setting struct {
	ID          int64     `json:"id"`
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Description string    `json:"description,omitempty"`
	DataType    string    `json:"dataType"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// GetAllSettings returns all application settings. Secret values are blanked.
func (db *DB) GetAllSettings() ([]Setting, error) {
	rows, err := db.Query(`
		SELECT id, key, value, COALESCE(description, ''), data_type, created_at, updated_at
		FROM settings
		ORDER BY key
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		err := rows.Scan(&s.ID, &s.Key, &s.Value, &s.Description, &s.DataType, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return nil, err
		}
		if s.DataType == dataTypeSecret {
			s.Value = ""
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// GetSetting returns a single setting by key
func (db *DB) GetSetting(key string) (*Setting, error) {
	var s Setting
	err := db.QueryRow(`
		SELECT id, key, value, COALESCE(description, ''), data_type, created_at, updated_at
		FROM settings
		WHERE key = ?
	`, key).Scan(&s.ID, &s.Key, &s.Value, &s.Description, &s.DataType, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrSettingNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SetSetting creates or replaces a plain setting
func (db *DB) SetSetting(key, value, description string) error {
	return db.upsertSetting(key, value, description, dataTypeString)
}

func (db *DB) upsertSetting(key, value, description, dataType string) error {
	_, err := db.Exec(`
		INSERT INTO settings (key, value, description, data_type)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			description = excluded.description,
			data_type = excluded.data_type,
			updated_at = CURRENT_TIMESTAMP
	`, key, value, description, dataType)
	return err
}

// SetSecretSetting encrypts value with AES-256-GCM before storing it
func (db *DB) SetSecretSetting(key, value, description string, encKey []byte) error {
	sealed, err := EncryptSecret(value, encKey)
	if err != nil {
		return err
	}
	return db.upsertSetting(key, base64.StdEncoding.EncodeToString(sealed), description, dataTypeSecret)
}

// GetSecretSetting loads and decrypts a secret setting
func (db *DB) GetSecretSetting(key string, encKey []byte) (string, error) {
	s, err := db.GetSetting(key)
	if err != nil {
		return "", err
	}
	if s.DataType != dataTypeSecret {
		return "", fmt.Errorf("setting %s is not a secret", key)
	}
	sealed, err := base64.StdEncoding.DecodeString(s.Value)
	if err != nil {
		return "", fmt.Errorf("failed to decode secret %s: %w", key, err)
	}
	return DecryptSecret(sealed, encKey)
}

// QuoteRecord is a stored answer to a shipping rate request
type QuoteRecord struct {
	ID          string          `json:"id"`
	Zip         string          `json:"zip"`
	PackageType string          `json:"packageType"`
	WeightOz    float64         `json:"weightOz"`
	Rates       json.RawMessage `json:"rates"`
	Fallback    bool            `json:"fallback"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// SaveQuote records a quote, assigning a ULID and timestamp when missing
func (db *DB) SaveQuote(q *QuoteRecord) error {
	if q.ID == "" {
		q.ID = ulid.Make().String()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	rates := q.Rates
	if len(rates) == 0 {
		rates = json.RawMessage("[]")
	}

	_, err := db.Exec(`
		INSERT INTO quote_history (id, zip, package_type, weight_oz, rates, fallback, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, q.ID, q.Zip, q.PackageType, q.WeightOz, string(rates), q.Fallback, q.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save quote: %w", err)
	}
	return nil
}

// GetRecentQuotes returns the newest quotes first
func (db *DB) GetRecentQuotes(limit int) ([]QuoteRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT id, zip, package_type, weight_oz, rates, fallback, created_at
		FROM quote_history
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quotes := []QuoteRecord{}
	for rows.Next() {
		var q QuoteRecord
		var rates string
		if err := rows.Scan(&q.ID, &q.Zip, &q.PackageType, &q.WeightOz, &rates, &q.Fallback, &q.CreatedAt); err != nil {
			return nil, err
		}
		q.Rates = json.RawMessage(rates)
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}
