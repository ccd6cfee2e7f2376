package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

const sqliteTimeLayout = "2006-01-02 15:04:05"

var errSessionNotFound = errors.New("session not found or expired")

// DBSessionStore implements gorilla/sessions.Store on top of SQLite.
// The cookie carries only the signed session id; the cart lives in the table.
type DBSessionStore struct {
	db      *DB
	codecs  []securecookie.Codec
	options *sessions.Options
}

// NewDBSessionStore creates a new database-backed session store
func NewDBSessionStore(db *DB, keyPairs ...[]byte) *DBSessionStore {
	return &DBSessionStore{
		db:     db,
		codecs: securecookie.CodecsFromPairs(keyPairs...),
		options: &sessions.Options{
			Path:     "/",
			MaxAge:   86400 * 7,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
	}
}

// SetOptions sets the session options
func (s *DBSessionStore) SetOptions(options *sessions.Options) {
	s.options = options
}

// Get returns a session for the given name after adding it to the registry
func (s *DBSessionStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New returns the stored session named by the request cookie, or a fresh one.
// Bad cookies and expired rows both yield a fresh session.
func (s *DBSessionStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.options
	session.Options = &opts
	session.IsNew = true

	cookie, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}

	var sessionID string
	if err := securecookie.DecodeMulti(name, cookie.Value, &sessionID, s.codecs...); err != nil {
		return session, nil
	}

	data, err := s.load(sessionID)
	if err != nil {
		return session, nil
	}

	// session.Values is keyed by interface{}, JSON needs string keys
	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return session, nil
	}
	for k, v := range values {
		session.Values[k] = v
	}

	session.ID = sessionID
	session.IsNew = false
	return session, nil
}

// Save persists the session to the database
func (s *DBSessionStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.delete(session.ID); err != nil {
				return err
			}
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		session.ID = uuid.NewString()
	}

	values := make(map[string]any, len(session.Values))
	for k, v := range session.Values {
		if key, ok := k.(string); ok {
			values[key] = v
		}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	expiresAt := time.Now().Add(time.Duration(session.Options.MaxAge) * time.Second)
	if err := s.save(session.ID, data, expiresAt); err != nil {
		return err
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.codecs...)
	if err != nil {
		return err
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

// expires_at is written as UTC text so it compares with datetime('now').
func (s *DBSessionStore) save(sessionID string, data []byte, expiresAt time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO sessions (session_id, data, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			data = excluded.data,
			expires_at = excluded.expires_at
	`, sessionID, string(data), expiresAt.UTC().Format(sqliteTimeLayout))
	return err
}

func (s *DBSessionStore) load(sessionID string) ([]byte, error) {
	var data string
	err := s.db.QueryRow(`
		SELECT data FROM sessions
		WHERE session_id = ? AND expires_at > datetime('now')
	`, sessionID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, errSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(data), nil
}

func (s *DBSessionStore) delete(sessionID string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE session_id = ?`, sessionID)
	return err
}

// CleanupExpiredSessions removes expired sessions and reports how many went.
func (s *DBSessionStore) CleanupExpiredSessions() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM sessions WHERE expires_at <= datetime('now')`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
