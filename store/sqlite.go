package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	respondsdk "github.com/alphasnob/respond-sdk-go"
)

// SQLiteProfileRepository implements respondsdk.ProfileRepository on a
// SQLite database file. Pass ":memory:" for tests.
type SQLiteProfileRepository struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the profile database and ensures the
// schema exists.
func OpenSQLite(path string) (*SQLiteProfileRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Single connection avoids "database is locked" under concurrent saves.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("busy timeout: %w", err)
	}
	r := &SQLiteProfileRepository{db: db}
	if err := r.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// Close closes the database.
func (r *SQLiteProfileRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteProfileRepository) ensureSchema() error {
	_, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS user_profiles (
		user_id            TEXT PRIMARY KEY,
		username           TEXT,
		relationship_level TEXT NOT NULL DEFAULT 'stranger',
		trust_score        REAL NOT NULL DEFAULT 0,
		interaction_count  INTEGER NOT NULL DEFAULT 0,
		positive_count     INTEGER NOT NULL DEFAULT 0,
		negative_count     INTEGER NOT NULL DEFAULT 0,
		preferred_persona  TEXT,
		first_seen         TEXT,
		last_seen          TEXT,
		archived           INTEGER NOT NULL DEFAULT 0
	)`)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	_, err = r.db.Exec(`CREATE INDEX IF NOT EXISTS idx_relationship
		ON user_profiles(relationship_level)`)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Get loads a profile. Unknown users return (nil, nil).
func (r *SQLiteProfileRepository) Get(userID string) (*respondsdk.UserProfile, error) {
	row := r.db.QueryRow(`SELECT user_id, username, relationship_level, trust_score,
		interaction_count, positive_count, negative_count, preferred_persona,
		first_seen, last_seen, archived
		FROM user_profiles WHERE user_id = ?`, userID)

	var p respondsdk.UserProfile
	var username, persona, firstSeen, lastSeen sql.NullString
	var archived int
	err := row.Scan(&p.UserID, &username, &p.RelationshipLevel, &p.TrustScore,
		&p.InteractionCount, &p.PositiveCount, &p.NegativeCount, &persona,
		&firstSeen, &lastSeen, &archived)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select profile: %w", err)
	}
	p.Username = username.String
	p.PreferredPersona = persona.String
	p.Archived = archived != 0
	if firstSeen.Valid {
		p.FirstSeen, _ = time.Parse(time.RFC3339Nano, firstSeen.String)
	}
	if lastSeen.Valid {
		p.LastSeen, _ = time.Parse(time.RFC3339Nano, lastSeen.String)
	}
	return &p, nil
}

// Save upserts a profile.
func (r *SQLiteProfileRepository) Save(p *respondsdk.UserProfile) error {
	archived := 0
	if p.Archived {
		archived = 1
	}
	_, err := r.db.Exec(`INSERT INTO user_profiles
		(user_id, username, relationship_level, trust_score, interaction_count,
		 positive_count, negative_count, preferred_persona, first_seen, last_seen, archived)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
		 username = excluded.username,
		 relationship_level = excluded.relationship_level,
		 trust_score = excluded.trust_score,
		 interaction_count = excluded.interaction_count,
		 positive_count = excluded.positive_count,
		 negative_count = excluded.negative_count,
		 preferred_persona = excluded.preferred_persona,
		 first_seen = excluded.first_seen,
		 last_seen = excluded.last_seen,
		 archived = excluded.archived`,
		p.UserID, p.Username, string(p.RelationshipLevel), p.TrustScore,
		p.InteractionCount, p.PositiveCount, p.NegativeCount, p.PreferredPersona,
		p.FirstSeen.Format(time.RFC3339Nano), p.LastSeen.Format(time.RFC3339Nano), archived)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
