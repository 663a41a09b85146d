package henkan

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const userStoreSchema = `
CREATE TABLE IF NOT EXISTS unigram (
	key   TEXT PRIMARY KEY,
	count INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS bigram (
	key1  TEXT NOT NULL,
	key2  TEXT NOT NULL,
	count INTEGER NOT NULL,
	PRIMARY KEY (key1, key2)
);
`

// UserModelStore persists user-model snapshots as durable key→count
// rows in SQLite.
type UserModelStore struct {
	db *sql.DB
}

// OpenUserModelStore opens (creating if needed) the store at path.
func OpenUserModelStore(path string) (*UserModelStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open user model store: %w", err)
	}
	if _, err := db.Exec(userStoreSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init user model schema: %w", err)
	}
	return &UserModelStore{db: db}, nil
}

// Close closes the underlying database.
func (s *UserModelStore) Close() error {
	return s.db.Close()
}

// Save writes snap in a single transaction. On any failure the
// transaction rolls back and a *PersistError is returned; the rows on
// disk stay at the previous consistent state and a retry with the same
// (or a newer) snapshot succeeds from unchanged in-memory counts.
func (s *UserModelStore) Save(snap UserSnapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return &PersistError{Err: err}
	}
	defer tx.Rollback()

	for key, count := range snap.Unigrams {
		if _, err := tx.Exec(
			"INSERT OR REPLACE INTO unigram (key, count) VALUES (?, ?)",
			key, count,
		); err != nil {
			return &PersistError{Err: fmt.Errorf("write unigram %q: %w", key, err)}
		}
	}
	for pair, count := range snap.Bigrams {
		k1, k2, ok := splitPairKey(pair)
		if !ok {
			continue
		}
		if _, err := tx.Exec(
			"INSERT OR REPLACE INTO bigram (key1, key2, count) VALUES (?, ?, ?)",
			k1, k2, count,
		); err != nil {
			return &PersistError{Err: fmt.Errorf("write bigram %q: %w", pair, err)}
		}
	}
	if err := tx.Commit(); err != nil {
		return &PersistError{Err: err}
	}
	return nil
}

// Load reads the full persisted state back into a snapshot.
func (s *UserModelStore) Load() (UserSnapshot, error) {
	snap := UserSnapshot{
		Unigrams: make(map[string]int64),
		Bigrams:  make(map[string]int64),
	}

	rows, err := s.db.Query("SELECT key, count FROM unigram")
	if err != nil {
		return snap, fmt.Errorf("load unigrams: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return snap, fmt.Errorf("scan unigram: %w", err)
		}
		snap.Unigrams[key] = count
	}
	if err := rows.Err(); err != nil {
		return snap, err
	}

	brows, err := s.db.Query("SELECT key1, key2, count FROM bigram")
	if err != nil {
		return snap, fmt.Errorf("load bigrams: %w", err)
	}
	defer brows.Close()
	for brows.Next() {
		var k1, k2 string
		var count int64
		if err := brows.Scan(&k1, &k2, &count); err != nil {
			return snap, fmt.Errorf("scan bigram: %w", err)
		}
		snap.Bigrams[k1+"\t"+k2] = count
	}
	return snap, brows.Err()
}

func splitPairKey(pair string) (k1, k2 string, ok bool) {
	for i := 0; i < len(pair); i++ {
		if pair[i] == '\t' {
			return pair[:i], pair[i+1:], true
		}
	}
	return "", "", false
}
