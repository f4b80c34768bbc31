// Package notes stores free-text notes attached to lyric lines.
package notes

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/golang/snappy"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/amm926616/april/internal/store"
)

// ErrInvalidLine is returned for negative line indices.
var ErrInvalidLine = errors.New("notes: invalid line index")

// trackNamespace scopes track identities so they never collide with other
// UUIDv5 users of the same paths.
var trackNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("april:track"))

// TrackIdentity derives a stable identifier for an audio file from its
// absolute path.
func TrackIdentity(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return uuid.NewSHA1(trackNamespace, []byte(path)).String()
}

// EncodeBlob compresses note content and base64-encodes it for JSON storage.
func EncodeBlob(content string) string {
	return base64.StdEncoding.EncodeToString(snappy.Encode(nil, []byte(content)))
}

// DecodeBlob reverses EncodeBlob.
func DecodeBlob(blob string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", fmt.Errorf("decode base64: %w", err)
	}
	out, err := snappy.Decode(nil, raw)
	if err != nil {
		return "", fmt.Errorf("decompress: %w", err)
	}
	return string(out), nil
}

// Store keeps one JSON object per track mapping line index to blob.
type Store struct {
	db     *store.DB
	logger *slog.Logger
}

func NewStore(db *store.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// LoadNotes returns the notes for a track keyed by line index. A track
// without notes yields an empty map. Entries that fail to decode are logged
// and skipped.
func (s *Store) LoadNotes(ctx context.Context, trackID string) (map[int]string, error) {
	raw, err := s.loadRaw(ctx, s.db, trackID)
	if err != nil {
		return nil, err
	}
	out := make(map[int]string, len(raw))
	for k, blob := range raw {
		line, err := strconv.Atoi(k)
		if err != nil || line < 0 {
			s.logger.Warn("skipping note with bad line key", slog.String("track", trackID), slog.String("key", k))
			continue
		}
		text, err := DecodeBlob(blob)
		if err != nil {
			s.logger.Warn("skipping unreadable note", slog.String("track", trackID), slog.Int("line", line), slog.Any("err", err))
			continue
		}
		out[line] = text
	}
	return out, nil
}

// SaveNote sets the note for one line, keeping the track's other notes.
func (s *Store) SaveNote(ctx context.Context, trackID string, line int, content string) error {
	if line < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLine, line)
	}
	return s.update(ctx, trackID, func(m map[string]string) {
		m[strconv.Itoa(line)] = EncodeBlob(content)
	})
}

// DeleteNote removes the note for one line. The track row goes away with its
// last note.
func (s *Store) DeleteNote(ctx context.Context, trackID string, line int) error {
	if line < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLine, line)
	}
	return s.update(ctx, trackID, func(m map[string]string) {
		delete(m, strconv.Itoa(line))
	})
}

func (s *Store) update(ctx context.Context, trackID string, mutate func(map[string]string)) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin note update: %w", err)
	}
	defer tx.Rollback()

	m, err := s.loadRaw(ctx, tx, trackID)
	if err != nil {
		return err
	}
	mutate(m)

	if len(m) == 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE track_identifier = ?`, trackID); err != nil {
			return fmt.Errorf("delete notes: %w", err)
		}
	} else {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encode notes: %w", err)
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO notes (track_identifier, json_notes) VALUES (?, ?)
			ON CONFLICT(track_identifier) DO UPDATE SET json_notes = excluded.json_notes`, trackID, string(data))
		if err != nil {
			return fmt.Errorf("write notes: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit notes: %w", err)
	}
	return nil
}

// loadRaw reads the stored map without decoding blobs. A corrupt JSON value
// is logged and treated as empty so the next save repairs it.
func (s *Store) loadRaw(ctx context.Context, q sqlx.QueryerContext, trackID string) (map[string]string, error) {
	var data string
	err := sqlx.GetContext(ctx, q, &data, `SELECT json_notes FROM notes WHERE track_identifier = ?`, trackID)
	if errors.Is(err, sql.ErrNoRows) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read notes: %w", err)
	}
	m := map[string]string{}
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		s.logger.Warn("notes row unreadable, treating as empty", slog.String("track", trackID), slog.Any("err", err))
		return map[string]string{}, nil
	}
	return m, nil
}
