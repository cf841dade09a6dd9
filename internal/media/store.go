package media

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoding for DecodeConfig
	"io/fs"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned when no photo exists for a content identifier.
var ErrNotFound = errors.New("media: photo not found")

const schema = `
CREATE TABLE IF NOT EXISTS photos (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	path        TEXT    NOT NULL,
	width       INTEGER NOT NULL,
	height      INTEGER NOT NULL,
	orientation INTEGER NOT NULL DEFAULT 0,
	kind        TEXT    NOT NULL DEFAULT 'photo',
	taken_at    INTEGER NOT NULL
);
`

// Store indexes captured photos: JPEG files in a directory plus a SQLite
// table carrying their metadata, keyed by content identifier.
type Store struct {
	db  *sql.DB
	dir string
}

// OpenStore opens (creating if needed) the photo index at dbPath and uses
// dir as the photo file directory.
func OpenStore(dbPath, dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create photo directory: %w", err)
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open photo index: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create photo schema: %w", err)
	}
	return &Store{db: db, dir: dir}, nil
}

// SavePhoto writes jpegData to the photo directory and indexes it,
// returning the stored Item. Pixel dimensions are read from the JPEG
// header.
func (s *Store) SavePhoto(ctx context.Context, jpegData []byte, orientation int, takenAt time.Time) (Item, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(jpegData))
	if err != nil {
		return Item{}, fmt.Errorf("failed to decode captured image: %w", err)
	}

	path, err := s.writePhotoFile(takenAt, jpegData)
	if err != nil {
		return Item{}, fmt.Errorf("failed to write photo file: %w", err)
	}

	item := Item{
		Path:        path,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Orientation: orientation,
		Kind:        KindPhoto,
		TakenAt:     takenAt,
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO photos (path, width, height, orientation, kind, taken_at) VALUES (?, ?, ?, ?, ?, ?)`,
		item.Path, item.Width, item.Height, item.Orientation, string(item.Kind), item.TakenAt.UnixMilli())
	if err != nil {
		return Item{}, fmt.Errorf("failed to index photo: %w", err)
	}
	item.ID, err = res.LastInsertId()
	if err != nil {
		return Item{}, fmt.Errorf("failed to read photo id: %w", err)
	}

	log.Info().Int64("id", item.ID).Str("path", path).
		Int("width", item.Width).Int("height", item.Height).Msg("Photo saved")
	return item, nil
}

// writePhotoFile writes jpegData under a timestamp-derived name, appending
// a counter when two captures land in the same millisecond so an earlier
// photo is never overwritten.
func (s *Store) writePhotoFile(takenAt time.Time, jpegData []byte) (string, error) {
	stamp := takenAt.Format("20060102_150405.000")
	for n := 0; ; n++ {
		name := fmt.Sprintf("IMG_%s.jpg", stamp)
		if n > 0 {
			name = fmt.Sprintf("IMG_%s_%d.jpg", stamp, n)
		}
		path := filepath.Join(s.dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		_, werr := f.Write(jpegData)
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			return "", werr
		}
		return path, nil
	}
}

// Get returns the photo with the given content identifier.
func (s *Store) Get(ctx context.Context, id int64) (Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, path, width, height, orientation, kind, taken_at FROM photos WHERE id = ?`, id)
	return scanItem(row)
}

// Refresh re-reads the metadata for a photo from the index, picking up
// changes made behind this handle.
func (s *Store) Refresh(ctx context.Context, id int64) (Item, error) {
	return s.Get(ctx, id)
}

// List returns all indexed photos, newest first.
func (s *Store) List(ctx context.Context) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, path, width, height, orientation, kind, taken_at FROM photos ORDER BY taken_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close photo rows")
		}
	}()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate photos: %w", err)
	}
	return items, nil
}

// Delete removes the photo with the given content identifier from the
// index and deletes its backing file. A file already gone is not an error.
func (s *Store) Delete(ctx context.Context, id int64) error {
	item, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM photos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete photo %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	if err := os.Remove(item.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove photo file: %w", err)
	}
	log.Info().Int64("id", id).Str("path", item.Path).Msg("Photo deleted")
	return nil
}

// Close closes the index database.
func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (Item, error) {
	var item Item
	var kind string
	var takenAt int64
	err := row.Scan(&item.ID, &item.Path, &item.Width, &item.Height, &item.Orientation, &kind, &takenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("failed to scan photo row: %w", err)
	}
	item.Kind = Kind(kind)
	item.TakenAt = time.UnixMilli(takenAt)
	return item, nil
}
