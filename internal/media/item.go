// Package media holds the captured-photo data layer: the Item type backing
// a single photo, thumbnail generation, and the SQLite store indexing the
// photo files on disk.
package media

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
)

// Kind classifies how a photo should be presented.
type Kind string

const (
	KindPhoto       Kind = "photo"
	KindPanorama    Kind = "panorama"
	KindPhotoSphere Kind = "photosphere"
)

// descriptionDateFormat matches how capture timestamps are rendered in
// item descriptions.
const descriptionDateFormat = "Jan 2, 2006 15:04"

// Item is the backing data for a single captured photo.
type Item struct {
	// ID is the content identifier assigned by the store.
	ID int64

	// Path is the absolute path of the backing JPEG file.
	Path string

	Width       int
	Height      int
	Orientation int // clockwise display rotation: 0, 90, 180 or 270
	Kind        Kind
	TakenAt     time.Time
}

// Description derives the human-readable content description for the item
// from its metadata.
func (it Item) Description() string {
	when := it.TakenAt.Format(descriptionDateFormat)
	switch it.Kind {
	case KindPanorama:
		return fmt.Sprintf("Panorama taken on %s", when)
	case KindPhotoSphere:
		return fmt.Sprintf("Photo sphere taken on %s", when)
	default:
		return fmt.Sprintf("Photo taken on %s", when)
	}
}

// Thumbnail renders the item into the given bounding box, covering it while
// preserving aspect ratio and applying the display orientation. A missing
// or unreadable backing file yields an absent result rather than an error:
// the photo may have been deleted out from under the index.
func (it Item) Thumbnail(boundWidth, boundHeight int) (image.Image, bool) {
	f, err := os.Open(it.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn().Str("path", it.Path).Msg("Photo file not found")
		} else {
			log.Error().Err(err).Str("path", it.Path).Msg("Failed to open photo file")
		}
		return nil, false
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Warn().Err(err).Str("path", it.Path).Msg("Failed to close photo file")
		}
	}()

	img, err := imaging.Decode(f)
	if err != nil {
		log.Error().Err(err).Str("path", it.Path).Msg("Failed to decode photo")
		return nil, false
	}

	dim := ResizeToFill(it.Width, it.Height, it.Orientation, boundWidth, boundHeight)
	if dim.Width == 0 || dim.Height == 0 {
		return nil, false
	}
	// The fit was computed in display space; resize in image space.
	w, h := dim.Width, dim.Height
	if it.Orientation%180 != 0 {
		w, h = h, w
	}
	thumb := imaging.Resize(img, w, h, imaging.Lanczos)

	// imaging rotates counter-clockwise; display orientation is clockwise.
	switch it.Orientation {
	case 90:
		thumb = imaging.Rotate270(thumb)
	case 180:
		thumb = imaging.Rotate180(thumb)
	case 270:
		thumb = imaging.Rotate90(thumb)
	}
	return thumb, true
}
