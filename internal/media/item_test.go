package media

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestJPEG writes a solid-color JPEG of the given size and returns
// its path.
func writeTestJPEG(t *testing.T, width, height int) string {
	t.Helper()
	img := imaging.New(width, height, color.NRGBA{R: 60, G: 120, B: 180, A: 255})
	path := filepath.Join(t.TempDir(), "test.jpg")
	require.NoError(t, imaging.Save(img, path))
	return path
}

func TestItemDescription(t *testing.T) {
	taken := time.Date(2026, time.March, 14, 9, 26, 0, 0, time.UTC)

	tests := []struct {
		kind Kind
		want string
	}{
		{KindPhoto, "Photo taken on Mar 14, 2026 09:26"},
		{KindPanorama, "Panorama taken on Mar 14, 2026 09:26"},
		{KindPhotoSphere, "Photo sphere taken on Mar 14, 2026 09:26"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			it := Item{Kind: tt.kind, TakenAt: taken}
			assert.Equal(t, tt.want, it.Description())
		})
	}
}

func TestItemThumbnail(t *testing.T) {
	it := Item{
		Path:   writeTestJPEG(t, 40, 30),
		Width:  40,
		Height: 30,
		Kind:   KindPhoto,
	}

	thumb, ok := it.Thumbnail(10, 10)
	require.True(t, ok)
	assert.Equal(t, 13, thumb.Bounds().Dx())
	assert.Equal(t, 10, thumb.Bounds().Dy())
}

func TestItemThumbnailAppliesOrientation(t *testing.T) {
	it := Item{
		Path:        writeTestJPEG(t, 40, 30),
		Width:       40,
		Height:      30,
		Orientation: 90,
		Kind:        KindPhoto,
	}

	thumb, ok := it.Thumbnail(10, 10)
	require.True(t, ok)
	// Rotated sideways the image is taller than wide.
	assert.Equal(t, 10, thumb.Bounds().Dx())
	assert.Equal(t, 13, thumb.Bounds().Dy())
}

func TestItemThumbnailMissingFile(t *testing.T) {
	it := Item{
		Path:   filepath.Join(t.TempDir(), "gone.jpg"),
		Width:  40,
		Height: 30,
	}

	thumb, ok := it.Thumbnail(10, 10)
	assert.False(t, ok)
	assert.Nil(t, thumb)
}

func TestItemThumbnailUndecodableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.jpg")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

	it := Item{Path: path, Width: 40, Height: 30}

	thumb, ok := it.Thumbnail(10, 10)
	assert.False(t, ok)
	assert.Nil(t, thumb)
}

func TestItemThumbnailZeroBound(t *testing.T) {
	it := Item{
		Path:   writeTestJPEG(t, 40, 30),
		Width:  40,
		Height: 30,
	}

	_, ok := it.Thumbnail(0, 0)
	assert.False(t, ok)
}
