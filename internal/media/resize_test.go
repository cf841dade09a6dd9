package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResizeToFill(t *testing.T) {
	tests := []struct {
		name     string
		w, h     int
		rotation int
		boundW   int
		boundH   int
		want     Dimensions
	}{
		{
			name: "wider than box pins height",
			w:    400, h: 300, boundW: 100, boundH: 100,
			want: Dimensions{Width: 133, Height: 100},
		},
		{
			name: "taller than box pins width",
			w:    300, h: 400, boundW: 100, boundH: 100,
			want: Dimensions{Width: 100, Height: 133},
		},
		{
			name: "exact fit",
			w:    200, h: 100, boundW: 100, boundH: 50,
			want: Dimensions{Width: 100, Height: 50},
		},
		{
			name: "rotation swaps effective dimensions",
			w:    400, h: 300, rotation: 90, boundW: 100, boundH: 100,
			want: Dimensions{Width: 100, Height: 133},
		},
		{
			name: "rotation by 180 leaves dimensions alone",
			w:    400, h: 300, rotation: 180, boundW: 100, boundH: 100,
			want: Dimensions{Width: 133, Height: 100},
		},
		{
			name: "zero image yields empty result",
			w:    0, h: 300, boundW: 100, boundH: 100,
			want: Dimensions{},
		},
		{
			name: "zero bound yields empty result",
			w:    400, h: 300, boundW: 0, boundH: 100,
			want: Dimensions{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResizeToFill(tt.w, tt.h, tt.rotation, tt.boundW, tt.boundH)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResizeToFillCoversBound(t *testing.T) {
	got := ResizeToFill(1017, 763, 0, 128, 96)
	assert.GreaterOrEqual(t, got.Width, 128)
	assert.GreaterOrEqual(t, got.Height, 96)
}
