package imaging

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/ridge/must/v2"
)

// AccentHex is the highlight colour used for text blocks.
const AccentHex = "#1B72E8"

// BlockFillAlpha is the opacity of a block's fill, matching rgba(27,114,232,0.15).
const BlockFillAlpha = 0.15

var accent = must.OK1(colorful.Hex(AccentHex))

// BlockColor returns the highlight colour for the block at index i. Block 0
// uses the accent colour; later blocks step around the hue wheel by the
// golden angle so neighbours stay distinguishable.
func BlockColor(i int) colorful.Color {
	if i <= 0 {
		return accent
	}
	h, s, v := accent.Hsv()
	h = math.Mod(h+float64(i)*137.508, 360)
	return colorful.Hsv(h, s, v).Clamped()
}
