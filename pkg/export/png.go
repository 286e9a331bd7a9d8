package export

import (
	"fmt"
	"io"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/kestrelui/canopy/pkg/tree"
)

// WritePNG renders the visible projection as a PNG image.
func WritePNG[T comparable](w io.Writer, tr *tree.Tree[T]) error {
	rows := rowsOf(tr)
	width, height := imageSize(rows)

	dc := gg.NewContext(width, height)
	dc.SetRGB255(0x28, 0x2a, 0x36)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	for i, r := range rows {
		y := float64(padding + (i+1)*rowHeight - 5)
		x := float64(padding + r.depth*indent)
		if r.selected {
			dc.SetRGB255(0x44, 0x47, 0x5a)
			dc.DrawRectangle(float64(padding)/2, float64(padding+i*rowHeight),
				float64(width-padding), float64(rowHeight))
			dc.Fill()
		}
		if r.branch {
			dc.SetRGB255(0x8b, 0xe9, 0xfd)
		} else {
			dc.SetRGB255(0xf8, 0xf8, 0xf2)
		}
		dc.DrawString(fmt.Sprintf("%s %s", glyph(r), r.name), x, y)
	}

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
