// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package label

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/relabs-tech/ontrack/internal/proximity"
)

// Panel size, matching the small status displays.
const (
	Width  = 128
	Height = 64
)

var (
	background = color.RGBA{0x10, 0x10, 0x10, 0xff}
	onColor    = color.RGBA{0x30, 0xd0, 0x50, 0xff}
	offColor   = color.RGBA{0xe0, 0x30, 0x30, 0xff}
	idleColor  = color.RGBA{0xc0, 0xc0, 0xc0, 0xff}
)

// Distance formats the distance label text: "12.34m", or "--" before the
// first check.
func Distance(rep proximity.Report) string {
	if !rep.Checked {
		return "--"
	}
	return fmt.Sprintf("%.2fm", rep.Distance)
}

// Render draws the status panel for rep.
func Render(rep proximity.Report) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{background}, image.Point{}, draw.Src)

	fg := idleColor
	status := "Waiting..."
	if rep.Checked {
		status = rep.Status.String()
		fg = offColor
		if rep.Status == proximity.OnTrack {
			fg = onColor
		}
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{fg},
		Face: basicfont.Face7x13,
	}

	drawer.Dot = fixed.P(4, 16)
	drawer.DrawString(Distance(rep))

	drawer.Dot = fixed.P(4, 34)
	drawer.DrawString(status)

	drawer.Src = &image.Uniform{idleColor}
	drawer.Dot = fixed.P(4, 52)
	drawer.DrawString(truncate(rep.Route, (Width-8)/7))

	return img
}

// WritePNG renders rep and encodes it as PNG.
func WritePNG(w io.Writer, rep proximity.Report) error {
	if err := png.Encode(w, Render(rep)); err != nil {
		return fmt.Errorf("encode label: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}
