package label

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/relabs-tech/ontrack/internal/proximity"
)

func TestDistanceText(t *testing.T) {
	if got := Distance(proximity.Report{}); got != "--" {
		t.Fatalf("unchecked: got %q", got)
	}
	if got := Distance(proximity.Report{Checked: true, Distance: 12.345}); got != "12.35m" && got != "12.34m" {
		t.Fatalf("checked: got %q", got)
	}
	if got := Distance(proximity.Report{Checked: true, Distance: 150}); got != "150.00m" {
		t.Fatalf("checked: got %q", got)
	}
}

func TestRenderColoursByStatus(t *testing.T) {
	on := Render(proximity.Report{Checked: true, Status: proximity.OnTrack, Distance: 3})
	off := Render(proximity.Report{Checked: true, Status: proximity.OffTrack, Distance: 300})

	hasColour := func(want [3]uint8, rgba []uint8) bool {
		for i := 0; i+3 < len(rgba); i += 4 {
			if rgba[i] == want[0] && rgba[i+1] == want[1] && rgba[i+2] == want[2] {
				return true
			}
		}
		return false
	}
	if !hasColour([3]uint8{onColor.R, onColor.G, onColor.B}, on.Pix) {
		t.Fatalf("on-track panel has no green text")
	}
	if !hasColour([3]uint8{offColor.R, offColor.G, offColor.B}, off.Pix) {
		t.Fatalf("off-track panel has no red text")
	}
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	rep := proximity.Report{Route: "a-very-long-route-name-that-will-not-fit.gpx"}
	if err := WritePNG(&buf, rep); err != nil {
		t.Fatalf("write: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != Width || b.Dy() != Height {
		t.Fatalf("unexpected size %v", b)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abc", 5); got != "abc" {
		t.Fatalf("got %q", got)
	}
	if got := truncate("abcdef", 4); got != "abc~" {
		t.Fatalf("got %q", got)
	}
}
