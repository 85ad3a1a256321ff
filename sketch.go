package hnpixels

import "fmt"

// Sketch is a point-in-time read-only copy of the canvas: raw row-major RGB
// bytes plus dimensions. A Sketch is valid for the duration of one
// reconciliation pass; fetch a fresh one rather than mutating it.
type Sketch struct {
	content []byte
	width   int
	height  int
}

// NewSketch wraps raw canvas bytes. The buffer must hold exactly
// width*height three-byte pixels.
func NewSketch(content []byte, width, height int) (*Sketch, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("hnpixels: invalid sketch size %dx%d", width, height)
	}
	if len(content) != width*height*3 {
		return nil, fmt.Errorf("hnpixels: sketch buffer is %d bytes, want %d for %dx%d",
			len(content), width*height*3, width, height)
	}
	return &Sketch{content: content, width: width, height: height}, nil
}

// Width returns the canvas width in pixels.
func (s *Sketch) Width() int { return s.width }

// Height returns the canvas height in pixels.
func (s *Sketch) Height() int { return s.height }

// At returns the colour of the pixel at (x, y). A negative coordinate is
// taken from the far edge, so At(-1, -1) is the bottom-right pixel; only a
// single wrap is supported.
func (s *Sketch) At(x, y int) (Colour, error) {
	if x < 0 {
		x += s.width
	}
	if y < 0 {
		y += s.height
	}
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return Colour{}, fmt.Errorf("hnpixels: pixel (%d, %d) outside %dx%d canvas", x, y, s.width, s.height)
	}
	index := (x + s.width*y) * 3
	return Colour{R: s.content[index], G: s.content[index+1], B: s.content[index+2]}, nil
}
