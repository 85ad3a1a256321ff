package hnpixels

import "testing"

func TestSketchIndexing(t *testing.T) {
	// 2x2 canvas, row major: (0,0) (1,0) / (0,1) (1,1).
	content := []byte{
		1, 2, 3, 4, 5, 6,
		7, 8, 9, 10, 11, 12,
	}
	sketch, err := NewSketch(content, 2, 2)
	if err != nil {
		t.Fatalf("NewSketch: %v", err)
	}
	cases := []struct {
		x, y int
		want Colour
	}{
		{0, 0, Colour{1, 2, 3}},
		{1, 0, Colour{4, 5, 6}},
		{0, 1, Colour{7, 8, 9}},
		{1, 1, Colour{10, 11, 12}},
	}
	for _, tc := range cases {
		got, err := sketch.At(tc.x, tc.y)
		if err != nil {
			t.Fatalf("At(%d, %d): %v", tc.x, tc.y, err)
		}
		if got != tc.want {
			t.Errorf("At(%d, %d) = %v, want %v", tc.x, tc.y, got, tc.want)
		}
	}
}

func TestSketchNegativeIndexing(t *testing.T) {
	content := []byte{
		1, 2, 3, 4, 5, 6,
		7, 8, 9, 10, 11, 12,
	}
	sketch, err := NewSketch(content, 2, 2)
	if err != nil {
		t.Fatalf("NewSketch: %v", err)
	}
	corner, err := sketch.At(sketch.Width()-1, sketch.Height()-1)
	if err != nil {
		t.Fatal(err)
	}
	wrapped, err := sketch.At(-1, -1)
	if err != nil {
		t.Fatalf("At(-1, -1): %v", err)
	}
	if wrapped != corner {
		t.Errorf("At(-1, -1) = %v, want bottom-right %v", wrapped, corner)
	}
}

func TestSketchOutOfRange(t *testing.T) {
	sketch, err := NewSketch(make([]byte, 2*2*3), 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	for _, tc := range [][2]int{{2, 0}, {0, 2}, {-3, 0}, {0, -3}} {
		if _, err := sketch.At(tc[0], tc[1]); err == nil {
			t.Errorf("At(%d, %d) should fail", tc[0], tc[1])
		}
	}
}

func TestNewSketchValidation(t *testing.T) {
	if _, err := NewSketch(make([]byte, 11), 2, 2); err == nil {
		t.Error("short buffer should fail")
	}
	if _, err := NewSketch(make([]byte, 12), 0, 2); err == nil {
		t.Error("zero width should fail")
	}
	if _, err := NewSketch(make([]byte, 12), 2, -2); err == nil {
		t.Error("negative height should fail")
	}
}
