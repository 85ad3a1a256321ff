package hnpixels

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"
)

// solidJob builds a fully opaque single-colour job of the given size.
func solidJob(width, height int, colour Colour, origin image.Point) Job {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: colour.R, G: colour.G, B: colour.B, A: 255})
		}
	}
	return Job{Image: img, Origin: origin}
}

func testProtector(t *testing.T, p *Painter) *Protector {
	t.Helper()
	return NewProtector(p, WithProtectorLogger(testLogger()), WithWait(time.Millisecond))
}

func TestProtectorConvergedCanvasPaintsNothing(t *testing.T) {
	goal := Colour{R: 10, G: 20, B: 30}
	canvas := newFakeCanvas(4, 4)
	for y := 1; y < 3; y++ {
		for x := 1; x < 3; x++ {
			canvas.set(x, y, goal)
		}
	}
	srv := canvas.server(t)
	defer srv.Close()

	protector := testProtector(t, testPainter(t, srv))
	protector.circuit(context.Background(), []Job{solidJob(2, 2, goal, image.Point{X: 1, Y: 1})})

	if len(canvas.paints) != 0 {
		t.Fatalf("converged canvas should see zero writes, got %v", canvas.paints)
	}
}

func TestProtectorRepairsSingleMismatch(t *testing.T) {
	goal := Colour{R: 10, G: 20, B: 30}
	canvas := newFakeCanvas(4, 4)
	for y := 1; y < 3; y++ {
		for x := 1; x < 3; x++ {
			canvas.set(x, y, goal)
		}
	}
	// One overwritten pixel inside the protected region.
	canvas.set(2, 1, Colour{R: 99, G: 99, B: 99})
	srv := canvas.server(t)
	defer srv.Close()

	protector := testProtector(t, testPainter(t, srv))
	protector.circuit(context.Background(), []Job{solidJob(2, 2, goal, image.Point{X: 1, Y: 1})})

	if len(canvas.paints) != 1 {
		t.Fatalf("expected exactly one repair, got %v", canvas.paints)
	}
	call := canvas.paints[0]
	if call.X != 2 || call.Y != 1 || call.RGB != goal.Hex() {
		t.Fatalf("unexpected repair %+v", call)
	}
}

func TestProtectorSkipsTransparentPixels(t *testing.T) {
	canvas := newFakeCanvas(4, 4)
	srv := canvas.server(t)
	defer srv.Close()

	// 2x1 image: left pixel opaque red, right pixel fully transparent. The
	// canvas is black everywhere, so only the opaque pixel mismatches.
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 255, A: 0})

	protector := testProtector(t, testPainter(t, srv))
	protector.circuit(context.Background(), []Job{{Image: img, Origin: image.Point{X: 0, Y: 0}}})

	if len(canvas.paints) != 1 {
		t.Fatalf("expected one repair, got %v", canvas.paints)
	}
	if call := canvas.paints[0]; call.X != 0 || call.Y != 0 {
		t.Fatalf("transparent pixel should never be painted, got %+v", call)
	}
}

func TestProtectorResolvesNegativeOrigin(t *testing.T) {
	goal := Colour{R: 7, G: 7, B: 7}
	canvas := newFakeCanvas(4, 4)
	srv := canvas.server(t)
	defer srv.Close()

	protector := testProtector(t, testPainter(t, srv))
	protector.circuit(context.Background(), []Job{solidJob(1, 1, goal, image.Point{X: -1, Y: -1})})

	if len(canvas.paints) != 1 {
		t.Fatalf("expected one repair, got %v", canvas.paints)
	}
	if call := canvas.paints[0]; call.X != 3 || call.Y != 3 {
		t.Fatalf("origin (-1,-1) on a 4x4 canvas should paint (3,3), got %+v", call)
	}
}

func TestProtectorSurvivesSketchFailure(t *testing.T) {
	goal := Colour{R: 1, G: 2, B: 3}
	canvas := newFakeCanvas(4, 4)
	srv := canvas.server(t)
	defer srv.Close()

	// First sketch fetch (job A) fails; job B's fetch succeeds.
	canvas.failSketches = 1

	jobA := solidJob(1, 1, goal, image.Point{X: 0, Y: 0})
	jobB := solidJob(1, 1, goal, image.Point{X: 2, Y: 2})

	protector := testProtector(t, testPainter(t, srv))
	protector.circuit(context.Background(), []Job{jobA, jobB})

	if len(canvas.paints) != 1 {
		t.Fatalf("job B should still be repaired, got %v", canvas.paints)
	}
	if call := canvas.paints[0]; call.X != 2 || call.Y != 2 {
		t.Fatalf("expected job B's pixel (2,2), got %+v", call)
	}
}

func TestProtectorActivateStopsOnCancellation(t *testing.T) {
	goal := Colour{R: 1, G: 2, B: 3}
	canvas := newFakeCanvas(4, 4)
	canvas.set(0, 0, goal)
	srv := canvas.server(t)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	protector := testProtector(t, testPainter(t, srv))
	done := make(chan error, 1)
	go func() {
		done <- protector.Activate(ctx, []Job{solidJob(1, 1, goal, image.Point{X: 0, Y: 0})})
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("Activate should return the context error, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Activate did not stop after cancellation")
	}
}
