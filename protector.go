package hnpixels

import (
	"context"
	"image"
	"image/color"
	"log/slog"
	"time"
)

// defaultCircuitWait is the pause after each full circuit over the jobs,
// keeping the loop from spinning when there is nothing to repair.
const defaultCircuitWait = 5 * time.Second

// Job is an image to maintain on the canvas. Fully transparent pixels are
// never painted, so irregular shapes can overlay the shared canvas. The
// image is read-only to the Protector.
type Job struct {
	// Image is the goal picture. Alpha is interpreted non-premultiplied:
	// any pixel with alpha zero is a don't-care cell.
	Image image.Image
	// Origin is the canvas position of the image's top-left pixel. Negative
	// components are resolved against the canvas size, same as Sketch
	// indexing.
	Origin image.Point
}

// Protector maintains jobs on the canvas using a Painter. It repeatedly
// compares the live canvas against each goal image and repaints only the
// pixels that differ.
type Protector struct {
	painter *Painter
	logger  *slog.Logger
	wait    time.Duration
}

// ProtectorOption mutates the protector during construction.
type ProtectorOption func(*Protector)

// NewProtector builds a Protector driving the given Painter.
func NewProtector(painter *Painter, opts ...ProtectorOption) *Protector {
	p := &Protector{
		painter: painter,
		logger:  slog.Default(),
		wait:    defaultCircuitWait,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	p.logger = p.logger.With("component", "protector")
	return p
}

// WithWait sets the pause between full circuits over the jobs.
func WithWait(wait time.Duration) ProtectorOption {
	return func(p *Protector) { p.wait = wait }
}

// WithProtectorLogger installs a structured logger. If unset, slog.Default()
// is used.
func WithProtectorLogger(logger *slog.Logger) ProtectorOption {
	return func(p *Protector) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Activate runs the reconciliation loop over the given jobs until ctx is
// cancelled, at which point it returns ctx.Err().
//
// The loop never stops on its own: every Painter failure is logged and the
// affected pixel or job is simply revisited on the next circuit. Restarting
// the process is always safe since no state is kept between circuits.
func (p *Protector) Activate(ctx context.Context, jobs []Job) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.circuit(ctx, jobs)
		p.logger.Info("completed full circuit", "wait", p.wait)
		timer := time.NewTimer(p.wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// circuit runs one pass over every job. Painting an already-converged canvas
// issues zero writes.
func (p *Protector) circuit(ctx context.Context, jobs []Job) {
	for _, job := range jobs {
		if ctx.Err() != nil {
			return
		}
		p.protect(ctx, job)
	}
}

// protect runs one pass over a single job, repainting mismatched pixels in
// raster order.
func (p *Protector) protect(ctx context.Context, job Job) {
	sketch, err := p.painter.Sketch(ctx)
	if err != nil {
		p.logger.Warn("could not fetch canvas, skipping job this pass", "error", err)
		return
	}

	// Resolve a negative origin against the live canvas size.
	origin := job.Origin
	if origin.X < 0 {
		origin.X += sketch.Width()
	}
	if origin.Y < 0 {
		origin.Y += sketch.Height()
	}

	bounds := job.Image.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if ctx.Err() != nil {
				return
			}
			pixel := color.NRGBAModel.Convert(job.Image.At(x, y)).(color.NRGBA)
			// Transparent pixels are don't-care cells.
			if pixel.A == 0 {
				continue
			}
			goal := Colour{R: pixel.R, G: pixel.G, B: pixel.B}
			canvasX := origin.X + x - bounds.Min.X
			canvasY := origin.Y + y - bounds.Min.Y
			current, err := sketch.At(canvasX, canvasY)
			if err != nil {
				p.logger.Warn("goal pixel falls outside the canvas", "x", canvasX, "y", canvasY, "error", err)
				continue
			}
			if current == goal {
				continue
			}
			p.logger.Info("pixel differs from goal",
				"x", canvasX, "y", canvasY, "current", current.Hex(), "goal", goal.Hex())
			// Paint re-checks the live colour itself, no need to consult
			// get_pixel here.
			if err := p.painter.Paint(ctx, canvasX, canvasY, goal); err != nil {
				p.logger.Warn("could not repaint pixel, will revisit next circuit",
					"x", canvasX, "y", canvasY, "error", err)
			}
			// Painting can block for a long cooldown, so the snapshot may be
			// stale; refresh before scanning further.
			sketch, err = p.painter.Sketch(ctx)
			if err != nil {
				p.logger.Warn("could not refresh canvas, skipping rest of job this pass", "error", err)
				return
			}
		}
	}
}
