// Package hnpixels provides a Go client for the Python Discord Pixels API,
// a shared rate-limited canvas of RGB pixels.
//
// The canvas can be read in bulk (Painter.Sketch), read a pixel at a time
// (Painter.Colour), and written one pixel at a time (Painter.Paint). Every
// throttled endpoint reports its budget through response headers, and the
// client obeys them: each endpoint owns a Ratelimiter that blocks the caller
// until the server permits the next request. Write budget is far scarcer
// than read budget, so Paint checks the live colour first and skips writes
// that would be no-ops.
//
// Protector runs the convergence loop: given one or more jobs (an image plus
// a canvas origin), it repeatedly compares the live canvas against each goal
// image and repairs only the pixels that differ, forever, logging and
// surviving transient failures.
//
// Features
//   - Bearer token authentication
//   - Server-driven per-endpoint rate limiting, context aware
//   - Endpoint activation probes so the first real call already knows its budget
//   - Structured logging via log/slog
//
// A Painter and its endpoints serve a single control loop; run one
// Painter/Protector pair per goroutine and do not share them.
package hnpixels
