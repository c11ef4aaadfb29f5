// Package resolve turns a viewport position into a canonical color.
//
// A [Pipeline] finds the topmost page element under the position (with
// the picker's own layers hidden), classifies it once and tries its
// strategies in fixed order:
//
//	native → image-pixel → canvas-pixel → svg-style → background-image → style-cascade
//
// The first raw color string a strategy produces is parsed into a
// colorspace.Color. The native and background-image strategies are
// optional. Resolution is total: when nothing matches, the style cascade
// still yields opaque white.
//
// A [Session] drives a picking interaction on one document through
// idle → active → idle, owning the overlay, cursor and preview layers.
// Cancelling a session aborts its in-flight resolution between strategy
// steps.
package resolve
