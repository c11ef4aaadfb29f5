// Package imaging reads colors out of raster content: image elements,
// canvas buffers, url() backgrounds and plain image files.
//
// # Sampling
//
// [Sampler] implements pixel sampling for the resolution pipeline. Each call
// rasterizes the source into a fresh off-screen surface at its natural
// resolution, maps the viewport point onto it by the ratio of surface size
// to the element's rendered box (clamped to the surface edge) and reads one
// pixel. A pixel with zero alpha counts as no color. Surfaces are never
// cached or shared between calls.
//
// # Loading
//
// [Loader] fetches and decodes images from file paths, file:, data: and
// http(s) URLs. Every load is bounded by a timeout and by the caller's
// context, and an abandoned load never blocks its goroutine.
//
// # Source Safety
//
// [SourcePolicy] declines sources whose pixels cannot be read back:
// cross-origin URLs that are not trusted, and deny-listed hosts. Sampling
// checks the policy before loading anything.
//
// # Rendering
//
// [Swatch] draws the picker's 45 degree preview gradient and [Loupe] and
// [GridLoupe] magnify the pixels around a point. All three return
// base64-encoded PNGs no larger than [MaxRenderSize] on either side.
//
// # Error Handling
//
// Loading returns errors wrapping [ErrNotLoaded]; the policy returns errors
// wrapping [ErrUnsafeSource]. The Sampler downgrades these, as well as
// tainted canvases and missing contexts, to "no color" and logs them at
// debug level.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with the origin at the top-left corner;
// X increases rightward and Y downward.
package imaging
