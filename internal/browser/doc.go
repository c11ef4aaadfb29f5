// Package browser is the live-page backend: a dom.Document driven through
// the Chrome DevTools Protocol with chromedp.
//
// Hit testing runs document.elementFromPoint in the page and snapshots the
// hit element and its ancestors (computed styles, pseudo-element styles,
// image state and canvas pixels) into page nodes, so the resolution engine
// works on the same element model as static pages. The document also reads
// composited screen pixels, which the pipeline prefers when enabled, and
// resolves author color syntax in the page.
package browser
