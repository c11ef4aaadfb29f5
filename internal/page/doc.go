// Package page is an in-memory rendered document: the static backend of
// the color picker and the node model the browser backend snapshots into.
//
// # Cascade
//
// Parse reads HTML with golang.org/x/net/html, parses every <style> block
// and style attribute with douceur and matches selectors with
// ericchiang/css. Declarations apply in source order (style attributes
// last); !important declarations apply after all normal ones. Selector
// specificity is not modelled. Rules for ::before and ::after feed the
// pseudo-element styles.
//
// Computed values follow getComputedStyle conventions closely enough for
// color resolution: colors are serialized as "rgb(r, g, b)" or
// "rgba(r, g, b, a)", url() references are absolute, colors inside shadows
// and gradients are normalized, and color, fill, stroke, visibility and
// pointer-events inherit. Border and outline colors keep the keyword
// "currentcolor" when no color was declared.
//
// # Layout
//
// Layout is absolute. Each box is its containing block offset by left/top
// and sized by width/height, defaulting to the rest of the containing block;
// position: fixed places a box against the viewport. Images, canvases and
// SVG shapes (rect, circle, ellipse) use their attribute or natural
// geometry when CSS does not size them.
//
// # Resources
//
// Images are decoded while the page opens, in parallel and each bounded by
// the loader timeout; a failed image stays incomplete. A canvas gets a
// pixel buffer from its width/height attributes, painted with data-fill and
// then data-src. A data-src the source policy considers cross-origin taints
// the canvas; a data-context other than "2d" leaves it without a 2D context.
package page
