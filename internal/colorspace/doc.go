// Package colorspace converts colors between RGB triples, hex strings and
// HSL triples, and parses the color syntaxes found in computed styles.
//
// # Canonical Color
//
// A [Color] carries three synchronized representations:
//   - Hex: lowercase "#rrggbb"
//   - RGB: "rgb(r, g, b)" with 8-bit channels
//   - HSL: "hsl(h, s%, l%)" with h in [0,360) and s, l in [0,100]
//
// Every Color is built in one step from a single input representation and is
// never mutated afterwards, so values can be copied freely.
//
// # Rounding
//
// All conversions round half away from zero to the nearest integer at each
// byte, percent and degree boundary, and reduce hue modulo 360. HSL keeps only
// integer percents, so an RGB -> HSL -> RGB round trip can drift by a few
// units per channel on dark or desaturated colors.
//
// # Parsing
//
// [ParseColorString] accepts rgb()/rgba(), #rgb/#rrggbb, hsl()/hsla() and,
// through a [Computer], anything else a CSS engine understands (named colors,
// hwb(), ...). Alpha is ignored. Empty, "transparent" and unparseable input
// all yield [Default] (opaque white).
package colorspace
