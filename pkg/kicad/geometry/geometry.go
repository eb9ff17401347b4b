// Package geometry computes pin and label placement math shared by sheet
// generation and synchronization. Both call sites must use these functions;
// a second implementation of the label formula is how orientation bugs
// creep in.
package geometry

import (
	"math"

	"github.com/OpenTraceLab/OpenTraceSync/pkg/kicad/sexp"
)

// Normalize maps an angle in degrees into [0, 360).
func Normalize(degrees float64) float64 {
	d := math.Mod(degrees, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// Rotate rotates a point about the origin by the given angle in degrees.
// Right angles are computed exactly so rotating a grid-aligned pin offset
// never introduces floating-point dust into serialized coordinates.
func Rotate(p sexp.Position, degrees float64) sexp.Position {
	switch Normalize(degrees) {
	case 0:
		return p
	case 90:
		return sexp.Position{X: -p.Y, Y: p.X}
	case 180:
		return sexp.Position{X: -p.X, Y: -p.Y}
	case 270:
		return sexp.Position{X: p.Y, Y: -p.X}
	}
	rad := degrees * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return sexp.Position{
		X: p.X*cos - p.Y*sin,
		Y: p.X*sin + p.Y*cos,
	}
}

// PinWorldPosition returns the sheet position of a pin: the pin's local
// offset rotated by the component's rotation, translated by the component's
// position. Offsets are in sheet coordinates (Y down); the library loader
// is responsible for converting symbol-file coordinates.
func PinWorldPosition(componentPos sexp.Position, componentRot float64, pinOffset sexp.Position) sexp.Position {
	r := Rotate(pinOffset, componentRot)
	return sexp.Position{X: componentPos.X + r.X, Y: componentPos.Y + r.Y}
}

// LabelOrientation returns the world angle of a connectivity label attached
// to a pin. The label points opposite the pin's own direction, rotated into
// world space by the component's rotation.
func LabelOrientation(pinOrientation, componentRot float64) float64 {
	return Normalize(pinOrientation + 180 + componentRot)
}

// Orientation is a pin orientation lookup result. A missing orientation is
// represented explicitly instead of defaulting to zero; callers decide via
// OrDefault and surface the substitution as a warning.
type Orientation struct {
	Degrees  float64
	Resolved bool
}

// Resolved wraps a known orientation.
func Resolved(degrees float64) Orientation {
	return Orientation{Degrees: degrees, Resolved: true}
}

// OrDefault returns the resolved orientation, or the fallback along with
// false so the caller can record that a default was substituted.
func (o Orientation) OrDefault(fallback float64) (float64, bool) {
	if o.Resolved {
		return o.Degrees, true
	}
	return fallback, false
}
