package device

import (
	"fmt"
	"math"
)

// Params are the series (R, X) and shunt (G, B) parameters of a branch.
type Params struct {
	R float64 // series resistance
	X float64 // series reactance
	G float64 // shunt conductance
	B float64 // shunt susceptance
}

func (p Params) String() string {
	return fmt.Sprintf("r=%g x=%g g=%g b=%g", p.R, p.X, p.G, p.B)
}

// SeriesAdmittance is 1/(R + jX). Undefined when R and X are both zero.
func (p Params) SeriesAdmittance() complex128 {
	return 1 / complex(p.R, p.X)
}

// Primitive is the 2x2 admittance matrix of one branch, labelled by its two
// terminal buses on both axes.
type Primitive struct {
	Buses [2]string
	Y     [2][2]complex128
}

func (p Primitive) At(row, col string) (complex128, bool) {
	i, ok := p.position(row)
	if !ok {
		return 0, false
	}
	j, ok := p.position(col)
	if !ok {
		return 0, false
	}
	return p.Y[i][j], true
}

func (p Primitive) position(bus string) (int, bool) {
	switch bus {
	case p.Buses[0]:
		return 0, true
	case p.Buses[1]:
		return 1, true
	}
	return -1, false
}

func (p Primitive) IsSymmetric() bool {
	return p.Y[0][1] == p.Y[1][0]
}

func newPrimitive(bus1, bus2 string, series, shunt complex128) Primitive {
	return Primitive{
		Buses: [2]string{bus1, bus2},
		Y: [2][2]complex128{
			{series + shunt, -series},
			{-series, series + shunt},
		},
	}
}

func checkParams(entity, name string, p Params) error {
	for _, f := range []struct {
		field string
		value float64
	}{{"r", p.R}, {"x", p.X}, {"g", p.G}, {"b", p.B}} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return invalid(entity, name, f.field, f.value, "must be finite")
		}
		if f.value < 0 {
			return invalid(entity, name, f.field, f.value, "must be non-negative")
		}
	}
	if p.R == 0 && p.X == 0 {
		return invalid(entity, name, "r,x", [2]float64{p.R, p.X}, "r and x cannot both be zero")
	}
	return nil
}
