package device

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/edp1096/toy-ybus/pkg/neterr"
	"gotest.tools/v3/assert"
)

const tol = 1e-9

func near(a, b complex128) bool {
	return cmplx.Abs(a-b) < tol
}

type stampRecorder struct {
	entries map[[2]int]complex128
}

func (s *stampRecorder) AddComplexElement(i, j int, real, imag float64) {
	if s.entries == nil {
		s.entries = make(map[[2]int]complex128)
	}
	s.entries[[2]int{i, j}] += complex(real, imag)
}

func TestTransformerPrimitive(t *testing.T) {
	tr, err := NewTransformer("T1", "One", "Two", Params{R: 0.0015, X: 0.02})
	assert.NilError(t, err)

	ys := 1 / complex(0.0015, 0.02)
	y := tr.Admittance()

	assert.DeepEqual(t, y.Buses, [2]string{"One", "Two"})
	assert.Assert(t, near(y.Y[0][0], ys))
	assert.Assert(t, near(y.Y[1][1], ys))
	assert.Assert(t, near(y.Y[0][1], -ys))
	assert.Assert(t, near(y.Y[1][0], -ys))

	// 1/(0.0015+0.02j) ~ 3.729 - 49.72j
	assert.Assert(t, math.Abs(real(ys)-3.729) < 1e-3)
	assert.Assert(t, math.Abs(imag(ys)+49.720) < 1e-3)
}

func TestTransformerLumpedShunt(t *testing.T) {
	tr, err := NewTransformer("T1", "A", "B", Params{R: 0.02, X: 0.04, G: 0.001, B: 0.01})
	assert.NilError(t, err)

	ys := 1 / complex(0.02, 0.04)
	v, ok := tr.Admittance().At("A", "A")
	assert.Assert(t, ok)
	assert.Assert(t, near(v, ys+complex(0.001, 0.01)))

	v, ok = tr.Admittance().At("A", "B")
	assert.Assert(t, ok)
	assert.Assert(t, near(v, -ys))
}

func TestTransmissionLinePiModel(t *testing.T) {
	l, err := NewTransmissionLine("Line 1", "Bus 1", "Bus 2", Params{R: 0.02, X: 0.25, B: 0.03})
	assert.NilError(t, err)

	ys := 1 / complex(0.02, 0.25)
	expectedDiag := ys + complex(0, 0.015)
	y := l.Admittance()

	assert.Assert(t, near(y.Y[0][0], expectedDiag))
	assert.Assert(t, near(y.Y[1][1], expectedDiag))
	assert.Assert(t, near(y.Y[0][1], -ys))
	assert.Assert(t, near(y.Y[1][0], -ys))

	// 1/(0.02+0.25j) ~ 0.318 - 3.975j
	assert.Assert(t, math.Abs(real(ys)-0.31797) < 1e-4)
	assert.Assert(t, math.Abs(imag(ys)+3.97456) < 1e-4)
}

func TestTransmissionLineConductanceIsSplit(t *testing.T) {
	l, err := NewTransmissionLine("L1", "A", "B", Params{R: 0.01, X: 0.1, G: 0.004, B: 0.02})
	assert.NilError(t, err)

	ys := 1 / complex(0.01, 0.1)
	v, _ := l.Admittance().At("B", "B")
	assert.Assert(t, near(v, ys+complex(0.002, 0.01)))
}

func TestPrimitiveProperties(t *testing.T) {
	cases := []Params{
		{R: 0.0015, X: 0.02},
		{R: 1, X: 0},
		{R: 0, X: 1},
		{R: 0.009, X: 0.1, B: 1.72},
		{R: 0.3, X: 0.2, G: 0.5, B: 0.5},
		{R: 1e-6, X: 1e3, G: 1e-3},
	}

	for _, p := range cases {
		tr, err := NewTransformer("T", "A", "B", p)
		assert.NilError(t, err)
		l, err := NewTransmissionLine("L", "A", "B", p)
		assert.NilError(t, err)

		for _, y := range []Primitive{tr.Admittance(), l.Admittance()} {
			assert.Assert(t, y.IsSymmetric(), "params %v", p)
			assert.Assert(t, real(y.Y[0][0]) >= 0, "params %v", p)
			assert.Assert(t, real(y.Y[1][1]) >= 0, "params %v", p)
		}
	}
}

func TestRejectInvalidParams(t *testing.T) {
	cases := []struct {
		name  string
		p     Params
		field string
	}{
		{"both zero", Params{}, "r,x"},
		{"negative r", Params{R: -0.1, X: 1}, "r"},
		{"negative x", Params{R: 0.1, X: -1}, "x"},
		{"negative g", Params{R: 0.1, X: 1, G: -1}, "g"},
		{"negative b", Params{R: 0.1, X: 1, B: -1}, "b"},
		{"nan r", Params{R: math.NaN(), X: 1}, "r"},
		{"inf b", Params{R: 0.1, X: 1, B: math.Inf(1)}, "b"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTransmissionLine("L1", "BUS1", "BUS2", tc.p)
			assert.ErrorIs(t, err, neterr.ErrInvalidParameter)

			var e *neterr.Error
			assert.Assert(t, errors.As(err, &e))
			assert.Equal(t, e.Field, tc.field)
			assert.Equal(t, e.Name, "L1")
		})
	}
}

func TestRejectInvalidNames(t *testing.T) {
	_, err := NewTransmissionLine("", "BUS1", "BUS2", Params{R: 1, X: 1})
	assert.ErrorIs(t, err, neterr.ErrInvalidParameter)

	_, err = NewTransformer("T1", " ", "BUS2", Params{R: 1, X: 1})
	assert.ErrorIs(t, err, neterr.ErrInvalidParameter)

	_, err = NewTransformer("T1", "BUS1", "BUS1", Params{R: 1, X: 1})
	assert.ErrorIs(t, err, neterr.ErrInvalidParameter)
}

func TestSetterRecomputes(t *testing.T) {
	tr, err := NewTransformer("T1", "BusA", "BusB", Params{R: 0.02, X: 0.04})
	assert.NilError(t, err)
	assert.Equal(t, tr.Revision(), uint64(0))

	assert.NilError(t, tr.SetR(0.03))
	assert.NilError(t, tr.SetX(0.06))
	assert.Equal(t, tr.Revision(), uint64(2))

	ys := 1 / complex(0.03, 0.06)
	v, _ := tr.Admittance().At("BusA", "BusA")
	assert.Assert(t, near(v, ys))

	assert.NilError(t, tr.SetB(0.5))
	v, _ = tr.Admittance().At("BusB", "BusB")
	assert.Assert(t, near(v, ys+complex(0, 0.5)))

	assert.NilError(t, tr.SetG(0.1))
	v, _ = tr.Admittance().At("BusB", "BusB")
	assert.Assert(t, near(v, ys+complex(0.1, 0.5)))
}

func TestRejectedSetterLeavesState(t *testing.T) {
	l, err := NewTransmissionLine("L1", "A", "B", Params{R: 0.02, X: 0.25, B: 0.03})
	assert.NilError(t, err)
	before := l.Admittance()

	assert.ErrorIs(t, l.SetR(-0.01), neterr.ErrInvalidParameter)
	assert.ErrorIs(t, l.SetX(-0.01), neterr.ErrInvalidParameter)
	assert.ErrorIs(t, l.SetParams(Params{R: 0, X: 0}), neterr.ErrInvalidParameter)

	assert.Equal(t, l.Params(), Params{R: 0.02, X: 0.25, B: 0.03})
	assert.Equal(t, l.Admittance(), before)
	assert.Equal(t, l.Revision(), uint64(0))

	// r may go to zero as long as x stays positive
	assert.NilError(t, l.SetR(0))
	assert.Equal(t, l.Revision(), uint64(1))
}

func TestPrimitiveAtUnknownBus(t *testing.T) {
	l, _ := NewTransmissionLine("L1", "A", "B", Params{R: 1, X: 1})
	_, ok := l.Admittance().At("A", "C")
	assert.Assert(t, !ok)
}

func TestStamp(t *testing.T) {
	l, err := NewTransmissionLine("L1", "A", "B", Params{R: 0.02, X: 0.25, B: 0.03})
	assert.NilError(t, err)

	rec := &stampRecorder{}
	err = l.Stamp(rec)
	assert.ErrorContains(t, err, "nodes not assigned")

	l.SetNodes([]int{2, 3})
	assert.NilError(t, l.Stamp(rec))

	y := l.Admittance().Y
	assert.Equal(t, rec.entries[[2]int{2, 2}], y[0][0])
	assert.Equal(t, rec.entries[[2]int{2, 3}], y[0][1])
	assert.Equal(t, rec.entries[[2]int{3, 2}], y[1][0])
	assert.Equal(t, rec.entries[[2]int{3, 3}], y[1][1])
	assert.Equal(t, len(rec.entries), 4)
}

func TestKinds(t *testing.T) {
	tr, _ := NewTransformer("T1", "A", "B", Params{R: 1, X: 1})
	l, _ := NewTransmissionLine("L1", "A", "B", Params{R: 1, X: 1})

	var b Branch = tr
	assert.Equal(t, b.GetKind(), KindTransformer)
	assert.Equal(t, b.GetType(), "T")
	b = l
	assert.Equal(t, b.GetKind(), KindTransmissionLine)
	assert.Equal(t, b.GetType(), "L")

	assert.Assert(t, KindTransformer.IsBranch())
	assert.Assert(t, !KindLoad.IsBranch())
	assert.Equal(t, KindGenerator.String(), "generator")
}
