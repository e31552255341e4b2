package circuit

import (
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/edp1096/toy-ybus/internal/consts"
	"github.com/edp1096/toy-ybus/pkg/neterr"
)

// YBus is an immutable snapshot of the system admittance matrix, labelled by
// bus name on both axes. Positions follow the bus registry.
type YBus struct {
	ID      uuid.UUID
	Circuit string
	BuiltAt time.Time

	names  []string
	index  map[string]int
	values *mat.CDense // nil for an empty network
}

func newYBus(circuit string, names []string, index map[string]int, values *mat.CDense) *YBus {
	return &YBus{
		ID:      uuid.New(),
		Circuit: circuit,
		BuiltAt: time.Now(),
		names:   names,
		index:   index,
		values:  values,
	}
}

func (y *YBus) Size() int {
	return len(y.names)
}

// Names returns the bus labels in position order.
func (y *YBus) Names() []string {
	out := make([]string, len(y.names))
	copy(out, y.names)
	return out
}

func (y *YBus) Index() map[string]int {
	out := make(map[string]int, len(y.index))
	for k, v := range y.index {
		out[k] = v
	}
	return out
}

func (y *YBus) PositionOf(name string) (int, error) {
	pos, ok := y.index[name]
	if !ok {
		return 0, &neterr.Error{Kind: neterr.ErrUnknownBus, Entity: "bus", Name: name, Reason: "not in admittance matrix"}
	}
	return pos, nil
}

func (y *YBus) At(row, col string) (complex128, error) {
	i, err := y.PositionOf(row)
	if err != nil {
		return 0, err
	}
	j, err := y.PositionOf(col)
	if err != nil {
		return 0, err
	}
	return y.AtIndex(i, j), nil
}

// AtIndex takes bus positions, not 0-based offsets. It panics when either
// position is out of range.
func (y *YBus) AtIndex(i, j int) complex128 {
	return y.values.At(i-consts.BusIndexBase, j-consts.BusIndexBase)
}

// Matrix returns a 0-based copy of the values, nil for an empty network.
func (y *YBus) Matrix() *mat.CDense {
	if y.values == nil {
		return nil
	}
	n := y.Size()
	out := mat.NewCDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out.Set(i, j, y.values.At(i, j))
		}
	}
	return out
}

// Rows returns the values as a 0-based row-major slice of slices.
func (y *YBus) Rows() [][]complex128 {
	n := y.Size()
	rows := make([][]complex128, n)
	for i := range rows {
		rows[i] = make([]complex128, n)
		for j := range rows[i] {
			rows[i][j] = y.values.At(i, j)
		}
	}
	return rows
}

// Equal reports whether both snapshots have the same labels and bit-identical
// values. Build IDs and times are ignored.
func (y *YBus) Equal(o *YBus) bool {
	if y.Size() != o.Size() {
		return false
	}
	for i, name := range y.names {
		if o.names[i] != name {
			return false
		}
	}
	n := y.Size()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if y.values.At(i, j) != o.values.At(i, j) {
				return false
			}
		}
	}
	return true
}
