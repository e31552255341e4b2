package matrix

import (
	"fmt"

	"github.com/edp1096/sparse"
	"gonum.org/v1/gonum/mat"
)

// CircuitMatrix accumulates complex admittances for an N-bus network.
type CircuitMatrix struct {
	Size   int
	matrix *sparse.Matrix
	config *sparse.Configuration
	err    error
}

func NewMatrix(size int) (*CircuitMatrix, error) {
	if size < 0 {
		return nil, fmt.Errorf("invalid matrix size %d", size)
	}

	config := &sparse.Configuration{
		Real:                    true,
		Complex:                 true,
		SeparatedComplexVectors: false,
		Expandable:              true,
		Translate:               false,
		ModifiedNodal:           false,
		TiesMultiplier:          5,
		PrinterWidth:            140,
		Annotate:                0,
	}

	m := &CircuitMatrix{Size: size, config: config}
	if size == 0 {
		return m, nil
	}

	sm, err := sparse.Create(int64(size), config)
	if err != nil {
		return nil, fmt.Errorf("creating sparse matrix: %v", err)
	}
	m.matrix = sm

	return m, nil
}

func (m *CircuitMatrix) AddComplexElement(i, j int, real, imag float64) {
	if m.matrix == nil || i <= 0 || j <= 0 || i > m.Size || j > m.Size {
		if m.err == nil {
			m.err = fmt.Errorf("matrix index out of bounds (i=%d, j=%d, size=%d)", i, j, m.Size)
		}
		return
	}

	element := m.matrix.GetElement(int64(i), int64(j))
	element.Real += real
	element.Imag += imag
}

// Err reports the first out-of-bounds stamp, if any.
func (m *CircuitMatrix) Err() error {
	return m.err
}

func (m *CircuitMatrix) Value(i, j int) complex128 {
	if m.matrix == nil || i <= 0 || j <= 0 || i > m.Size || j > m.Size {
		return 0
	}
	element := m.matrix.GetElement(int64(i), int64(j))
	return complex(element.Real, element.Imag)
}

// Dense copies the accumulated values into a 0-based dense matrix.
// A 0x0 matrix has no dense form and yields nil.
func (m *CircuitMatrix) Dense() *mat.CDense {
	if m.Size == 0 {
		return nil
	}

	dense := mat.NewCDense(m.Size, m.Size, nil)
	for i := 1; i <= m.Size; i++ {
		for j := 1; j <= m.Size; j++ {
			dense.Set(i-1, j-1, m.Value(i, j))
		}
	}
	return dense
}

func (m *CircuitMatrix) Clear() {
	if m.matrix != nil {
		m.matrix.Clear()
	}
	m.err = nil
}

func (m *CircuitMatrix) Destroy() {
	if m.matrix != nil {
		m.matrix.Destroy()
		m.matrix = nil
	}
}
