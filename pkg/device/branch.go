package device

import (
	"fmt"
	"strings"
	"sync"

	"github.com/edp1096/toy-ybus/pkg/matrix"
	"github.com/edp1096/toy-ybus/pkg/neterr"
)

// shuntFunc gives the shunt admittance added to each diagonal entry.
type shuntFunc func(p Params) complex128

// branch holds what transformers and transmission lines share. The primitive
// matrix is recomputed on every committed parameter change and never
// observable out of step with params.
type branch struct {
	BaseDevice
	kind      Kind
	mu        sync.RWMutex
	params    Params
	primitive Primitive
	revision  uint64
	shunt     shuntFunc
}

func (b *branch) init(kind Kind, name, bus1, bus2 string, p Params, shunt shuntFunc) error {
	entity := kind.String()
	name = strings.TrimSpace(name)
	bus1 = strings.TrimSpace(bus1)
	bus2 = strings.TrimSpace(bus2)

	if name == "" {
		return invalid(entity, name, "name", name, "must be a non-empty string")
	}
	if bus1 == "" {
		return invalid(entity, name, "bus1", bus1, "must be a non-empty string")
	}
	if bus2 == "" {
		return invalid(entity, name, "bus2", bus2, "must be a non-empty string")
	}
	if bus1 == bus2 {
		return invalid(entity, name, "bus2", bus2, "terminals must be different buses")
	}
	if err := checkParams(entity, name, p); err != nil {
		return err
	}

	b.BaseDevice = NewBaseDevice(name, []string{bus1, bus2})
	b.kind = kind
	b.shunt = shunt
	b.params = p
	b.recompute()
	return nil
}

func (b *branch) recompute() {
	b.primitive = newPrimitive(b.NodeNames[0], b.NodeNames[1], b.params.SeriesAdmittance(), b.shunt(b.params))
}

func (b *branch) GetKind() Kind { return b.kind }

func (b *branch) Bus1() string { return b.NodeNames[0] }

func (b *branch) Bus2() string { return b.NodeNames[1] }

func (b *branch) GetNodes() []int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	nodes := make([]int, len(b.Nodes))
	copy(nodes, b.Nodes)
	return nodes
}

func (b *branch) SetNodes(nodes []int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Nodes = append(b.Nodes[:0], nodes...)
}

func (b *branch) Params() Params {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.params
}

// SetParams validates p entirely, then commits and recomputes. A rejected
// update leaves the element untouched.
func (b *branch) SetParams(p Params) error {
	return b.update(func(cur *Params) { *cur = p })
}

func (b *branch) SetR(r float64) error { return b.update(func(p *Params) { p.R = r }) }
func (b *branch) SetX(x float64) error { return b.update(func(p *Params) { p.X = x }) }
func (b *branch) SetG(g float64) error { return b.update(func(p *Params) { p.G = g }) }
func (b *branch) SetB(v float64) error { return b.update(func(p *Params) { p.B = v }) }

func (b *branch) update(change func(p *Params)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	p := b.params
	change(&p)
	if err := checkParams(b.kind.String(), b.Name, p); err != nil {
		return err
	}
	b.params = p
	b.recompute()
	b.revision++
	return nil
}

// Revision counts committed parameter changes.
func (b *branch) Revision() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.revision
}

func (b *branch) Admittance() Primitive {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.primitive
}

func (b *branch) Stamp(m matrix.DeviceMatrix) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.Nodes) != 2 {
		return fmt.Errorf("%s %s: requires exactly 2 nodes", b.kind, b.Name)
	}
	n1, n2 := b.Nodes[0], b.Nodes[1]
	if n1 <= 0 || n2 <= 0 {
		return fmt.Errorf("%s %s: nodes not assigned", b.kind, b.Name)
	}

	y := b.primitive.Y
	m.AddComplexElement(n1, n1, real(y[0][0]), imag(y[0][0]))
	m.AddComplexElement(n1, n2, real(y[0][1]), imag(y[0][1]))
	m.AddComplexElement(n2, n1, real(y[1][0]), imag(y[1][0]))
	m.AddComplexElement(n2, n2, real(y[1][1]), imag(y[1][1]))

	return nil
}

func (b *branch) String() string {
	p := b.Params()
	return fmt.Sprintf("%s '%s': %s <-> %s, %s", b.kind, b.Name, b.NodeNames[0], b.NodeNames[1], p)
}

func invalid(entity, name, field string, value any, reason string) error {
	return neterr.InvalidParameter(entity, name, field, value, reason)
}
