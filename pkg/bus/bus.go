package bus

import (
	"math"
	"math/cmplx"
	"strings"

	"github.com/edp1096/toy-ybus/internal/consts"
	"github.com/edp1096/toy-ybus/pkg/neterr"
)

// Bus is a network node at which voltage is defined.
type Bus struct {
	name      string
	index     int
	nominalKV float64
	voltage   complex128
}

func (b *Bus) Name() string { return b.name }

// Index is the position assigned by the owning Registry.
func (b *Bus) Index() int { return b.index }

func (b *Bus) NominalKV() float64 { return b.nominalKV }

// Voltage starts at the nominal value and is changed only through
// Registry.SetVoltage.
func (b *Bus) Voltage() complex128 { return b.voltage }

func (b *Bus) VoltageMagnitude() float64 { return cmplx.Abs(b.voltage) }

// Registry keeps buses in insertion order and hands out positions from its
// own counter, starting at consts.BusIndexBase. Positions are never reused.
type Registry struct {
	buses  []*Bus
	byName map[string]*Bus
	next   int
}

func NewRegistry() *Registry {
	return &Registry{
		buses:  make([]*Bus, 0),
		byName: make(map[string]*Bus),
		next:   consts.BusIndexBase,
	}
}

func (r *Registry) Add(name string, nominalKV float64) (*Bus, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, neterr.InvalidParameter("bus", name, "name", name, "must be a non-empty string")
	}
	if math.IsNaN(nominalKV) || math.IsInf(nominalKV, 0) || nominalKV < 0 {
		return nil, neterr.InvalidParameter("bus", name, "nominal_kv", nominalKV, "must be a finite non-negative number")
	}
	if _, exists := r.byName[name]; exists {
		return nil, neterr.DuplicateName("bus", name)
	}

	b := &Bus{
		name:      name,
		index:     r.next,
		nominalKV: nominalKV,
		voltage:   complex(nominalKV, 0),
	}
	r.next++

	r.buses = append(r.buses, b)
	r.byName[name] = b
	return b, nil
}

func (r *Registry) Get(name string) (*Bus, bool) {
	b, ok := r.byName[name]
	return b, ok
}

func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

func (r *Registry) PositionOf(name string) (int, error) {
	b, ok := r.byName[name]
	if !ok {
		return 0, &neterr.Error{Kind: neterr.ErrUnknownBus, Entity: "bus", Name: name, Reason: "not in registry"}
	}
	return b.index, nil
}

// SetVoltage is the solver-facing setter for a bus voltage phasor.
func (r *Registry) SetVoltage(name string, v complex128) error {
	b, ok := r.byName[name]
	if !ok {
		return &neterr.Error{Kind: neterr.ErrUnknownBus, Entity: "bus", Name: name, Reason: "not in registry"}
	}
	if cmplx.IsNaN(v) || cmplx.IsInf(v) {
		return neterr.InvalidParameter("bus", name, "voltage", v, "must be finite")
	}
	b.voltage = v
	return nil
}

func (r *Registry) Len() int {
	return len(r.buses)
}

// Buses returns the buses in insertion order.
func (r *Registry) Buses() []*Bus {
	out := make([]*Bus, len(r.buses))
	copy(out, r.buses)
	return out
}

func (r *Registry) Names() []string {
	names := make([]string, len(r.buses))
	for i, b := range r.buses {
		names[i] = b.name
	}
	return names
}

// Index returns a fresh name -> position map.
func (r *Registry) Index() map[string]int {
	idx := make(map[string]int, len(r.buses))
	for _, b := range r.buses {
		idx[b.name] = b.index
	}
	return idx
}
