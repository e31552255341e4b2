package circuit

import (
	"fmt"
	"strings"
	"sync"

	"github.com/edp1096/toy-ybus/pkg/bus"
	"github.com/edp1096/toy-ybus/pkg/device"
	"github.com/edp1096/toy-ybus/pkg/logging"
	"github.com/edp1096/toy-ybus/pkg/neterr"
)

// Circuit owns the buses and elements of one network and the admittance
// matrix built from them.
//
// Every mutating call takes the write lock; reads take the read lock. The
// matrix is never served once the elements it was built from have changed.
type Circuit struct {
	name string
	mu   sync.RWMutex

	buses        *bus.Registry
	transformers *collection[*device.Transformer]
	lines        *collection[*device.TransmissionLine]
	generators   *collection[*device.Generator]
	loads        *collection[*device.Load]

	state       State
	staleReason string
	ybus        *YBus
	revisions   map[device.Branch]uint64 // branch revisions at last build
}

func New(name string) (*Circuit, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, neterr.InvalidParameter("circuit", name, "name", name, "must be a non-empty string")
	}

	return &Circuit{
		name:         trimmed,
		buses:        bus.NewRegistry(),
		transformers: newCollection[*device.Transformer](),
		lines:        newCollection[*device.TransmissionLine](),
		generators:   newCollection[*device.Generator](),
		loads:        newCollection[*device.Load](),
		state:        Unbuilt,
	}, nil
}

func (c *Circuit) Name() string {
	return c.name
}

func (c *Circuit) AddBus(name string, nominalKV float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, err := c.buses.Add(name, nominalKV)
	if err != nil {
		return err
	}
	logging.Debug("bus added", "circuit", c.name, "bus", b.Name(), "index", b.Index(), "kv", nominalKV)
	c.invalidate("bus " + b.Name() + " added")
	return nil
}

func (c *Circuit) AddTransformer(name, bus1, bus2 string, p device.Params) error {
	return c.AddBranch(device.KindTransformer, name, bus1, bus2, p)
}

func (c *Circuit) AddTransmissionLine(name, bus1, bus2 string, p device.Params) error {
	return c.AddBranch(device.KindTransmissionLine, name, bus1, bus2, p)
}

// AddBranch checks, in order, name uniqueness within the kind's collection,
// existence of both terminal buses and the element's own parameters. Nothing
// is stored unless all checks pass.
func (c *Circuit) AddBranch(kind device.Kind, name, bus1, bus2 string, p device.Params) error {
	if !kind.IsBranch() {
		return neterr.InvalidParameter("branch", name, "kind", kind.String(), "not a branch element")
	}
	name, bus1, bus2 = strings.TrimSpace(name), strings.TrimSpace(bus1), strings.TrimSpace(bus2)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hasBranch(kind, name) {
		return neterr.DuplicateName(kind.String(), name)
	}
	if err := c.checkBuses(kind.String(), name, bus1, bus2); err != nil {
		return err
	}

	switch kind {
	case device.KindTransformer:
		t, err := device.NewTransformer(name, bus1, bus2, p)
		if err != nil {
			return err
		}
		c.transformers.add(t)
	case device.KindTransmissionLine:
		l, err := device.NewTransmissionLine(name, bus1, bus2, p)
		if err != nil {
			return err
		}
		c.lines.add(l)
	}

	logging.Debug("branch added", "circuit", c.name, "kind", kind.String(), "name", name, "bus1", bus1, "bus2", bus2, "params", p.String())
	c.invalidate(kind.String() + " " + name + " added")
	return nil
}

func (c *Circuit) AddGenerator(name, busName string, mwSetpoint, vSetpoint float64) error {
	name, busName = strings.TrimSpace(name), strings.TrimSpace(busName)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generators.has(name) {
		return neterr.DuplicateName(device.KindGenerator.String(), name)
	}
	if err := c.checkBuses(device.KindGenerator.String(), name, busName); err != nil {
		return err
	}
	g, err := device.NewGenerator(name, busName, mwSetpoint, vSetpoint)
	if err != nil {
		return err
	}
	c.generators.add(g)
	return nil
}

func (c *Circuit) AddLoad(name, busName string, mw, mvar float64) error {
	name, busName = strings.TrimSpace(name), strings.TrimSpace(busName)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loads.has(name) {
		return neterr.DuplicateName(device.KindLoad.String(), name)
	}
	if err := c.checkBuses(device.KindLoad.String(), name, busName); err != nil {
		return err
	}
	l, err := device.NewLoad(name, busName, mw, mvar)
	if err != nil {
		return err
	}
	c.loads.add(l)
	return nil
}

// UpdateBranch replaces the parameters of an existing branch. A rejected
// update leaves both the branch and the built matrix untouched.
func (c *Circuit) UpdateBranch(kind device.Kind, name string, p device.Params) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	br, ok := c.branch(kind, name)
	if !ok {
		return &neterr.Error{Kind: neterr.ErrInvalidParameter, Entity: kind.String(), Name: name, Reason: "no such element"}
	}
	if err := br.SetParams(p); err != nil {
		return err
	}
	c.invalidate(kind.String() + " " + name + " updated")
	return nil
}

// SetBusVoltage is the solver-facing voltage setter.
func (c *Circuit) SetBusVoltage(name string, v complex128) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buses.SetVoltage(name, v)
}

func (c *Circuit) checkBuses(entity, name string, busNames ...string) error {
	for _, b := range busNames {
		if !c.buses.Has(b) {
			return neterr.UnknownBus(entity, name, b)
		}
	}
	return nil
}

func (c *Circuit) hasBranch(kind device.Kind, name string) bool {
	switch kind {
	case device.KindTransformer:
		return c.transformers.has(name)
	case device.KindTransmissionLine:
		return c.lines.has(name)
	}
	return false
}

func (c *Circuit) branch(kind device.Kind, name string) (device.Branch, bool) {
	switch kind {
	case device.KindTransformer:
		if t, ok := c.transformers.get(name); ok {
			return t, true
		}
	case device.KindTransmissionLine:
		if l, ok := c.lines.get(name); ok {
			return l, true
		}
	}
	return nil, false
}

// branches lists transformers then transmission lines, each in insertion order.
func (c *Circuit) branches() []device.Branch {
	out := make([]device.Branch, 0, c.transformers.len()+c.lines.len())
	for _, t := range c.transformers.list() {
		out = append(out, t)
	}
	for _, l := range c.lines.list() {
		out = append(out, l)
	}
	return out
}

// Branch returns the element itself. Changing its parameters directly is
// allowed and invalidates the built matrix like UpdateBranch does.
func (c *Circuit) Branch(kind device.Kind, name string) (device.Branch, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.branch(kind, name)
}

func (c *Circuit) Branches() []device.Branch {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.branches()
}

func (c *Circuit) Bus(name string) (*bus.Bus, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.buses.Get(name)
}

// Buses returns the buses in insertion order.
func (c *Circuit) Buses() []*bus.Bus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.buses.Buses()
}

// BusIndex returns the current bus name -> position map.
func (c *Circuit) BusIndex() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.buses.Index()
}

func (c *Circuit) Transformers() []*device.Transformer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.transformers.list()
}

func (c *Circuit) TransmissionLines() []*device.TransmissionLine {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lines.list()
}

func (c *Circuit) Generators() []*device.Generator {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generators.list()
}

func (c *Circuit) Loads() []*device.Load {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loads.list()
}

func (c *Circuit) String() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fmt.Sprintf("Circuit '%s': %d buses, %d transformers, %d transmission lines, %d generators, %d loads",
		c.name, c.buses.Len(), c.transformers.len(), c.lines.len(), c.generators.len(), c.loads.len())
}
