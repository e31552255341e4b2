package circuit

import (
	"fmt"
	"time"

	"github.com/edp1096/toy-ybus/pkg/device"
	"github.com/edp1096/toy-ybus/pkg/logging"
	"github.com/edp1096/toy-ybus/pkg/matrix"
	"github.com/edp1096/toy-ybus/pkg/neterr"
)

type State int

const (
	Unbuilt State = iota
	Valid
	Stale
)

func (s State) String() string {
	switch s {
	case Unbuilt:
		return "unbuilt"
	case Valid:
		return "valid"
	case Stale:
		return "stale"
	}
	return "unknown"
}

// invalidate marks a valid build stale. Must hold the write lock.
func (c *Circuit) invalidate(reason string) {
	if c.state != Valid {
		return
	}
	c.state = Stale
	c.staleReason = reason
	logging.Debug("admittance matrix invalidated", "circuit", c.name, "reason", reason)
}

// currentState also catches branches mutated directly since the last build.
// Must hold at least the read lock.
func (c *Circuit) currentState() (State, string) {
	if c.state != Valid {
		return c.state, c.staleReason
	}
	for br, rev := range c.revisions {
		if br.Revision() != rev {
			return Stale, fmt.Sprintf("%s %s changed", br.GetKind(), br.GetName())
		}
	}
	return Valid, ""
}

func (c *Circuit) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, _ := c.currentState()
	return s
}

// Build stamps every branch into a fresh N×N matrix, N being the number of
// buses, and makes the result the current valid build.
func (c *Circuit) Build() (*YBus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.build()
}

func (c *Circuit) build() (*YBus, error) {
	start := time.Now()
	names := c.buses.Names()
	index := c.buses.Index()

	m, err := matrix.NewMatrix(len(names))
	if err != nil {
		return nil, fmt.Errorf("circuit %s: %w", c.name, err)
	}
	defer m.Destroy()

	branches := c.branches()
	revisions := make(map[device.Branch]uint64, len(branches))
	for _, br := range branches {
		terminals := br.GetNodeNames()
		br.SetNodes([]int{index[terminals[0]], index[terminals[1]]})

		// revision first: a change racing the stamp shows up as stale
		revisions[br] = br.Revision()
		if err := br.Stamp(m); err != nil {
			return nil, fmt.Errorf("circuit %s: stamping %s: %w", c.name, br.GetName(), err)
		}
		logging.Trace("stamped", "circuit", c.name, "branch", br.GetName(), "nodes", br.GetNodes())
	}
	if err := m.Err(); err != nil {
		return nil, fmt.Errorf("circuit %s: %w", c.name, err)
	}

	y := newYBus(c.name, names, index, m.Dense())
	c.ybus = y
	c.revisions = revisions
	c.state = Valid
	c.staleReason = ""

	logging.Debug("admittance matrix built", "circuit", c.name, "id", y.ID.String(),
		"buses", len(names), "branches", len(branches), "elapsed", time.Since(start))
	return y, nil
}

// YBus returns the last build. It fails with ErrNotBuilt before the first
// build and with ErrStale once a mutation has invalidated it.
func (c *Circuit) YBus() (*YBus, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch s, reason := c.currentState(); s {
	case Unbuilt:
		return nil, neterr.NotBuilt(c.name)
	case Stale:
		return nil, neterr.Stale(c.name, reason)
	}
	return c.ybus, nil
}

// Ensure returns the last build, rebuilding first when it is missing or stale.
func (c *Circuit) Ensure() (*YBus, error) {
	if y, err := c.YBus(); err == nil {
		return y, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if s, _ := c.currentState(); s == Valid {
		return c.ybus, nil
	}
	return c.build()
}
