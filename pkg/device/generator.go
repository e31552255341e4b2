package device

import (
	"fmt"
	"math"
	"strings"
)

// Generator takes part in bus bookkeeping only; it is not stamped.
type Generator struct {
	BaseDevice
	MWSetpoint float64
	VSetpoint  float64 // per unit, 0 when unset
}

func NewGenerator(name, busName string, mwSetpoint, vSetpoint float64) (*Generator, error) {
	name, busName = strings.TrimSpace(name), strings.TrimSpace(busName)
	entity := KindGenerator.String()

	if name == "" {
		return nil, invalid(entity, name, "name", name, "must be a non-empty string")
	}
	if busName == "" {
		return nil, invalid(entity, name, "bus", busName, "must be a non-empty string")
	}
	if math.IsNaN(mwSetpoint) || math.IsInf(mwSetpoint, 0) {
		return nil, invalid(entity, name, "mw_setpoint", mwSetpoint, "must be finite")
	}
	if math.IsNaN(vSetpoint) || math.IsInf(vSetpoint, 0) || vSetpoint < 0 {
		return nil, invalid(entity, name, "v_setpoint", vSetpoint, "must be a finite non-negative number")
	}

	return &Generator{
		BaseDevice: NewBaseDevice(name, []string{busName}),
		MWSetpoint: mwSetpoint,
		VSetpoint:  vSetpoint,
	}, nil
}

func (g *Generator) GetType() string { return "G" }

func (g *Generator) GetKind() Kind { return KindGenerator }

func (g *Generator) BusName() string { return g.NodeNames[0] }

func (g *Generator) String() string {
	return fmt.Sprintf("generator '%s' @ %s: P=%g MW, V=%g pu", g.Name, g.BusName(), g.MWSetpoint, g.VSetpoint)
}
