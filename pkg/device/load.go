package device

import (
	"fmt"
	"math"
	"strings"
)

// Load is a constant P/Q demand at one bus. Not stamped.
type Load struct {
	BaseDevice
	MW   float64
	MVAr float64
}

func NewLoad(name, busName string, mw, mvar float64) (*Load, error) {
	name, busName = strings.TrimSpace(name), strings.TrimSpace(busName)
	entity := KindLoad.String()

	if name == "" {
		return nil, invalid(entity, name, "name", name, "must be a non-empty string")
	}
	if busName == "" {
		return nil, invalid(entity, name, "bus", busName, "must be a non-empty string")
	}
	if math.IsNaN(mw) || math.IsInf(mw, 0) {
		return nil, invalid(entity, name, "mw", mw, "must be finite")
	}
	if math.IsNaN(mvar) || math.IsInf(mvar, 0) {
		return nil, invalid(entity, name, "mvar", mvar, "must be finite")
	}

	return &Load{
		BaseDevice: NewBaseDevice(name, []string{busName}),
		MW:         mw,
		MVAr:       mvar,
	}, nil
}

func (l *Load) GetType() string { return "P" }

func (l *Load) GetKind() Kind { return KindLoad }

func (l *Load) BusName() string { return l.NodeNames[0] }

// ApparentPower returns S = P + jQ in MVA.
func (l *Load) ApparentPower() complex128 {
	return complex(l.MW, l.MVAr)
}

func (l *Load) String() string {
	return fmt.Sprintf("load '%s' @ %s: P=%g MW, Q=%g MVAr", l.Name, l.BusName(), l.MW, l.MVAr)
}
