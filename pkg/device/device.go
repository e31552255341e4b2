package device

import (
	"github.com/edp1096/toy-ybus/pkg/matrix"
)

type Device interface {
	GetName() string
	GetType() string
	GetKind() Kind
	GetNodeNames() []string
}

// Branch is a two-terminal element that contributes to the admittance matrix.
type Branch interface {
	Device
	GetNodes() []int
	SetNodes(nodes []int)
	Stamp(matrix matrix.DeviceMatrix) error
	Admittance() Primitive
	Params() Params
	SetParams(p Params) error
	Revision() uint64
}

type Kind int

const (
	KindTransformer Kind = iota
	KindTransmissionLine
	KindGenerator
	KindLoad
)

func (k Kind) String() string {
	switch k {
	case KindTransformer:
		return "transformer"
	case KindTransmissionLine:
		return "transmission line"
	case KindGenerator:
		return "generator"
	case KindLoad:
		return "load"
	default:
		return "unknown"
	}
}

// IsBranch reports whether elements of this kind are stamped.
func (k Kind) IsBranch() bool {
	return k == KindTransformer || k == KindTransmissionLine
}

type BaseDevice struct {
	Name      string
	Nodes     []int
	NodeNames []string
}

func (d *BaseDevice) GetName() string {
	return d.Name
}

func (d *BaseDevice) GetNodeNames() []string {
	names := make([]string, len(d.NodeNames))
	copy(names, d.NodeNames)
	return names
}

func NewBaseDevice(name string, nodeNames []string) BaseDevice {
	return BaseDevice{
		Name:      name,
		NodeNames: nodeNames,
		Nodes:     make([]int, len(nodeNames)),
	}
}
