package circuit

import (
	"fmt"

	"github.com/edp1096/toy-ybus/pkg/device"
	"github.com/edp1096/toy-ybus/pkg/netlist"
)

// FromNetlist adds the buses of a parsed case file, then its elements, in
// file order. The first failure is returned with its line number.
func FromNetlist(data *netlist.NetlistData) (*Circuit, error) {
	name := data.Title
	if name == "" {
		name = "untitled"
	}
	ckt, err := New(name)
	if err != nil {
		return nil, err
	}

	for _, b := range data.Buses {
		if err := ckt.AddBus(b.Name, b.NominalKV); err != nil {
			return nil, fmt.Errorf("line %d: %w", b.Line, err)
		}
	}

	for _, elem := range data.Elements {
		if err := ckt.addElement(elem); err != nil {
			return nil, fmt.Errorf("line %d: %w", elem.Line, err)
		}
	}

	return ckt, nil
}

func (c *Circuit) addElement(elem netlist.Element) error {
	switch elem.Type {
	case "T", "L":
		kind := device.KindTransformer
		if elem.Type == "L" {
			kind = device.KindTransmissionLine
		}
		p := device.Params{
			R: elem.Param("r", 0),
			X: elem.Param("x", 0),
			G: elem.Param("g", 0),
			B: elem.Param("b", 0),
		}
		return c.AddBranch(kind, elem.Name, elem.Nodes[0], elem.Nodes[1], p)
	case "G":
		return c.AddGenerator(elem.Name, elem.Nodes[0], elem.Param("mw", 0), elem.Param("v", 0))
	case "P":
		return c.AddLoad(elem.Name, elem.Nodes[0], elem.Param("mw", 0), elem.Param("mvar", 0))
	default:
		return fmt.Errorf("unsupported element type: %s", elem.Type)
	}
}
