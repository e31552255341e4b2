package device

// Transformer is modeled as a series impedance with an optional lumped shunt
// (G + jB) applied in full at both terminals.
type Transformer struct {
	branch
}

func NewTransformer(name, bus1, bus2 string, p Params) (*Transformer, error) {
	t := &Transformer{}
	if err := t.init(KindTransformer, name, bus1, bus2, p, lumpedShunt); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Transformer) GetType() string { return "T" }

func lumpedShunt(p Params) complex128 {
	return complex(p.G, p.B)
}
