package device

// TransmissionLine uses the π-model: total shunt (G + jB) split equally
// between the two terminals.
type TransmissionLine struct {
	branch
}

func NewTransmissionLine(name, bus1, bus2 string, p Params) (*TransmissionLine, error) {
	l := &TransmissionLine{}
	if err := l.init(KindTransmissionLine, name, bus1, bus2, p, halfShunt); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *TransmissionLine) GetType() string { return "L" }

func halfShunt(p Params) complex128 {
	return complex(p.G/2, p.B/2)
}
