package consts

const (
	BusIndexBase = 1    // First bus position. Matches the 1-based rows of the sparse matrix
	KiloVolt     = 1e3  // kV -> V
	MegaWatt     = 1e6  // MW -> W
)
