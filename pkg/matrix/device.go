package matrix

// DeviceMatrix is what a branch element stamps into.
type DeviceMatrix interface {
	AddComplexElement(i, j int, real, imag float64) // 1-based indexing
}
