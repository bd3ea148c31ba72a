package crypto

// Zero overwrites a byte slice in memory with zeros. Derived keys are
// zeroed as soon as the operation that needed them completes.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
