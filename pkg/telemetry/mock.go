package telemetry

import "sync"

var _ Source = &Mock{}

// Mock is an in-memory Source. Unset properties read as unavailable.
type Mock struct {
	mu     sync.Mutex
	values map[Property]int
	errs   map[Property]error
	reads  int
}

// NewMock returns a mocked Source with prefill values.
func NewMock(prefillValues map[Property]int) *Mock {
	m := &Mock{
		values: make(map[Property]int),
		errs:   make(map[Property]error),
	}
	for p, v := range prefillValues {
		m.values[p] = v
	}
	return m
}

// Set sets a property value and clears any injected error for it.
func (m *Mock) Set(p Property, v int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[p] = v
	delete(m.errs, p)
}

// SetError makes reads of p fail with err.
func (m *Mock) SetError(p Property, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.errs[p] = err
}

// Reads returns the number of IntProperty calls so far.
func (m *Mock) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.reads
}

// IntProperty implements Source.
func (m *Mock) IntProperty(p Property) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reads++

	if err, ok := m.errs[p]; ok {
		return 0, unavailable(p, err)
	}
	v, ok := m.values[p]
	if !ok {
		return 0, unavailable(p, nil)
	}
	return v, nil
}
