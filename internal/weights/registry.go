package weights

import "sync"

// Registry holds one Distributor per loan type, created lazily from the
// presets. The risk lab adjusts weights per loan product independently.
type Registry struct {
	mu     sync.Mutex
	byType map[LoanType]*Distributor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byType: make(map[LoanType]*Distributor)}
}

// Get returns the distributor for lt, initializing it from the preset on
// first use.
func (r *Registry) Get(lt LoanType) (*Distributor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.byType[lt]; ok {
		return d, nil
	}
	d, err := New(lt)
	if err != nil {
		return nil, err
	}
	r.byType[lt] = d
	return d, nil
}
