package gateways

import "sync"

// ErrorLog collects user-facing gateway errors over one request
// interaction. Embed it in a gateway implementation to satisfy the
// HasErrors/Errors half of the contract.
type ErrorLog struct {
	mu   sync.Mutex
	errs []string
}

func (e *ErrorLog) AddError(msg string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errs = append(e.errs, msg)
}

func (e *ErrorLog) HasErrors() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.errs) > 0
}

func (e *ErrorLog) Errors() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.errs))
	copy(out, e.errs)
	return out
}
