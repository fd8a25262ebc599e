package apperr

type Kind string

type AppError struct {
	Kind      Kind
	PublicMsg string            // safe to show to the customer
	Fields    map[string]string // per-field form errors (optional)
	Err       error             // internal cause, logged only
}
