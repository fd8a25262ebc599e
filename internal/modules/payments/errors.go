package payments

import "errors"

var (
	ErrDuplicate = errors.New("payment already registered")
	ErrNotFound  = errors.New("payment not found")
)
