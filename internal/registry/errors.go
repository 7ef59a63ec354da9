package registry

import (
	"fmt"

	"github.com/corectl/corectl/internal/identity"
)

// InvalidFactoryError is returned by Register when the factory string is
// malformed or refused by the security block/allow-list.
type InvalidFactoryError struct {
	Domain  identity.Domain
	Key     string
	Factory string
	Reason  error
}

func (e *InvalidFactoryError) Error() string {
	return fmt.Sprintf("invalid factory for (%s,%s) factory=%q: %v", e.Domain, e.Key, e.Factory, e.Reason)
}

func (e *InvalidFactoryError) Unwrap() error { return e.Reason }

// InvalidIdentityError is returned by Register when domain, key, or
// provider violate the identity grammar or numeric bounds.
type InvalidIdentityError struct {
	Domain identity.Domain
	Key    string
	Reason error
}

func (e *InvalidIdentityError) Error() string {
	return fmt.Sprintf("invalid identity (%s,%s): %v", e.Domain, e.Key, e.Reason)
}

func (e *InvalidIdentityError) Unwrap() error { return e.Reason }
