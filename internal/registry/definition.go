package registry

import (
	"context"
	"reflect"
	"strings"

	"github.com/xraph/hive/internal/access"
	"github.com/xraph/hive/internal/errors"
	"github.com/xraph/hive/internal/types"
)

// Definition describes a singleton service to add to a registry.
type Definition struct {
	// Name is used in diagnostics. Defaults to "Service" followed by the
	// declared types.
	Name string
	// Types are the types the service can be found by. Each type's hierarchy
	// is indexed too.
	Types []types.Type
	// Scope restricts which tokens can see the service. Defaults to public.
	Scope access.Scope
	// Tags declare the capabilities lifecycle handlers match on.
	Tags []types.Tag
	// Bind runs once before the first construction.
	Bind func(ctx context.Context, r ServiceRegistry) error
	// Create constructs the instance. It must not return nil.
	Create func(ctx context.Context, r ServiceRegistry) (any, error)
}

func (d Definition) displayName() string {
	if d.Name != "" {
		return d.Name
	}
	names := make([]string, len(d.Types))
	for i, t := range d.Types {
		names[i] = types.Format(t)
	}
	return "Service " + strings.Join(names, ", ")
}

// validate checks the definition and returns the erasure of each declared type.
func (d Definition) validate(inspector *types.Inspector) ([]reflect.Type, error) {
	if len(d.Types) == 0 {
		return nil, errors.ErrInvalidRegistration("service " + d.Name + " declares no types")
	}
	if d.Create == nil {
		return nil, errors.ErrInvalidRegistration(d.displayName() + ": " + errors.ErrNilCreate.Error())
	}

	erased := make([]reflect.Type, 0, len(d.Types))
	for _, t := range d.Types {
		if t.IsWildcard() {
			return nil, errors.ErrInvalidRegistration("cannot declare a service of wildcard type " + types.Format(t))
		}
		raw, err := types.Erase(t)
		if err != nil {
			return nil, errors.ErrInvalidRegistration(err.Error())
		}
		for _, h := range inspector.Hierarchy(raw) {
			if h == serviceRegistryType {
				return nil, errors.ErrInvalidRegistration(
					"cannot define a service of type ServiceRegistry: " + d.displayName())
			}
		}
		erased = append(erased, raw)
	}
	return erased, nil
}
