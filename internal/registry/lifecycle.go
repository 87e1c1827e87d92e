package registry

import (
	"context"
	"reflect"

	"github.com/xraph/hive/internal/types"
)

// LifecycleHandler observes the registration of services carrying the tags
// it is interested in. A handler becomes active once it is realized, which
// happens during Add for any definition declaring this type.
type LifecycleHandler interface {
	// Tags lists the tags the handler wants to be notified about.
	Tags() []types.Tag
	// WhenRegistered is called once per matching service, whether the service
	// was registered before or after the handler. ctx carries the lookup
	// chain of the notification and must be passed to reg.Instance so a
	// service that depends on the handler fails with a cycle error.
	WhenRegistered(ctx context.Context, tag types.Tag, reg Registration)
}

// ImplicitTagger is implemented by handlers that want to observe every
// service. The returned tag is passed to WhenRegistered.
type ImplicitTagger interface {
	ImplicitTag() types.Tag
}

// Registration is the handle passed to lifecycle handlers.
type Registration interface {
	DisplayName() string
	DeclaredTypes() []types.Type
	Instance(ctx context.Context) (any, error)
}

// Stoppable is implemented by service instances that need to release
// resources when their registry closes. Instances implementing io.Closer are
// closed instead when they do not implement Stoppable.
type Stoppable interface {
	Stop(ctx context.Context) error
}

var lifecycleHandlerType = reflect.TypeFor[LifecycleHandler]()

// notify delivers reg to h if reg matches the handler's interest.
func notify(ctx context.Context, h LifecycleHandler, reg *singletonProvider) {
	if tagger, ok := h.(ImplicitTagger); ok {
		if tag := tagger.ImplicitTag(); tag != "" {
			h.WhenRegistered(ctx, tag, reg)
			return
		}
	}
	for _, tag := range h.Tags() {
		if reg.hasTag(tag) {
			h.WhenRegistered(ctx, tag, reg)
		}
	}
}
