package registry

import "context"

type bindingKey struct{}

// bindingFrame is one provider on the chain of providers currently binding
// or constructing within a single logical call.
type bindingFrame struct {
	provider *singletonProvider
	parent   *bindingFrame
}

// withBinding returns a context recording p as the innermost provider of the
// binding chain.
func withBinding(ctx context.Context, p *singletonProvider) context.Context {
	parent, _ := ctx.Value(bindingKey{}).(*bindingFrame)
	return context.WithValue(ctx, bindingKey{}, &bindingFrame{provider: p, parent: parent})
}

// innermost returns the provider currently binding or constructing on ctx's
// chain, or nil.
func innermost(ctx context.Context) *singletonProvider {
	frame, _ := ctx.Value(bindingKey{}).(*bindingFrame)
	if frame == nil {
		return nil
	}
	return frame.provider
}

// onChain reports whether p is already binding or constructing on ctx's chain.
func onChain(ctx context.Context, p *singletonProvider) bool {
	for frame, _ := ctx.Value(bindingKey{}).(*bindingFrame); frame != nil; frame = frame.parent {
		if frame.provider == p {
			return true
		}
	}
	return false
}

// chainNames lists the display names on ctx's chain, outermost first.
func chainNames(ctx context.Context) []string {
	var names []string
	for frame, _ := ctx.Value(bindingKey{}).(*bindingFrame); frame != nil; frame = frame.parent {
		names = append(names, frame.provider.displayName)
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return names
}
