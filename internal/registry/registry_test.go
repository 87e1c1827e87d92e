package registry

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/hive/internal/access"
	"github.com/xraph/hive/internal/errors"
	"github.com/xraph/hive/internal/types"
)

func TestRegistry_SingletonConstructedOnce(t *testing.T) {
	ctx := context.Background()
	r := New("build services")

	var calls atomic.Int32
	require.NoError(t, r.Add(Definition{
		Types: []types.Type{types.Of[Greeter]()},
		Create: func(context.Context, ServiceRegistry) (any, error) {
			calls.Add(1)
			return greeting("hi"), nil
		},
	}))

	first, err := r.Get(ctx, types.Of[Greeter]())
	require.NoError(t, err)
	second, err := r.Get(ctx, types.Of[Greeter]())
	require.NoError(t, err)

	assert.Equal(t, "hi", first.(Greeter).Greet())
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRegistry_ConcurrentLookupsConstructOnce(t *testing.T) {
	ctx := context.Background()
	r := New("concurrent")

	var calls atomic.Int32
	require.NoError(t, r.Add(Definition{
		Types: []types.Type{types.Of[Greeter]()},
		Create: func(context.Context, ServiceRegistry) (any, error) {
			calls.Add(1)
			return &stoppable{name: "shared"}, nil
		},
	}))

	var wg sync.WaitGroup
	results := make([]any, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := r.Get(ctx, types.Of[Greeter]())
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Same(t, results[0], v)
	}
}

func TestRegistry_FindAbsent(t *testing.T) {
	ctx := context.Background()
	r := New("empty")

	v, err := r.Find(ctx, types.Of[Greeter](), nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = r.Get(ctx, types.Of[Greeter]())
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Contains(t, err.Error(), "registry.Greeter")
	assert.Contains(t, err.Error(), "empty")
}

func TestRegistry_AmbiguousLookup(t *testing.T) {
	ctx := context.Background()
	r := New("build services")
	require.NoError(t, r.Add(greeterDef("zulu", greeting("z"))))
	require.NoError(t, r.Add(greeterDef("alpha", greeting("a"))))
	require.NoError(t, r.Add(greeterDef("mike", greeting("m"))))

	for range 3 {
		_, err := r.Get(ctx, types.Of[Greeter]())
		require.Error(t, err)
		assert.True(t, errors.IsAmbiguous(err))
		assert.Equal(t,
			"Multiple services of type registry.Greeter available in build services:\n"+
				"   - alpha\n   - mike\n   - zulu",
			err.Error())
	}
}

func TestRegistry_ScopeFiltersCandidates(t *testing.T) {
	ctx := context.Background()
	owner := access.NewToken("owner")
	r := New("scoped")

	require.NoError(t, r.Add(greeterDef("public", greeting("public"))))
	private := greeterDef("private", greeting("private"))
	private.Scope = access.Private(owner)
	require.NoError(t, r.Add(private))

	v, err := r.Get(ctx, types.Of[Greeter]())
	require.NoError(t, err)
	assert.Equal(t, greeting("public"), v)

	_, err = r.Find(ctx, types.Of[Greeter](), owner)
	assert.True(t, errors.IsAmbiguous(err))

	other := New("private only")
	require.NoError(t, other.Add(private))
	v, err = other.Find(ctx, types.Of[Greeter](), nil)
	require.NoError(t, err)
	assert.Nil(t, v)
	v, err = other.Find(ctx, types.Of[Greeter](), owner)
	require.NoError(t, err)
	assert.Equal(t, greeting("private"), v)
}

func TestRegistry_HierarchyPropagation(t *testing.T) {
	ctx := context.Background()
	r := New("hierarchy")
	svc := &politeService{Greeter: greeting("hello")}
	require.NoError(t, r.Add(Definition{
		Types:  []types.Type{types.Of[*politeService]()},
		Create: value(svc),
	}))

	byClass, err := r.Get(ctx, types.Of[*politeService]())
	require.NoError(t, err)
	byInterface, err := r.Get(ctx, types.Of[Greeter]())
	require.NoError(t, err)

	assert.Same(t, svc, byClass)
	assert.Same(t, svc, byInterface)
}

func TestRegistry_DeclaredSupertypes(t *testing.T) {
	ctx := context.Background()
	inspector := types.NewInspector()
	require.NoError(t, inspector.DeclareSupertypes(reflect.TypeFor[greeting](), reflect.TypeFor[Greeter]()))

	r := New("declared", WithInspector(inspector))
	require.NoError(t, r.Add(Definition{
		Types:  []types.Type{types.Of[greeting]()},
		Create: value(greeting("declared")),
	}))

	v, err := r.Get(ctx, types.Of[Greeter]())
	require.NoError(t, err)
	assert.Equal(t, greeting("declared"), v)
}

func TestRegistry_RejectsReservedType(t *testing.T) {
	r := New("reserved")

	err := r.Add(Definition{
		Types:  []types.Type{types.Of[ServiceRegistry]()},
		Create: value(r),
	})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRegistration(err))

	type wrapper struct{ ServiceRegistry }
	err = r.Add(Definition{
		Types:  []types.Type{types.Of[*wrapper]()},
		Create: value(&wrapper{r}),
	})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRegistration(err))
	assert.Empty(t, r.Inspect())
}

func TestRegistry_RejectsInvalidDefinitions(t *testing.T) {
	r := New("invalid")

	tests := []struct {
		name string
		def  Definition
	}{
		{"no types", Definition{Create: value(greeting("x"))}},
		{"no create", Definition{Types: []types.Type{types.Of[Greeter]()}}},
		{"wildcard", Definition{Types: []types.Type{types.Wildcard()}, Create: value(greeting("x"))}},
		{"subtype", Definition{Types: []types.Type{types.Subtype(types.Of[Greeter]())}, Create: value(greeting("x"))}},
		{"zero type", Definition{Types: []types.Type{{}}, Create: value(greeting("x"))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Add(tt.def)
			require.Error(t, err)
			assert.True(t, errors.IsInvalidRegistration(err))
		})
	}
}

func TestRegistry_ResolvesItself(t *testing.T) {
	ctx := context.Background()
	r := New("self")

	v, err := r.Get(ctx, types.Of[ServiceRegistry]())
	require.NoError(t, err)
	assert.Same(t, r, v)

	var visited []string
	require.NoError(t, r.GetAll(ctx, serviceRegistryType, nil, func(svc Service) {
		visited = append(visited, svc.DisplayName())
	}))
	assert.Equal(t, []string{"self"}, visited)
}

func TestRegistry_InvalidLookupTypes(t *testing.T) {
	ctx := context.Background()
	r := New("lookup")

	for _, typ := range []types.Type{types.Wildcard(), types.Supertype(types.Of[Greeter]()), {}} {
		_, err := r.Find(ctx, typ, nil)
		require.Error(t, err)
		assert.True(t, errors.IsInvalidType(err), typ.String())
	}
}

func TestRegistry_SubtypeLookup(t *testing.T) {
	ctx := context.Background()
	r := New("subtype")
	require.NoError(t, r.Add(greeterDef("greeter", greeting("hi"))))

	v, err := r.Get(ctx, types.Subtype(types.Of[Greeter]()))
	require.NoError(t, err)
	assert.Equal(t, greeting("hi"), v)
}

func TestRegistry_ParameterizedLookup(t *testing.T) {
	ctx := context.Background()
	r := New("factories")

	greeters := factoryOf{value: greeting("g")}
	politeness := factoryOf{value: &politeService{}}
	require.NoError(t, r.Add(Definition{
		Name:   "greeter factory",
		Types:  []types.Type{types.Parameterized(factoryType, types.Of[Greeter]())},
		Create: value(greeters),
	}))
	require.NoError(t, r.Add(Definition{
		Name:   "polite factory",
		Types:  []types.Type{types.Parameterized(factoryType, types.Of[*politeService]())},
		Create: value(politeness),
	}))

	v, err := r.Get(ctx, types.Parameterized(factoryType, types.Of[Greeter]()))
	require.NoError(t, err)
	assert.Equal(t, greeters, v)

	v, err = r.Get(ctx, types.Parameterized(factoryType, types.Of[*politeService]()))
	require.NoError(t, err)
	assert.Equal(t, politeness, v)

	_, err = r.Get(ctx, types.Parameterized(factoryType, types.Subtype(types.Of[Greeter]())))
	assert.True(t, errors.IsAmbiguous(err))

	_, err = r.Get(ctx, types.Of[Factory]())
	assert.True(t, errors.IsAmbiguous(err))

	v, err = r.Get(ctx, types.Parameterized(factoryType, types.Supertype(types.Of[Greeter]())))
	require.NoError(t, err)
	assert.Equal(t, greeters, v)
}

func TestRegistry_ConcurrentRegistration(t *testing.T) {
	ctx := context.Background()
	r := New("concurrent registration")
	const n = 64

	argOf := func(i int) types.Type {
		return types.For(reflect.ArrayOf(i, reflect.TypeFor[byte]()))
	}

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, r.Add(Definition{
				Name:   fmt.Sprintf("factory-%02d", i),
				Types:  []types.Type{types.Parameterized(factoryType, argOf(i))},
				Create: value(factoryOf{value: i}),
			}))
		}(i)
	}
	wg.Wait()

	assert.Len(t, r.own.services(), n)
	assert.Len(t, r.own.providers(factoryType), n)
	for i := range n {
		v, err := r.Get(ctx, types.Parameterized(factoryType, argOf(i)))
		require.NoError(t, err)
		assert.Equal(t, i, v.(Factory).Create())
	}
}

func TestRegistry_ConstructionFailureAllowsRetry(t *testing.T) {
	ctx := context.Background()
	r := New("retry")

	var calls atomic.Int32
	require.NoError(t, r.Add(Definition{
		Name:  "flaky",
		Types: []types.Type{types.Of[Greeter]()},
		Create: func(context.Context, ServiceRegistry) (any, error) {
			if calls.Add(1) == 1 {
				return nil, fmt.Errorf("transient")
			}
			return greeting("ok"), nil
		},
	}))

	_, err := r.Get(ctx, types.Of[Greeter]())
	require.Error(t, err)
	assert.True(t, errors.IsConstructionFailed(err))
	assert.Equal(t, "could not create service flaky: transient", err.Error())
	assert.Equal(t, "unbound", r.Inspect()[0].State)

	v, err := r.Get(ctx, types.Of[Greeter]())
	require.NoError(t, err)
	assert.Equal(t, greeting("ok"), v)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRegistry_NilInstanceRejected(t *testing.T) {
	r := New("nil")
	require.NoError(t, r.Add(greeterDef("nothing", nil)))

	_, err := r.Get(context.Background(), types.Of[Greeter]())
	require.Error(t, err)
	assert.True(t, errors.IsConstructionFailed(err))
	assert.True(t, errors.Is(err, errors.ErrNilInstance))
}

func TestRegistry_BindHook(t *testing.T) {
	ctx := context.Background()
	r := New("bind")

	var binds atomic.Int32
	require.NoError(t, r.Add(Definition{
		Types: []types.Type{types.Of[Greeter]()},
		Bind: func(context.Context, ServiceRegistry) error {
			if binds.Add(1) == 1 {
				return fmt.Errorf("not ready")
			}
			return nil
		},
		Create: value(greeting("bound")),
	}))

	_, err := r.Get(ctx, types.Of[Greeter]())
	require.Error(t, err)
	assert.True(t, errors.IsConstructionFailed(err))

	v, err := r.Get(ctx, types.Of[Greeter]())
	require.NoError(t, err)
	assert.Equal(t, greeting("bound"), v)

	_, err = r.Get(ctx, types.Of[Greeter]())
	require.NoError(t, err)
	assert.Equal(t, int32(2), binds.Load())
}

func TestRegistry_ParentFallthrough(t *testing.T) {
	ctx := context.Background()
	parent := New("parent")
	require.NoError(t, parent.Add(greeterDef("parent greeter", greeting("parent"))))

	child := New("child", WithParent(parent))

	v, err := child.Get(ctx, types.Of[Greeter]())
	require.NoError(t, err)
	assert.Equal(t, greeting("parent"), v)

	require.NoError(t, child.Add(greeterDef("child greeter", greeting("child"))))
	v, err = child.Get(ctx, types.Of[Greeter]())
	require.NoError(t, err)
	assert.Equal(t, greeting("child"), v)

	var names []string
	require.NoError(t, child.GetAll(ctx, reflect.TypeFor[Greeter](), nil, func(svc Service) {
		names = append(names, svc.DisplayName())
	}))
	assert.Equal(t, []string{"child greeter", "parent greeter"}, names)

	self, err := child.Get(ctx, types.Of[ServiceRegistry]())
	require.NoError(t, err)
	assert.Same(t, child, self)
	assert.Equal(t, []*Registry{parent}, child.Parents())
}

func TestRegistry_ClosedParentFailsLookups(t *testing.T) {
	ctx := context.Background()
	parent := New("parent")
	child := New("child", WithParent(parent))
	require.NoError(t, parent.Close(ctx))

	_, err := child.Find(ctx, types.Of[Greeter](), nil)
	require.Error(t, err)
	assert.True(t, errors.IsRegistryClosed(err))
	assert.Contains(t, err.Error(), "parent has been closed")
}

func TestRegistry_ClosedRejectsEverything(t *testing.T) {
	ctx := context.Background()
	r := New("closing")
	require.NoError(t, r.Add(greeterDef("greeter", greeting("hi"))))

	require.NoError(t, r.Close(ctx))
	assert.True(t, r.Closed())
	require.NoError(t, r.Close(ctx))

	err := r.Add(greeterDef("late", greeting("late")))
	assert.True(t, errors.IsRegistryClosed(err))
	assert.Equal(t, "cannot add a service, as closing has been closed", err.Error())

	_, err = r.Get(ctx, types.Of[Greeter]())
	assert.True(t, errors.IsRegistryClosed(err))

	err = r.GetAll(ctx, reflect.TypeFor[Greeter](), nil, func(Service) {})
	assert.True(t, errors.IsRegistryClosed(err))
}

func TestRegistry_CloseStopsInReverseCreationOrder(t *testing.T) {
	ctx := context.Background()
	recorder := &stopRecorder{}
	r := New("shutdown")

	type Database interface{ Greeter }
	type Cache interface{ Greeter }

	db := &stoppable{name: "db", recorder: recorder}
	cache := &stoppable{name: "cache", recorder: recorder}
	api := &stoppable{name: "api", recorder: recorder}

	require.NoError(t, r.Add(Definition{
		Name:   "db",
		Types:  []types.Type{types.Of[Database]()},
		Create: value(db),
	}))
	require.NoError(t, r.Add(Definition{
		Name:  "cache",
		Types: []types.Type{types.Of[Cache]()},
		Create: func(ctx context.Context, r ServiceRegistry) (any, error) {
			if _, err := r.Get(ctx, types.Of[Database]()); err != nil {
				return nil, err
			}
			return cache, nil
		},
	}))
	require.NoError(t, r.Add(Definition{
		Name:  "api",
		Types: []types.Type{types.Of[Greeter]()},
		Create: func(ctx context.Context, r ServiceRegistry) (any, error) {
			if _, err := r.Get(ctx, types.Of[Cache]()); err != nil {
				return nil, err
			}
			return api, nil
		},
	}))
	require.NoError(t, r.Add(greeterDef("never realized", &stoppable{name: "unused", recorder: recorder})))

	_, err := r.Find(ctx, types.Of[Greeter](), nil)
	require.Error(t, err, "two greeters are registered")
	_, err = r.Get(ctx, types.Of[Cache]())
	require.NoError(t, err)
	for _, info := range r.Inspect() {
		if info.Name == "db" {
			assert.Equal(t, []string{"cache"}, info.Dependents)
		}
	}

	require.NoError(t, r.Close(ctx))
	assert.Equal(t, []string{"cache", "db"}, recorder.stopped())
	assert.Equal(t, int32(0), api.calls.Load())

	for _, info := range r.Inspect() {
		assert.Equal(t, "stopped", info.State)
		assert.False(t, info.Realized)
		assert.Empty(t, info.Dependents)
	}
}

func TestRegistry_CloseAggregatesFailures(t *testing.T) {
	ctx := context.Background()
	r := New("failing")

	type First interface{ Greeter }
	type Second interface{ Greeter }

	first := &stoppable{name: "first", err: fmt.Errorf("first failed")}
	second := &stoppable{name: "second", err: fmt.Errorf("second failed")}
	c := &closer{}

	require.NoError(t, r.Add(Definition{Name: "first", Types: []types.Type{types.Of[First]()}, Create: value(first)}))
	require.NoError(t, r.Add(Definition{Name: "second", Types: []types.Type{types.Of[Second]()}, Create: value(second)}))
	require.NoError(t, r.Add(greeterDef("closer", c)))

	for _, typ := range []types.Type{types.Of[First](), types.Of[Second](), types.Of[Greeter]()} {
		_, err := r.Get(ctx, typ)
		require.NoError(t, err)
	}

	err := r.Close(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrStopFailedSentinel))
	assert.Contains(t, err.Error(), "first failed")
	assert.Contains(t, err.Error(), "second failed")
	assert.True(t, c.closed.Load())
	assert.Equal(t, int32(1), first.calls.Load())
	assert.Equal(t, int32(1), second.calls.Load())

	var serviceErr *errors.ServiceError
	require.True(t, errors.As(err, &serviceErr))
	assert.Equal(t, "stop", serviceErr.Operation)
}
