package registry

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/xraph/hive/internal/types"
)

type Greeter interface {
	Greet() string
}

type greeting string

func (g greeting) Greet() string { return string(g) }

type Factory interface {
	Create() any
}

type factoryOf struct {
	value any
}

func (f factoryOf) Create() any { return f.value }

var factoryType = reflect.TypeFor[Factory]()

// politeService provides Greeter through its embedded field.
type politeService struct {
	Greeter
}

// stopRecorder records the order services are stopped in.
type stopRecorder struct {
	mu    sync.Mutex
	order []string
}

func (r *stopRecorder) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, name)
}

func (r *stopRecorder) stopped() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

type stoppable struct {
	name     string
	recorder *stopRecorder
	calls    atomic.Int32
	err      error
}

func (s *stoppable) Greet() string { return s.name }

func (s *stoppable) Stop(context.Context) error {
	s.calls.Add(1)
	if s.recorder != nil {
		s.recorder.record(s.name)
	}
	return s.err
}

type closer struct {
	closed atomic.Bool
}

func (c *closer) Greet() string { return "closer" }

func (c *closer) Close() error {
	c.closed.Store(true)
	return nil
}

// recordingHandler counts notifications per service.
type recordingHandler struct {
	tags     []types.Tag
	implicit types.Tag

	mu    sync.Mutex
	seen  map[string]int
	order []string
}

func newRecordingHandler(tags ...types.Tag) *recordingHandler {
	return &recordingHandler{tags: tags, seen: make(map[string]int)}
}

func (h *recordingHandler) Tags() []types.Tag { return h.tags }

func (h *recordingHandler) WhenRegistered(_ context.Context, tag types.Tag, reg Registration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen[reg.DisplayName()]++
	h.order = append(h.order, string(tag)+":"+reg.DisplayName())
}

func (h *recordingHandler) count(name string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seen[name]
}

func (h *recordingHandler) total() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, c := range h.seen {
		n += c
	}
	return n
}

type implicitHandler struct {
	*recordingHandler
}

func (h implicitHandler) ImplicitTag() types.Tag { return h.implicit }

// taggedGreeter carries a tag on the instance itself.
type taggedGreeter struct {
	tags []types.Tag
}

func (t taggedGreeter) Greet() string { return "tagged" }

func (t taggedGreeter) ServiceTags() []types.Tag { return t.tags }

func value(v any) func(context.Context, ServiceRegistry) (any, error) {
	return func(context.Context, ServiceRegistry) (any, error) { return v, nil }
}

func greeterDef(name string, v any) Definition {
	return Definition{
		Name:   name,
		Types:  []types.Type{types.Of[Greeter]()},
		Create: value(v),
	}
}

func handlerDef(name string, h LifecycleHandler) Definition {
	return Definition{
		Name:   name,
		Types:  []types.Type{types.Of[LifecycleHandler]()},
		Create: value(h),
	}
}
