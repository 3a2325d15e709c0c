package runtime

import (
	"errors"
	"fmt"
	"sync"
)

// Handler executes one phase task type.
type Handler interface {
	Type() string
	Run(ctx *Context) error
}

type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

func (r *Registry) Register(h Handler) error {
	if h == nil {
		return fmt.Errorf("nil handler")
	}
	t := h.Type()
	if t == "" {
		return fmt.Errorf("handler Type() is empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[t]; exists {
		return fmt.Errorf("handler already registered for task_type=%s", t)
	}
	r.handlers[t] = h
	return nil
}

func (r *Registry) Get(taskType string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[taskType]
	return h, ok
}

// Types lists registered task types.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	return out
}

type funcHandler struct {
	typ string
	fn  func(*Context) error
}

func (h funcHandler) Type() string           { return h.typ }
func (h funcHandler) Run(ctx *Context) error { return h.fn(ctx) }

// HandlerFunc adapts fn into a Handler for taskType.
func HandlerFunc(taskType string, fn func(*Context) error) Handler {
	return funcHandler{typ: taskType, fn: fn}
}

// Execute runs h against jc, converting a handler panic into a PanicError.
func Execute(h Handler, jc *Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if jc != nil && jc.Log != nil {
				jc.Log.Error("Task handler panic", "panic", r)
			}
			err = &PanicError{Val: r}
		}
	}()
	return h.Run(jc)
}

type PanicError struct{ Val any }

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Val) }

// IsPanic reports whether err came from a recovered handler panic.
func IsPanic(err error) bool {
	var p *PanicError
	return errors.As(err, &p)
}
