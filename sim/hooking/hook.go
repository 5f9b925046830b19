// Package hooking lets observers attach to simulation objects without
// altering their state.
package hooking

// HookPos names a point at which a hookable object invokes its hooks.
type HookPos struct {
	Name string
}

// HookCtx describes one invocation: who invoked the hooks, at which position,
// and with which item.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   any
}

// Hookable defines an object that accept Hooks.
type Hookable interface {
	// AcceptHook registers a hook.
	AcceptHook(hook Hook)

	// NumHooks returns the number of hooks registered.
	NumHooks() int

	// Hooks returns all the hooks registered.
	Hooks() []Hook
}

// Hook is a short piece of program that can be invoked by a hookable object.
// Hooks must not change the state of the domain that invokes them.
type Hook interface {
	Func(ctx HookCtx)
}

// HookFunc adapts a plain function to the Hook interface.
type HookFunc func(ctx HookCtx)

// Func calls f(ctx).
func (f HookFunc) Func(ctx HookCtx) {
	f(ctx)
}

// OnPos returns a hook that calls f only at the given position.
func OnPos(pos *HookPos, f func(ctx HookCtx)) HookFunc {
	return func(ctx HookCtx) {
		if ctx.Pos == pos {
			f(ctx)
		}
	}
}

// A HookableBase keeps the hooks of a Hookable in registration order.
type HookableBase struct {
	hookList []Hook
}

// NewHookableBase creates a HookableBase with no hooks.
func NewHookableBase() *HookableBase {
	return &HookableBase{}
}

// NumHooks returns the number of hooks registered.
func (h *HookableBase) NumHooks() int {
	return len(h.hookList)
}

// Hooks returns a copy of the registered hooks.
func (h *HookableBase) Hooks() []Hook {
	return append([]Hook(nil), h.hookList...)
}

// AcceptHook registers a hook. Registering the same hook value twice panics;
// HookFunc values are not comparable and are always accepted.
func (h *HookableBase) AcceptHook(hook Hook) {
	if _, isFunc := hook.(HookFunc); !isFunc && h.indexOf(hook) >= 0 {
		panic("duplicated hook")
	}

	h.hookList = append(h.hookList, hook)
}

// RemoveHook unregisters a hook. It returns false if the hook was not
// registered.
func (h *HookableBase) RemoveHook(hook Hook) bool {
	if _, isFunc := hook.(HookFunc); isFunc {
		return false
	}

	i := h.indexOf(hook)
	if i < 0 {
		return false
	}

	h.hookList = append(h.hookList[:i], h.hookList[i+1:]...)

	return true
}

func (h *HookableBase) indexOf(hook Hook) int {
	for i, registered := range h.hookList {
		if _, isFunc := registered.(HookFunc); isFunc {
			continue
		}

		if registered == hook {
			return i
		}
	}

	return -1
}

// InvokeHook calls every hook with ctx.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hookList {
		hook.Func(ctx)
	}
}
