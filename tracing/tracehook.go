package tracing

import (
	"fmt"
	"reflect"

	"github.com/sarchlab/lifpace/pacer"
	"github.com/sarchlab/lifpace/sim/hooking"
)

// CollectTrace lets the writer record every trace of a domain.
func CollectTrace(domain NamedHookable, writer TraceWriter) {
	for _, hook := range domain.Hooks() {
		h, ok := hook.(*traceHook)
		if ok && h.w == writer {
			panic(fmt.Sprintf(
				"domain %s already has trace writer %s",
				domain.Name(), reflect.TypeOf(writer)))
		}
	}

	domain.AcceptHook(&traceHook{w: writer, where: domain.Name()})
}

type traceHook struct {
	w     TraceWriter
	where string
}

func (h *traceHook) Func(ctx hooking.HookCtx) {
	if ctx.Pos != pacer.HookPosTick {
		return
	}

	h.w.Write(h.where, ctx.Item.(pacer.Trace))
}
