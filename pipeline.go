package respondsdk

// ──────────────────────────────────────────────
// Event pipeline — onion-model middleware
// ──────────────────────────────────────────────
//
// Each middleware wraps the next layer. Call next() to proceed;
// skip it to intercept the event before the decision runs.
//
// Usage:
//
//	o.Use(func(ctx *EventContext, next NextFunc) {
//	    if strings.HasPrefix(ctx.Event.Text, "/") {
//	        return // commands never reach the engine
//	    }
//	    next()
//	})

// NextFunc proceeds to the next middleware or the decision core.
type NextFunc func()

// MiddlewareFunc is the signature for all event middleware.
type MiddlewareFunc func(ctx *EventContext, next NextFunc)

// EventContext is the shared context flowing through the pipeline.
// Middleware may rewrite Event before calling next().
type EventContext struct {
	Event MessageEvent
	// Record is set once the decision core has run.
	Record *DecisionRecord
	// Extra is an arbitrary map for middleware to attach/read data.
	Extra map[string]interface{}
	// Handled is true when the decision core was reached.
	Handled bool
}

// EventPipeline builds and executes an onion-model call chain around the
// decision core.
type EventPipeline struct {
	middlewares []MiddlewareFunc
}

// NewEventPipeline creates an empty pipeline.
func NewEventPipeline() *EventPipeline {
	return &EventPipeline{}
}

// Use appends a middleware to the pipeline.
func (p *EventPipeline) Use(mw MiddlewareFunc) {
	p.middlewares = append(p.middlewares, mw)
}

// Len returns the number of registered middlewares.
func (p *EventPipeline) Len() int {
	return len(p.middlewares)
}

// Execute runs the full pipeline ending with coreHandler:
//
//	mw[0].before → mw[1].before → core → mw[1].after → mw[0].after
func (p *EventPipeline) Execute(ctx *EventContext, coreHandler func()) {
	if len(p.middlewares) == 0 {
		coreHandler()
		return
	}

	chain := coreHandler
	for i := len(p.middlewares) - 1; i >= 0; i-- {
		mw := p.middlewares[i]
		next := chain
		chain = func() {
			mw(ctx, next)
		}
	}

	chain()
}
