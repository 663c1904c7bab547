package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ChiRouter implements [Router] on a [chi.Mux].
//
// Middleware is applied per handler at registration time, so Use must be called before Handle.
// With returns a child router sharing the same mux with extra middleware appended.
type ChiRouter struct {
	mux         *chi.Mux
	middlewares []Middleware
}

// NewChiRouter creates a new [ChiRouter] instance.
func NewChiRouter() *ChiRouter {
	mux := chi.NewRouter()
	mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return &ChiRouter{mux: mux}
}

// Use adds [Middleware] to the stack, applied in the order it's added.
func (r *ChiRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// With returns a router that registers on the same mux with middleware added after the current stack.
func (r *ChiRouter) With(middleware ...Middleware) *ChiRouter {
	stack := make([]Middleware, 0, len(r.middlewares)+len(middleware))
	stack = append(stack, r.middlewares...)
	stack = append(stack, middleware...)
	return &ChiRouter{mux: r.mux, middlewares: stack}
}

// Handle registers handler for method and a chi path pattern such as "/lists/{id}".
// Every path also answers OPTIONS so CORS preflights reach the middleware stack.
func (r *ChiRouter) Handle(method, path string, handler http.Handler) {
	r.mux.Method(method, path, r.Apply(handler))
	r.mux.Method(http.MethodOptions, path, r.Apply(http.HandlerFunc(noContent)))
}

// Handler registers every route of handler for all methods.
func (r *ChiRouter) Handler(handler Handler) {
	wrapped := r.Apply(handler)
	for _, route := range handler.Routes() {
		r.mux.Handle(route, wrapped)
	}
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *ChiRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps a handler with all registered middleware. The first middleware added is outermost.
func (r *ChiRouter) Apply(handler http.Handler) http.Handler {
	wrapped := handler
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}
	return wrapped
}

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
