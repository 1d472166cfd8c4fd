package arbiter

import (
	"net/http"
	"strings"
)

// Middleware wraps an http.Handler with an authorization check. Each
// incoming request is mapped to an action (from the HTTP method) and a
// Resource target (from the URL path), and evaluated for the actor that
// actorFn extracts from the request. Denied requests receive a
// 401 Unauthorized response; a check error is a 500.
//
// The path maps to a Resource with the first segment as the kind and the
// remainder as the ID: "/products/123" targets kind "products", ID "123".
func (r *Registry) Middleware(next http.Handler, actorFn func(*http.Request) any) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		action := httpMethodToAction(req.Method)
		target := pathResource(req.URL.Path)

		decision, err := r.Check(req.Context(), actorFn(req), action, target)
		if err != nil {
			r.logger.Error("arbiter: check error", "method", req.Method, "path", req.URL.Path, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if !decision.Allowed {
			r.logger.Warn("arbiter: request denied",
				"method", req.Method,
				"path", req.URL.Path,
				"reason", decision.Reason,
			)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, req)
	})
}

func httpMethodToAction(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead:
		return "read"
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return strings.ToLower(method)
	}
}

func pathResource(path string) *Resource {
	trimmed := strings.TrimPrefix(path, "/")
	kind, id, _ := strings.Cut(trimmed, "/")
	return &Resource{Kind: kind, ID: id}
}
