package arbiter

import (
	"context"
	"errors"
	"strings"

	"connectrpc.com/connect"
)

// RequestInfo is the authorization view of one RPC: who is calling, what
// they are doing, and to what. Extra is passed through to predicate
// constraints.
type RequestInfo struct {
	Actor  any
	Action string
	Target any
	Extra  []any
}

// RequestMapper extracts the authorization view from an incoming RPC.
// A mapper error denies the request.
type RequestMapper func(ctx context.Context, req connect.AnyRequest) (RequestInfo, error)

// UnaryInterceptor returns a connect interceptor that authorizes every unary
// RPC before it reaches the handler. The mapper supplies the actor and may
// override the action and target; when left empty they are derived from the
// RPC procedure ("/shop.v1.ProductService/ListProducts" checks action
// "listproducts" on a Resource of kind "productservice"). Denials surface
// as CodePermissionDenied with the AuthorizationError in the chain.
func (r *Registry) UnaryInterceptor(mapper RequestMapper) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			info, err := mapper(ctx, req)
			if err != nil {
				return nil, connect.NewError(connect.CodePermissionDenied, err)
			}

			service, method := splitProcedure(req.Spec().Procedure)
			if info.Action == "" {
				info.Action = method
			}
			if info.Target == nil {
				info.Target = &Resource{Kind: service}
			}

			if err := r.Authorize(ctx, info.Actor, info.Action, info.Target, info.Extra...); err != nil {
				var authErr *AuthorizationError
				if errors.As(err, &authErr) {
					r.logger.Warn("arbiter: rpc denied",
						"procedure", req.Spec().Procedure,
						"action", info.Action,
					)
					return nil, connect.NewError(connect.CodePermissionDenied, err)
				}
				return nil, err
			}
			return next(ctx, req)
		}
	}
}

// splitProcedure lowers "/pkg.Service/Method" to ("service", "method").
func splitProcedure(procedure string) (service, method string) {
	procedure = strings.TrimPrefix(procedure, "/")
	service, method, _ = strings.Cut(procedure, "/")
	if i := strings.LastIndex(service, "."); i >= 0 {
		service = service[i+1:]
	}
	return strings.ToLower(service), strings.ToLower(method)
}
