// Package ratelimit implements a per-identifier sliding-window request
// limiter. It is a soft abuse deterrent, not a security boundary: state
// is lost on restart and that is acceptable.
package ratelimit

import "context"

// Limiter decides whether a request from the given identifier may
// proceed. Implementations must record the request only when it is
// allowed; rejected attempts never count toward future windows.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
