// Kunhua Huang 2026

package interceptor

import (
	"context"

	"github.com/ecstasoy/echoadd/pkg/protocol"
)

type Invoker func(ctx context.Context, req *protocol.Request) (*protocol.Response, error)

type Interceptor func(ctx context.Context, req *protocol.Request, invoker Invoker) (*protocol.Response, error)

type Chain struct {
	interceptors []Interceptor
}

func NewChain(interceptor ...Interceptor) *Chain {
	return &Chain{interceptors: interceptor}
}

func (ic *Chain) Intercept(ctx context.Context, req *protocol.Request, invoker Invoker) (*protocol.Response, error) {
	if len(ic.interceptors) == 0 {
		return invoker(ctx, req)
	}

	return ic.Then(invoker)(ctx, req)
}

// Then wraps invoker so the first interceptor runs outermost.
func (ic *Chain) Then(invoker Invoker) Invoker {
	for i := len(ic.interceptors) - 1; i >= 0; i-- {
		next := invoker
		interceptor := ic.interceptors[i]

		invoker = func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			return interceptor(ctx, req, next)
		}
	}

	return invoker
}
