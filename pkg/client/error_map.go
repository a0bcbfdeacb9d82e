package client

import (
	"context"
	"errors"
	"os"

	"github.com/ecstasoy/echoadd/pkg/protocol"
)

// mapError gives transport failures a protocol error code.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var perr *protocol.Error
	if errors.As(err, &perr) {
		return err
	}

	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return protocol.NewError(protocol.ErrorCodeDeadlineExceeded, "no response before deadline").WithDetails(err.Error())
	}

	return protocol.NewError(protocol.ErrorCodeUnavailable, "call failed").WithDetails(err.Error())
}

func unexpected(want protocol.Kind, resp *protocol.Response) error {
	return protocol.NewError(protocol.ErrorCodeUnexpectedResponse, "unexpected response").
		WithDetails("want " + want.String() + ", got " + resp.Kind().String())
}
