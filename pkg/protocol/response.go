package protocol

import "fmt"

type AddResponse struct {
	Result int32 `json:"result"`
}

func (*AddResponse) responseKind() Kind { return KindAddResult }

// Response is the server envelope, mirroring the request variants.
type Response struct {
	Message ResponseMessage
}

func NewEchoResponse(content string) *Response {
	return &Response{Message: &EchoMessage{Content: content}}
}

func NewAddResponse(result int32) *Response {
	return &Response{Message: &AddResponse{Result: result}}
}

func (r *Response) Kind() Kind {
	if r == nil || r.Message == nil {
		return KindUnset
	}
	return r.Message.responseKind()
}

func (r *Response) String() string {
	switch m := r.Message.(type) {
	case *EchoMessage:
		return fmt.Sprintf("Response{Echo content=%q}", m.Content)
	case *AddResponse:
		return fmt.Sprintf("Response{AddResult result=%d}", m.Result)
	default:
		return "Response{unset}"
	}
}
