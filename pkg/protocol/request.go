package protocol

import "fmt"

// Kind names one variant of a request or response envelope.
type Kind int

const (
	KindUnset Kind = iota
	KindEcho
	KindAdd
	KindAddResult
)

func (k Kind) String() string {
	switch k {
	case KindUnset:
		return "unset"
	case KindEcho:
		return "echo"
	case KindAdd:
		return "add"
	case KindAddResult:
		return "add_result"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// RequestMessage is implemented by every request variant.
type RequestMessage interface {
	requestKind() Kind
}

// ResponseMessage is implemented by every response variant.
type ResponseMessage interface {
	responseKind() Kind
}

// EchoMessage is shared by both sides of the envelope.
type EchoMessage struct {
	Content string `json:"content"`
}

func (*EchoMessage) requestKind() Kind  { return KindEcho }
func (*EchoMessage) responseKind() Kind { return KindEcho }

type AddRequest struct {
	A int32 `json:"a"`
	B int32 `json:"b"`
}

func (*AddRequest) requestKind() Kind { return KindAdd }

// Request is the client envelope. A nil Message is the unset variant.
type Request struct {
	Message RequestMessage
}

func NewEchoRequest(content string) *Request {
	return &Request{Message: &EchoMessage{Content: content}}
}

func NewAddRequest(a, b int32) *Request {
	return &Request{Message: &AddRequest{A: a, B: b}}
}

func (r *Request) Kind() Kind {
	if r == nil || r.Message == nil {
		return KindUnset
	}
	return r.Message.requestKind()
}

func (r *Request) String() string {
	switch m := r.Message.(type) {
	case *EchoMessage:
		return fmt.Sprintf("Request{Echo content=%q}", m.Content)
	case *AddRequest:
		return fmt.Sprintf("Request{Add a=%d, b=%d}", m.A, m.B)
	default:
		return "Request{unset}"
	}
}
