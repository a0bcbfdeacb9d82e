// Kunhua Huang 2026

package registry

import (
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
)

// Handle identifies one live connection. It carries no I/O capability.
type Handle struct {
	ID         string
	RemoteAddr string
	LocalAddr  string
	AcceptedAt time.Time
}

func NewHandle(conn net.Conn) Handle {
	return Handle{
		ID:         uuid.NewString(),
		RemoteAddr: addrString(conn.RemoteAddr()),
		LocalAddr:  addrString(conn.LocalAddr()),
		AcceptedAt: time.Now(),
	}
}

// Key is the peer identity the handle is registered under.
func (h Handle) Key() string {
	return h.RemoteAddr
}

func (h Handle) String() string {
	return fmt.Sprintf("Handle{ID=%s, Remote=%s, Local=%s}", h.ID, h.RemoteAddr, h.LocalAddr)
}

func addrString(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	return addr.String()
}
