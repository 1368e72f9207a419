package platform

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Event is one of the inbound event structs defined in this package.
type Event interface{}

// Gateway establishes a session against the chat platform and streams
// inbound events. Implementations live outside this repository and
// register themselves in init, the way database/sql drivers do.
type Gateway interface {
	// Connect authenticates with token and returns the outbound action
	// surface plus the inbound event stream. The channel closes when
	// the connection is gone for good.
	Connect(ctx context.Context, token string) (Session, <-chan Event, error)
}

var (
	gatewaysMu sync.RWMutex
	gateways   = make(map[string]Gateway)
)

// RegisterGateway makes a gateway adapter available under name. It panics
// on duplicate registration, which indicates two adapters fighting over
// the same name at init time.
func RegisterGateway(name string, gw Gateway) {
	gatewaysMu.Lock()
	defer gatewaysMu.Unlock()
	if gw == nil {
		panic("platform: RegisterGateway with nil gateway")
	}
	if _, dup := gateways[name]; dup {
		panic(fmt.Sprintf("platform: RegisterGateway called twice for %q", name))
	}
	gateways[name] = gw
}

// OpenGateway returns the registered adapter for name.
func OpenGateway(name string) (Gateway, error) {
	gatewaysMu.RLock()
	defer gatewaysMu.RUnlock()
	gw, ok := gateways[name]
	if !ok {
		return nil, fmt.Errorf("platform: unknown gateway %q (registered: %v)", name, gatewayNames())
	}
	return gw, nil
}

func gatewayNames() []string {
	names := make([]string, 0, len(gateways))
	for name := range gateways {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
