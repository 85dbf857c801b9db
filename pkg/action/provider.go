package action

import (
	"github.com/agentfi-labs/agentwallet-go/pkg/chainManager"
)

// IActionProvider groups related actions and declares which networks it
// supports. The dispatcher consults SupportsNetwork before exposing a
// provider's actions.
type IActionProvider interface {
	// Name returns the provider's stable key name.
	Name() string
	// SupportsNetwork reports whether this provider can operate on the given
	// network.
	SupportsNetwork(network chainManager.Network) bool
	// Actions returns the provider's actions in declaration order.
	Actions() []Action
}

// CompositeProvider aggregates child providers under one name with its own
// network predicate. The predicate is independent of the children's: the
// composite may support a network not all children do, or refuse one they
// all support. The constructing code decides; no union or intersection of
// child predicates is computed.
type CompositeProvider struct {
	name     string
	supports func(chainManager.Network) bool
	children []IActionProvider
}

var _ IActionProvider = (*CompositeProvider)(nil)

// NewCompositeProvider builds a composite from child providers. A nil
// supports predicate accepts every network.
func NewCompositeProvider(name string, supports func(chainManager.Network) bool, children ...IActionProvider) *CompositeProvider {
	return &CompositeProvider{
		name:     name,
		supports: supports,
		children: children,
	}
}

// Name returns the composite's key name.
func (p *CompositeProvider) Name() string {
	return p.name
}

// SupportsNetwork applies the composite's own predicate.
func (p *CompositeProvider) SupportsNetwork(network chainManager.Network) bool {
	if p.supports == nil {
		return true
	}
	return p.supports(network)
}

// Actions returns the union of the children's actions in child order.
func (p *CompositeProvider) Actions() []Action {
	var actions []Action
	for _, child := range p.children {
		actions = append(actions, child.Actions()...)
	}
	return actions
}

// SupportsProtocolFamily is a predicate helper matching networks by protocol
// family, e.g. "evm".
func SupportsProtocolFamily(family string) func(chainManager.Network) bool {
	return func(network chainManager.Network) bool {
		return network.ProtocolFamily == family
	}
}

// SupportsNetworkIds is a predicate helper matching networks whose network ID
// is in the given set.
func SupportsNetworkIds(networkIds ...string) func(chainManager.Network) bool {
	allowed := make(map[string]struct{}, len(networkIds))
	for _, id := range networkIds {
		allowed[id] = struct{}{}
	}
	return func(network chainManager.Network) bool {
		_, ok := allowed[network.NetworkID]
		return ok
	}
}
