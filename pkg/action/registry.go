package action

import (
	"go.uber.org/zap"

	"github.com/agentfi-labs/agentwallet-go/pkg/chainManager"
	"github.com/agentfi-labs/agentwallet-go/pkg/util"
)

// Registry holds an ordered list of providers and computes the actions
// available on a given network. The registry itself validates nothing; each
// action validates its own arguments on invocation.
type Registry struct {
	providers []IActionProvider
	logger    *zap.Logger
}

// NewRegistry creates a Registry over the given providers, preserving order.
func NewRegistry(logger *zap.Logger, providers ...IActionProvider) *Registry {
	return &Registry{
		providers: providers,
		logger:    logger,
	}
}

// ListActions returns the union of actions from every provider supporting the
// network. Providers that do not support it are excluded and reported in a
// single aggregated warning naming all skipped providers and the network,
// rather than one warning per provider.
func (r *Registry) ListActions(network chainManager.Network) []Action {
	var actions []Action
	var skipped []string

	for _, provider := range r.providers {
		if !provider.SupportsNetwork(network) {
			skipped = append(skipped, provider.Name())
			continue
		}
		actions = append(actions, provider.Actions()...)
	}

	if len(skipped) > 0 {
		r.logger.Warn("skipping action providers that do not support the wallet network",
			zap.Strings("providers", skipped),
			zap.String("network", network.String()),
		)
	}
	return actions
}

// FindAction looks up an action by name among the providers supporting the
// network. It returns nil when no supporting provider declares the name.
func (r *Registry) FindAction(network chainManager.Network, name string) *Action {
	return util.FindValue(r.ListActions(network), func(a Action) bool {
		return a.Name == name
	})
}

// ActionNames returns the names of every action available on the network.
func (r *Registry) ActionNames(network chainManager.Network) []string {
	return util.Map(r.ListActions(network), func(a Action, _ uint64) string {
		return a.Name
	})
}
