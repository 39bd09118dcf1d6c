package provider

import (
	"fmt"
	"sync"

	"github.com/lk2023060901/app-idea-analyzer/internal/websearch/types"
)

// Constructor builds a provider from its configuration
type Constructor func(*types.ProviderConfig) (Provider, error)

// Factory creates provider instances
type Factory struct {
	mu           sync.RWMutex
	constructors map[types.ProviderID]Constructor
}

// NewFactory creates a new provider factory
func NewFactory() *Factory {
	f := &Factory{
		constructors: make(map[types.ProviderID]Constructor),
	}

	// Register built-in providers
	f.Register(types.ProviderGoogle, NewGoogleProvider)
	f.Register(types.ProviderAppStore, NewAppStoreProvider)
	f.Register(types.ProviderPlayStore, NewPlayStoreProvider)

	return f
}

// Register registers a provider constructor
func (f *Factory) Register(id types.ProviderID, constructor Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constructors[id] = constructor
}

// Create creates a provider instance from configuration
func (f *Factory) Create(config *types.ProviderConfig) (Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	f.mu.RLock()
	constructor, exists := f.constructors[config.ID]
	f.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", types.ErrProviderNotFound, config.ID)
	}

	return constructor(config)
}

