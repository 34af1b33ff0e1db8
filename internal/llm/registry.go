package llm

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ProviderFactory builds a provider from its own configuration source.
type ProviderFactory func() (Provider, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]ProviderFactory)
)

// RegisterProvider makes a provider available under name. Provider packages call it from init.
func RegisterProvider(name string, factory ProviderFactory) {
	mu.Lock()
	defer mu.Unlock()
	factories[name] = factory
}

// Registered lists the provider names in sorted order.
func Registered() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func NewProvider(name string) (Provider, error) {
	mu.RLock()
	factory, ok := factories[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported provider %q (registered: %s)", name, strings.Join(Registered(), ", "))
	}
	p, err := factory()
	if err != nil {
		return nil, fmt.Errorf("init provider %s: %w", name, err)
	}
	return p, nil
}
