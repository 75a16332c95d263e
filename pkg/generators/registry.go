package generators

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Constructor builds a Generator from options.
type Constructor func(opts Options) (Generator, error)

// DefaultRegistry holds the built-in providers.
var DefaultRegistry = NewRegistry()

func init() {
	for name, c := range map[string]Constructor{
		"openai":    NewOpenAI,
		"anthropic": NewAnthropic,
		"gemini":    NewGemini,
	} {
		if err := DefaultRegistry.Register(name, c); err != nil {
			panic(err)
		}
	}
}

// Register adds a provider to the default registry.
func Register(provider string, c Constructor) error {
	return DefaultRegistry.Register(provider, c)
}

// New builds a generator from the default registry.
func New(opts Options) (Generator, error) {
	return DefaultRegistry.New(opts)
}

// Providers lists the providers of the default registry.
func Providers() []string {
	return DefaultRegistry.Providers()
}

// Registry maps provider names to constructors. Names are case-insensitive.
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

// Register adds a constructor for provider.
// Returns an error if the provider is already registered.
func (r *Registry) Register(provider string, c Constructor) error {
	key := strings.ToLower(provider)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ctors[key]; ok {
		return fmt.Errorf("generator already registered for %s", provider)
	}
	r.ctors[key] = c
	return nil
}

// New builds the generator for opts.Provider.
func (r *Registry) New(opts Options) (Generator, error) {
	r.mu.RLock()
	c, ok := r.ctors[strings.ToLower(opts.Provider)]
	r.mu.RUnlock()
	if !ok || c == nil {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnsupportedProvider, opts.Provider, strings.Join(r.Providers(), ", "))
	}
	return c(opts)
}

// Providers returns the registered provider names, sorted.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ctors))
	for name := range r.ctors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
