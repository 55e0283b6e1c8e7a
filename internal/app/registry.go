package app

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/neomorfeo/proviq/internal/domain"
)

// HandlerRegistry maps provider keys to their handlers. Registration happens
// at startup; resolution happens concurrently from queue workers, so the map
// is guarded even though writes are rare.
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[string]domain.ProviderHandler
	logger   *slog.Logger
}

// NewHandlerRegistry creates an empty registry. A nil logger falls back to
// slog.Default.
func NewHandlerRegistry(logger *slog.Logger) *HandlerRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &HandlerRegistry{
		handlers: make(map[string]domain.ProviderHandler),
		logger:   logger,
	}
}

// Register stores a handler under the given key. Registering a key twice
// replaces the earlier handler: last registration wins, with a warning naming
// what was displaced.
func (r *HandlerRegistry) Register(key string, handler domain.ProviderHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if previous, ok := r.handlers[key]; ok {
		r.logger.Warn("replacing provider handler",
			slog.String("provider_key", key),
			slog.String("replaced", fmt.Sprintf("%T", previous)),
			slog.String("replacement", fmt.Sprintf("%T", handler)),
		)
	}
	r.handlers[key] = handler
}

// Resolve looks up the handler for a key. A missing key is not an error;
// callers treat it as "skip this component".
func (r *HandlerRegistry) Resolve(key string) (domain.ProviderHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handler, ok := r.handlers[key]
	return handler, ok
}

// Keys returns the registered provider keys in sorted order.
func (r *HandlerRegistry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.handlers))
	for k := range r.handlers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
