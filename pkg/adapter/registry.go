package adapter

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/leapstack-labs/prefixsql/pkg/prefix"
)

// Factory creates an unconnected adapter.
type Factory func(logger *slog.Logger) Adapter

var factories = struct {
	sync.RWMutex
	m map[string]Factory
}{m: make(map[string]Factory)}

// Register makes an adapter type available to NewAdapter. Adapters call it
// from init.
func Register(typ string, f Factory) {
	factories.Lock()
	defer factories.Unlock()
	factories.m[strings.ToLower(typ)] = f
}

// Registered reports whether typ has a factory.
func Registered(typ string) bool {
	factories.RLock()
	defer factories.RUnlock()
	_, ok := factories.m[strings.ToLower(typ)]
	return ok
}

// Types returns the registered adapter types, sorted.
func Types() []string {
	factories.RLock()
	defer factories.RUnlock()
	return slices.Sorted(func(yield func(string) bool) {
		for typ := range factories.m {
			if !yield(typ) {
				return
			}
		}
	})
}

// NewAdapter creates an unconnected adapter for cfg.Type. The table prefix
// of cfg is checked against the quote characters of the adapter's dialect,
// so a bad prefix fails here instead of on the first query.
func NewAdapter(cfg Config, logger *slog.Logger) (Adapter, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("adapter type not specified")
	}

	factories.RLock()
	f, ok := factories.m[strings.ToLower(cfg.Type)]
	factories.RUnlock()
	if !ok {
		return nil, &UnknownAdapterError{Type: cfg.Type, Available: Types()}
	}

	a := f(logger)
	if a == nil {
		return nil, fmt.Errorf("%s adapter: factory returned no adapter", cfg.Type)
	}
	opts := []prefix.Option{prefix.WithPrefix(cfg.Prefix)}
	if d := a.Dialect(); d != nil {
		open, closeQuote := d.QuoteStrings()
		opts = append(opts, prefix.WithQuoteStrings(open, closeQuote))
	}
	if _, err := prefix.New(opts...); err != nil {
		return nil, fmt.Errorf("%s adapter: %w", cfg.Type, err)
	}
	return a, nil
}

// UnknownAdapterError is returned for an adapter type nothing registered.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown adapter type %q (available: %s); set target.type in prefixsql.yaml",
		e.Type, strings.Join(e.Available, ", "))
}
