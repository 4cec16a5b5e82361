package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"NewsAggregator/internal/domain"
)

// ErrUnknownScanner is returned when a source names an unregistered variant.
var ErrUnknownScanner = errors.New("scanner is not registered")

// Request carries one configured source into its scanner strategy.
type Request struct {
	SiteName string
	BaseURL  string
	Limit    int
	Options  map[string]string
}

// Scanner is a single source variant (24chasa, Dnevnik, Fakti, RSS).
// Scan always fetches live content and returns at most req.Limit articles
// in page order.
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.Article, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds a registry pre-filled with the given scanners.
func NewRegistry(scanners ...Scanner) *Registry {
	r := &Registry{scanners: map[string]Scanner{}}
	for _, s := range scanners {
		r.Register(s)
	}
	return r
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownScanner, name)
}

// Names lists registered variants in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.scanners))
	for name := range r.scanners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
