// Package catalog keeps the parsed maps a session can play, keyed by map name.
// It is shared between sessions and safe for concurrent use.
package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/signalmaster/internal/railmap"
)

// Info summarizes a registered map for listings.
type Info struct {
	Name        string
	Description string
	Source      string
	Tracks      int
	Switches    int
	Stations    int
	Spawns      int
}

// Catalog maps names to parsed maps.
type Catalog struct {
	mu   sync.RWMutex
	maps map[string]*railmap.Map
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{maps: make(map[string]*railmap.Map)}
}

// Register adds m under its name. A map with the same name is replaced and
// Register reports true; later sources override bundled maps this way.
func (c *Catalog) Register(m *railmap.Map) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, replaced := c.maps[m.Name]
	c.maps[m.Name] = m
	return replaced
}

// Get returns the map registered under name.
func (c *Catalog) Get(name string) (*railmap.Map, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.maps[name]
	if !ok {
		return nil, fmt.Errorf("catalog: unknown map %q", name)
	}
	return m, nil
}

// Exists checks if a map with the given name is registered.
func (c *Catalog) Exists(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.maps[name]
	return ok
}

// Len returns the number of registered maps.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.maps)
}

// List returns every registered map, sorted by name.
func (c *Catalog) List() []Info {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]Info, 0, len(c.maps))
	for _, m := range c.maps {
		result = append(result, Info{
			Name:        m.Name,
			Description: m.Metadata["description"],
			Source:      m.Source,
			Tracks:      len(m.Tracks),
			Switches:    len(m.Switches),
			Stations:    len(m.Stations),
			Spawns:      len(m.Spawns),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}
