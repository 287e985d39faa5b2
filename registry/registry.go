package registry

import (
	"slices"
	"sync"

	"github.com/lixenwraith/swarm-fsm/engine"
	"github.com/lixenwraith/swarm-fsm/engine/fsm"
)

// DomainFactory creates a domain's preparation registry bound to a world
type DomainFactory func(w *engine.World) *fsm.Domain

// DefinitionFactory returns a domain's built-in machine definition
type DefinitionFactory func() (*fsm.Definition, error)

// DomainEntry holds the factories registered under one domain name
type DomainEntry struct {
	Domain     DomainFactory
	Definition DefinitionFactory
}

var (
	domainsMu sync.RWMutex
	domains   = make(map[string]DomainEntry)
)

// RegisterDomain adds a domain by name, replacing any previous entry
// Domain packages call this from init
func RegisterDomain(name string, entry DomainEntry) {
	domainsMu.Lock()
	defer domainsMu.Unlock()
	domains[name] = entry
}

// GetDomain retrieves a domain entry by name
func GetDomain(name string) (DomainEntry, bool) {
	domainsMu.RLock()
	defer domainsMu.RUnlock()
	e, ok := domains[name]
	return e, ok
}

// DomainNames returns all registered domain names, sorted
func DomainNames() []string {
	domainsMu.RLock()
	defer domainsMu.RUnlock()
	names := make([]string, 0, len(domains))
	for name := range domains {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
