package fsm

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/swarm-fsm/core"
)

// ParseDefinition decodes and validates a YAML machine definition
// Unknown fields are rejected
func ParseDefinition(data []byte) (*Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("failed to unmarshal machine definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// LoadDefinitionFile reads and parses a definition from path
func LoadDefinitionFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read machine definition: %w", err)
	}
	def, err := ParseDefinition(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Validate checks names and references; all problems are reported together
func (d *Definition) Validate() error {
	var errs []error

	if d.Name == "" {
		errs = append(errs, errors.New("name is empty"))
	}

	ids := make(map[EventID]string, len(d.Events))
	for _, name := range slices.Sorted(maps.Keys(d.Events)) {
		id := d.Events[name]
		if id == NullEvent {
			errs = append(errs, fmt.Errorf("event %q: %w", name, ErrNullEvent))
			continue
		}
		if other, dup := ids[id]; dup {
			errs = append(errs, fmt.Errorf("event %q reuses id %d of %q", name, id, other))
			continue
		}
		ids[id] = name
	}

	if len(d.States) == 0 {
		errs = append(errs, errors.New("no states"))
	}
	states := make(map[string]struct{}, len(d.States))
	for i, s := range d.States {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("state #%d has no name", i))
			continue
		}
		if _, dup := states[s.Name]; dup {
			errs = append(errs, fmt.Errorf("state %q declared twice", s.Name))
			continue
		}
		states[s.Name] = struct{}{}
	}

	if _, ok := states[d.Initial]; !ok {
		errs = append(errs, fmt.Errorf("initial state %q: %w", d.Initial, ErrUnknownState))
	}

	for i, t := range d.Transitions {
		if _, ok := states[t.From]; !ok {
			errs = append(errs, fmt.Errorf("transition #%d from %q: %w", i, t.From, ErrUnknownState))
		}
		if _, ok := states[t.To]; !ok {
			errs = append(errs, fmt.Errorf("transition #%d to %q: %w", i, t.To, ErrUnknownState))
		}
		if _, ok := d.Events[t.Event]; !ok {
			errs = append(errs, fmt.Errorf("transition #%d: unknown event %q", i, t.Event))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w %q: %w", ErrInvalidDefinition, d.Name, errors.Join(errs...))
	}
	return nil
}

// ValidateDomain checks that domain has a preparation routine for every declared state
func (d *Definition) ValidateDomain(domain *Domain) error {
	var errs []error
	for _, s := range d.States {
		if _, ok := domain.Lookup(s.ID); !ok {
			errs = append(errs, fmt.Errorf("state %q id %d: %w", s.Name, s.ID, ErrMissingPreparation))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w %q for domain %s: %w", ErrInvalidDefinition, d.Name, domain.Name(), errors.Join(errs...))
	}
	return nil
}

// Shadowed returns transitions that can never fire because an earlier one has the same (from, event)
func (d *Definition) Shadowed() []TransitionConfig {
	type key struct{ from, event string }
	seen := make(map[key]struct{}, len(d.Transitions))
	var shadowed []TransitionConfig
	for _, t := range d.Transitions {
		k := key{t.From, t.Event}
		if _, ok := seen[k]; ok {
			shadowed = append(shadowed, t)
			continue
		}
		seen[k] = struct{}{}
	}
	return shadowed
}

// Instance holds the handles created for one definition
type Instance struct {
	Machine core.Entity
	States  map[string]core.Entity
	Events  map[string]EventID
}

// Instantiate builds a machine for owner from a validated definition, tagging every state with D
// The initial state is activated on the next tick
func Instantiate[D any](b *Builder, def *Definition, owner core.Entity) (*Instance, error) {
	inst := &Instance{
		Machine: b.CreateFsm(owner),
		States:  make(map[string]core.Entity, len(def.States)),
		Events:  maps.Clone(def.Events),
	}

	for _, s := range def.States {
		e, err := AddState[D](b, inst.Machine, s.ID)
		if err != nil {
			return nil, err
		}
		inst.States[s.Name] = e
	}

	for _, t := range def.Transitions {
		event, ok := def.Events[t.Event]
		if !ok {
			return nil, fmt.Errorf("%w %q: unknown event %q", ErrInvalidDefinition, def.Name, t.Event)
		}
		if err := b.AddTransition(inst.Machine, inst.States[t.From], event, inst.States[t.To]); err != nil {
			return nil, err
		}
	}

	initial, ok := inst.States[def.Initial]
	if !ok {
		return nil, fmt.Errorf("%w %q: initial state %q: %w", ErrInvalidDefinition, def.Name, def.Initial, ErrUnknownState)
	}
	if err := b.Start(inst.Machine, initial); err != nil {
		return nil, err
	}
	return inst, nil
}
