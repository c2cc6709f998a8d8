package param

import (
	"fmt"
	"sort"
	"sync"
)

// Registry owns a fixed set of parameters. Parameters are added during setup;
// after that the set is read-only and lookups are safe from any thread.
type Registry struct {
	floats  map[string]*Float
	choices map[string]*Choice

	mu        sync.Mutex
	listeners []func(id string)
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		floats:  make(map[string]*Float),
		choices: make(map[string]*Choice),
	}
}

// AddFloat registers a continuous parameter.
func (r *Registry) AddFloat(p *Float) error {
	if err := r.checkFree(p.ID); err != nil {
		return err
	}

	if p.Max < p.Min {
		return fmt.Errorf("parameter %q range is inverted: [%f, %f]", p.ID, p.Min, p.Max)
	}

	r.floats[p.ID] = p

	return nil
}

// AddChoice registers an enumerated parameter.
func (r *Registry) AddChoice(c *Choice) error {
	if err := r.checkFree(c.ID); err != nil {
		return err
	}

	if len(c.Options) == 0 {
		return fmt.Errorf("choice parameter %q has no options", c.ID)
	}

	r.choices[c.ID] = c

	return nil
}

func (r *Registry) checkFree(id string) error {
	if id == "" {
		return fmt.Errorf("parameter id must not be empty")
	}

	if _, ok := r.floats[id]; ok {
		return fmt.Errorf("parameter %q already registered", id)
	}

	if _, ok := r.choices[id]; ok {
		return fmt.Errorf("parameter %q already registered", id)
	}

	return nil
}

// Float implements Source.
func (r *Registry) Float(id string) float64 {
	if p, ok := r.floats[id]; ok {
		return p.Load()
	}

	return 0
}

// Choice implements Source.
func (r *Registry) Choice(id string) int {
	if c, ok := r.choices[id]; ok {
		return c.Load()
	}

	return 0
}

// FloatParam returns the registered parameter or nil.
func (r *Registry) FloatParam(id string) *Float { return r.floats[id] }

// ChoiceParam returns the registered parameter or nil.
func (r *Registry) ChoiceParam(id string) *Choice { return r.choices[id] }

// SetFloat stores a plain value and notifies listeners. Control thread only.
func (r *Registry) SetFloat(id string, v float64) error {
	p, ok := r.floats[id]
	if !ok {
		return fmt.Errorf("unknown float parameter %q", id)
	}

	p.Set(v)
	r.notify(id)

	return nil
}

// SetChoice stores an option index and notifies listeners. Control thread only.
func (r *Registry) SetChoice(id string, idx int) error {
	c, ok := r.choices[id]
	if !ok {
		return fmt.Errorf("unknown choice parameter %q", id)
	}

	c.Set(idx)
	r.notify(id)

	return nil
}

// OnChange registers a listener called on the control thread after every
// Set. The audio path never relies on it; it polls instead.
func (r *Registry) OnChange(fn func(id string)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.listeners = append(r.listeners, fn)
}

func (r *Registry) notify(id string) {
	r.mu.Lock()
	listeners := r.listeners
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(id)
	}
}

// IDs returns all registered ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.floats)+len(r.choices))
	for id := range r.floats {
		ids = append(ids, id)
	}

	for id := range r.choices {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}
