// Package prefab spawns entities from YAML spawn tables:
//
//	# data/spawn.yaml
//	- name: drone
//	  count: 3
//	  components:
//	    position: {x: 0, y: 0}
//	    velocity: {dx: 1, dy: 0}
//
// Component keys are the names bound with Bind; values decode into the bound
// Go type with yaml.v3. Components attach in document order.
package prefab

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/planes/engine/internal/core/ecs"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrUnknownComponent is returned for a spawn table key with no binding.
var ErrUnknownComponent = errors.New("prefab: unknown component")

// Entry is one spawn table row.
type Entry struct {
	Name       string    `yaml:"name"`
	Count      int       `yaml:"count"` // 0 means 1
	Components yaml.Node `yaml:"components"`
}

// Table is a parsed spawn table.
type Table struct {
	Entries []Entry
}

// Total returns the number of entities the table spawns. Parse guarantees
// the sum fits in an int.
func (t *Table) Total() int {
	n := 0
	for i := range t.Entries {
		n += t.Entries[i].count()
	}
	return n
}

func (e *Entry) count() int {
	if e.Count == 0 {
		return 1
	}
	return e.Count
}

// components returns the key/value node pairs of the entry's mapping.
func (e *Entry) components() ([]*yaml.Node, error) {
	n := &e.Components
	switch {
	case n.Kind == 0, n.Kind == yaml.ScalarNode && n.Tag == "!!null":
		return nil, nil
	case n.Kind != yaml.MappingNode:
		return nil, fmt.Errorf("entry %q: components must be a mapping (line %d)", e.Name, n.Line)
	}
	return n.Content, nil
}

// Parse decodes a spawn table document.
func Parse(raw []byte) (*Table, error) {
	var entries []Entry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse spawn table: %w", err)
	}
	total := 0
	for i := range entries {
		e := &entries[i]
		if e.Count < 0 {
			return nil, fmt.Errorf("entry %q: negative count %d", e.Name, e.Count)
		}
		if e.count() > math.MaxInt-total {
			return nil, fmt.Errorf("entry %q: count %d overflows the table total", e.Name, e.Count)
		}
		total += e.count()
		if _, err := e.components(); err != nil {
			return nil, err
		}
	}
	return &Table{Entries: entries}, nil
}

// LoadTable reads and parses the spawn table at path.
func LoadTable(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spawn table: %w", err)
	}
	return Parse(raw)
}

type attachFunc func(w *ecs.World, e ecs.Entity, value *yaml.Node) error

// Loader maps spawn table component names to Go component types.
type Loader struct {
	attach map[string]attachFunc
	log    *zap.Logger
}

func NewLoader(log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{attach: make(map[string]attachFunc), log: log}
}

// Bind decodes spawn table key name into T. T must be registered on the
// world passed to Spawn. A later Bind for the same name replaces it.
func Bind[T any](l *Loader, name string) {
	l.attach[name] = func(w *ecs.World, e ecs.Entity, value *yaml.Node) error {
		var v T
		if err := value.Decode(&v); err != nil {
			return err
		}
		return ecs.AddComponent(w, e, v)
	}
}

// Spawn creates every entity in t. Unknown component names are rejected
// before anything is created. When an entity fails to build it is deleted
// again and the error returned along with the entities spawned so far.
func (l *Loader) Spawn(w *ecs.World, t *Table) ([]ecs.Entity, error) {
	if err := l.check(t); err != nil {
		return nil, err
	}
	spawned := make([]ecs.Entity, 0, min(t.Total(), w.Pool().Capacity()-w.Len()))
	for i := range t.Entries {
		entry := &t.Entries[i]
		for n := 0; n < entry.count(); n++ {
			e, err := l.spawnOne(w, entry)
			if err != nil {
				return spawned, fmt.Errorf("spawn %q #%d: %w", entry.Name, n, err)
			}
			spawned = append(spawned, e)
		}
		l.log.Debug("spawned prefab",
			zap.String("name", entry.Name),
			zap.Int("count", entry.count()),
		)
	}
	l.log.Info("spawn table applied", zap.Int("entities", len(spawned)))
	return spawned, nil
}

func (l *Loader) check(t *Table) error {
	for i := range t.Entries {
		pairs, err := t.Entries[i].components()
		if err != nil {
			return err
		}
		for j := 0; j < len(pairs); j += 2 {
			if _, ok := l.attach[pairs[j].Value]; !ok {
				return fmt.Errorf("entry %q: %q (line %d): %w",
					t.Entries[i].Name, pairs[j].Value, pairs[j].Line, ErrUnknownComponent)
			}
		}
	}
	return nil
}

func (l *Loader) spawnOne(w *ecs.World, entry *Entry) (ecs.Entity, error) {
	e, err := w.CreateEntity()
	if err != nil {
		return 0, err
	}
	pairs, _ := entry.components()
	for j := 0; j < len(pairs); j += 2 {
		key, value := pairs[j], pairs[j+1]
		if err := l.attach[key.Value](w, e, value); err != nil {
			if derr := w.DeleteEntity(e); derr != nil {
				err = errors.Join(err, derr)
			}
			return 0, fmt.Errorf("component %s: %w", key.Value, err)
		}
	}
	return e, nil
}
