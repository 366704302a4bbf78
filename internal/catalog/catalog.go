// Package catalog holds the static product table used to quote prices.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var (
	ErrUnknownModel   = errors.New("unknown model")
	ErrUnknownStorage = errors.New("storage option not offered")
	ErrUnknownColor   = errors.New("color not offered")
)

// Entry is one model in the catalog. Storage maps a capacity in GB to the
// surcharge added to BasePrice.
type Entry struct {
	Model     string      `yaml:"name" json:"model"`
	BasePrice int         `yaml:"base_price" json:"base_price"`
	Storage   map[int]int `yaml:"storage" json:"storage"`
	Colors    []string    `yaml:"colors" json:"colors"`
}

// StorageOptions returns the offered capacities in ascending order.
func (e Entry) StorageOptions() []int {
	opts := make([]int, 0, len(e.Storage))
	for gb := range e.Storage {
		opts = append(opts, gb)
	}
	sort.Ints(opts)
	return opts
}

// Catalog is immutable after Load and safe for concurrent reads.
type Catalog struct {
	entries []Entry
	byModel map[string]int
}

type catalogFile struct {
	Models []Entry `yaml:"models"`
}

// Load parses a catalog document.
func Load(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if len(f.Models) == 0 {
		return nil, errors.New("catalog has no models")
	}

	c := &Catalog{byModel: make(map[string]int, len(f.Models))}
	for _, e := range f.Models {
		key := normalize(e.Model)
		if key == "" {
			return nil, errors.New("catalog entry with empty model name")
		}
		if _, dup := c.byModel[key]; dup {
			return nil, fmt.Errorf("duplicate catalog model %q", e.Model)
		}
		if len(e.Storage) == 0 || len(e.Colors) == 0 {
			return nil, fmt.Errorf("catalog model %q needs storage and colors", e.Model)
		}
		c.byModel[key] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return c, nil
}

// Default returns the catalog shipped with the binary.
func Default() *Catalog {
	c, err := Load(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Entries returns every model in catalog order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Lookup finds a model by name, ignoring case and surrounding whitespace.
func (c *Catalog) Lookup(model string) (Entry, bool) {
	i, ok := c.byModel[normalize(model)]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Price returns the price for a model/color/storage combination. A request is
// only valid when the model exists, offers the storage capacity, and comes in
// the color.
func (c *Catalog) Price(model, color string, storageGB int) (int, error) {
	e, ok := c.Lookup(model)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownModel, model)
	}
	surcharge, ok := e.Storage[storageGB]
	if !ok {
		return 0, fmt.Errorf("%w: %s %dGB", ErrUnknownStorage, e.Model, storageGB)
	}
	if !e.hasColor(color) {
		return 0, fmt.Errorf("%w: %s in %s", ErrUnknownColor, e.Model, color)
	}
	return e.BasePrice + surcharge, nil
}

func (e Entry) hasColor(color string) bool {
	want := normalize(color)
	for _, c := range e.Colors {
		if normalize(c) == want {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
