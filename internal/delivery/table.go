// Package delivery holds the immutable emirate -> area -> fee reference table.
package delivery

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/example/zari-storefront/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed regions.yaml
var builtin []byte

// Region — эмират с тарифами доставки по районам.
type Region struct {
	ID        string             `yaml:"emirate" json:"region"`
	Centroid  domain.Coordinates `yaml:"centroid" json:"centroid"`
	SubRegion map[string]int64   `yaml:"cities" json:"sub_regions"`
}

// Table is safe for concurrent reads; it is never mutated after Load.
type Table struct {
	order   []string
	regions map[string]Region
}

// Default returns the table shipped with the binary.
func Default() *Table {
	t, err := parse(builtin)
	if err != nil {
		panic(fmt.Sprintf("delivery: builtin table: %v", err))
	}
	return t
}

// Load parses a YAML table from r.
func Load(r io.Reader) (*Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read delivery table: %w", err)
	}
	return parse(raw)
}

// LoadFile parses a YAML table from path.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open delivery table: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func parse(raw []byte) (*Table, error) {
	var regions []Region
	if err := yaml.Unmarshal(raw, &regions); err != nil {
		return nil, fmt.Errorf("parse delivery table: %w", err)
	}
	t := &Table{regions: make(map[string]Region, len(regions))}
	for _, r := range regions {
		if r.ID == "" {
			return nil, fmt.Errorf("delivery table: region without name")
		}
		if _, dup := t.regions[r.ID]; dup {
			return nil, fmt.Errorf("delivery table: duplicate region %q", r.ID)
		}
		for sub, fee := range r.SubRegion {
			if fee < 0 {
				return nil, fmt.Errorf("delivery table: negative fee for %s/%s", r.ID, sub)
			}
		}
		t.order = append(t.order, r.ID)
		t.regions[r.ID] = r
	}
	return t, nil
}

// Fee resolves the delivery fee; a lookup miss is 0, not an error.
func (t *Table) Fee(region, subRegion string) int64 {
	r, ok := t.regions[region]
	if !ok {
		return 0
	}
	return r.SubRegion[subRegion]
}

// Regions lists region ids in table order.
func (t *Table) Regions() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// SubRegions lists sub-region names of region, sorted. Unknown regions yield nil.
func (t *Table) SubRegions(region string) []string {
	r, ok := t.regions[region]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(r.SubRegion))
	for name := range r.SubRegion {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (t *Table) Region(id string) (Region, bool) {
	r, ok := t.regions[id]
	return r, ok
}

// Centroid returns the approximate center of region.
func (t *Table) Centroid(region string) (domain.Coordinates, bool) {
	r, ok := t.regions[region]
	if !ok || r.Centroid == (domain.Coordinates{}) {
		return domain.Coordinates{}, false
	}
	return r.Centroid, true
}
