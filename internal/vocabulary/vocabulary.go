package vocabulary

import (
	"fmt"
	"strings"
)

// Dimension names one categorical reference table.
type Dimension string

const (
	City     Dimension = "city"
	Level    Dimension = "level"
	Industry Dimension = "industry"
	Degree   Dimension = "degree"
	Skill    Dimension = "skill"
)

// Dimensions lists every dimension in load order.
var Dimensions = []Dimension{City, Level, Industry, Degree, Skill}

var tables = map[Dimension]string{
	City:     "cities",
	Level:    "career_levels",
	Industry: "industries",
	Degree:   "degrees",
	Skill:    "skills",
}

// Table returns the backing table name.
func (d Dimension) Table() string {
	return tables[d]
}

// Valid reports whether d is a known dimension.
func (d Dimension) Valid() bool {
	_, ok := tables[d]
	return ok
}

// ParseDimension accepts a dimension or table name.
func ParseDimension(raw string) (Dimension, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	for dim, table := range tables {
		if key == string(dim) || key == table {
			return dim, nil
		}
	}
	return "", fmt.Errorf("unknown dimension %q", raw)
}

// Value is one row of a dimension table.
type Value struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Vocabulary is an immutable snapshot of all dimension values. Names are the
// only part ever shown to the model; ids only come back through Lookup.
type Vocabulary struct {
	values map[Dimension][]Value
	exact  map[Dimension]map[string]int64
	folded map[Dimension]map[string]int64
}

// New builds a vocabulary from per-dimension values. The input is copied.
func New(values map[Dimension][]Value) *Vocabulary {
	v := &Vocabulary{
		values: make(map[Dimension][]Value, len(Dimensions)),
		exact:  make(map[Dimension]map[string]int64, len(Dimensions)),
		folded: make(map[Dimension]map[string]int64, len(Dimensions)),
	}
	for _, dim := range Dimensions {
		src := values[dim]
		list := make([]Value, len(src))
		copy(list, src)
		exact := make(map[string]int64, len(list))
		folded := make(map[string]int64, len(list))
		for _, val := range list {
			name := strings.TrimSpace(val.Name)
			if name == "" {
				continue
			}
			if _, dup := exact[name]; !dup {
				exact[name] = val.ID
			}
			key := strings.ToLower(name)
			if _, dup := folded[key]; !dup {
				folded[key] = val.ID
			}
		}
		v.values[dim] = list
		v.exact[dim] = exact
		v.folded[dim] = folded
	}
	return v
}

// Values returns the ordered values of d.
func (v *Vocabulary) Values(d Dimension) []Value {
	out := make([]Value, len(v.values[d]))
	copy(out, v.values[d])
	return out
}

// Names returns the ordered names of d.
func (v *Vocabulary) Names(d Dimension) []string {
	out := make([]string, 0, len(v.values[d]))
	for _, val := range v.values[d] {
		out = append(out, val.Name)
	}
	return out
}

// Lookup resolves a name to its id. Exact matches win over case-insensitive ones.
func (v *Vocabulary) Lookup(d Dimension, name string) (int64, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, false
	}
	if id, ok := v.exact[d][name]; ok {
		return id, true
	}
	id, ok := v.folded[d][strings.ToLower(name)]
	return id, ok
}

// Ref resolves name to an optional id; nil means absent.
func (v *Vocabulary) Ref(d Dimension, name string) *int64 {
	id, ok := v.Lookup(d, name)
	if !ok {
		return nil
	}
	return &id
}

// NameOf returns the name for id, if present.
func (v *Vocabulary) NameOf(d Dimension, id int64) (string, bool) {
	for _, val := range v.values[d] {
		if val.ID == id {
			return val.Name, true
		}
	}
	return "", false
}
