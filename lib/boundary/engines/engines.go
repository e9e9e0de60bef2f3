package engines

import (
	"fmt"
	"github.com/ValentinKolb/bKV/lib/boundary"
	"github.com/ValentinKolb/bKV/lib/boundary/engines/bolt"
	"github.com/ValentinKolb/bKV/lib/boundary/engines/mem"
	"github.com/ValentinKolb/bKV/lib/boundary/engines/sqlite"
	"sort"
)

// Implementation identifies an engine that can be served through the boundary
type Implementation string

const (
	ImplBolt   Implementation = bolt.Name
	ImplMem    Implementation = mem.Name
	ImplSqlite Implementation = sqlite.Name
)

var factories = map[Implementation]func() boundary.Engine{
	ImplBolt:   func() boundary.Engine { return bolt.NewBoltEngine(nil) },
	ImplMem:    func() boundary.Engine { return mem.NewMemEngine(nil) },
	ImplSqlite: func() boundary.Engine { return sqlite.NewSQLiteEngine(nil) },
}

// Names returns the identifiers of all known engines, sorted
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names
}

// Lookup creates a new engine of the given implementation with default options
func Lookup(name string) (boundary.Engine, error) {
	factory, ok := factories[Implementation(name)]
	if !ok {
		return nil, fmt.Errorf("unknown engine %q (expected one of: %v)", name, Names())
	}
	return factory(), nil
}

// NewBoundary creates a new engine of the given implementation and serves it through a boundary host
func NewBoundary(name string) (*boundary.Host, error) {
	engine, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return boundary.NewHost(engine), nil
}
