package route

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/tuiroute/internal/model"
)

// Built-in route ids.
const (
	TokyoKyotoID = "tokyo_kyoto"
	SprintID     = "sprint"
)

func builtinRoutes() []model.Route {
	return []model.Route{
		{
			ID:          TokyoKyotoID,
			Name:        "Tokyo → Kyoto",
			Description: "Kana to English progression.",
			Segments: []model.Segment{
				{DurationSec: 20, WordPoolID: "kana"},
				{DurationSec: 20, WordPoolID: "mixed", SpeedHint: "faster"},
				{DurationSec: 20, WordPoolID: "long"},
			},
		},
		{
			ID:          SprintID,
			Name:        "Typing Sprint",
			Description: "Sixty seconds, easy words first, hard words last.",
			Segments: []model.Segment{
				{DurationSec: 20, WordPoolID: "easy"},
				{DurationSec: 20, WordPoolID: "medium"},
				{DurationSec: 20, WordPoolID: "hard"},
			},
		},
	}
}

// Registry maps route ids to route definitions.
type Registry struct {
	routes map[string]model.Route
}

// NewRegistry returns a registry holding the built-in routes.
func NewRegistry() *Registry {
	r := &Registry{routes: map[string]model.Route{}}
	for _, rt := range builtinRoutes() {
		r.routes[rt.ID] = rt
	}
	return r
}

// Add registers a route, replacing any route with the same id.
func (r *Registry) Add(rt model.Route) error {
	if strings.TrimSpace(rt.ID) == "" {
		return fmt.Errorf("route id is empty")
	}
	r.routes[rt.ID] = rt
	return nil
}

// LoadFile decodes a TOML route file. A missing id defaults to the file stem.
func LoadFile(path string) (model.Route, error) {
	var rt model.Route
	if _, err := toml.DecodeFile(path, &rt); err != nil {
		return model.Route{}, fmt.Errorf("failed to decode route %s: %w", path, err)
	}
	if strings.TrimSpace(rt.ID) == "" {
		rt.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if rt.Name == "" {
		rt.Name = rt.ID
	}
	return rt, nil
}

// LoadDir adds every *.toml route in dir. A missing directory is not an error.
func (r *Registry) LoadDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read route directory: %w", err)
	}
	var loaded []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		rt, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return loaded, err
		}
		if err := r.Add(rt); err != nil {
			return loaded, err
		}
		loaded = append(loaded, rt.ID)
	}
	return loaded, nil
}

// Get returns the route with the given id.
func (r *Registry) Get(id string) (model.Route, bool) {
	rt, ok := r.routes[id]
	return rt, ok
}

// List returns all routes sorted by id.
func (r *Registry) List() []model.Route {
	out := make([]model.Route, 0, len(r.routes))
	for _, rt := range r.routes {
		out = append(out, rt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
