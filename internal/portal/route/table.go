// Package route holds the static table of portal views and the guard chain
// each one declares. Patterns use chi syntax so a view can take parameters,
// e.g. /admin/users/{id}.
package route

import (
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/aussiebroadwan/immo/internal/portal/domain"
	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultTable []byte

var ErrInvalidTable = errors.New("route: invalid table")

// Entry is one view declaration as written in the table file.
type Entry struct {
	Path                       string   `yaml:"path"`
	Chain                      string   `yaml:"chain"`
	ExpectedRoles              []string `yaml:"expected_roles,omitempty"`
	RequiresDomainVerification bool     `yaml:"requires_domain_verification,omitempty"`
}

type file struct {
	Routes []Entry `yaml:"routes"`
}

// Table resolves request paths to route declarations. It is immutable once
// built and safe for concurrent use.
type Table struct {
	mux    *chi.Mux
	routes []domain.RouteMeta
	byPath map[string]domain.RouteMeta
}

// Default returns the built-in portal table.
func Default() (*Table, error) {
	return Parse(defaultTable)
}

// Load reads a table from a YAML file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read route table: %w", err)
	}
	return Parse(data)
}

// Parse builds a table from YAML. Every entry is validated; the first bad
// entry fails the whole table.
func Parse(data []byte) (*Table, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	if len(f.Routes) == 0 {
		return nil, fmt.Errorf("%w: no routes", ErrInvalidTable)
	}
	return New(f.Routes)
}

// New builds a table from entries.
func New(entries []Entry) (*Table, error) {
	t := &Table{
		mux:    chi.NewMux(),
		byPath: make(map[string]domain.RouteMeta, len(entries)),
	}
	noop := func(http.ResponseWriter, *http.Request) {}

	for i, e := range entries {
		meta, err := e.meta()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrInvalidTable, i, err)
		}
		if _, dup := t.byPath[meta.Pattern]; dup {
			return nil, fmt.Errorf("%w: duplicate path %q", ErrInvalidTable, meta.Pattern)
		}
		if err := register(t.mux, meta.Pattern, noop); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrInvalidTable, i, err)
		}
		t.byPath[meta.Pattern] = meta
		t.routes = append(t.routes, meta)
	}
	return t, nil
}

// chi panics on malformed patterns.
func register(mux *chi.Mux, pattern string, h http.HandlerFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pattern %q: %v", pattern, r)
		}
	}()
	mux.Get(pattern, h)
	return nil
}

func (e Entry) meta() (domain.RouteMeta, error) {
	path := normalize(e.Path)
	if !strings.HasPrefix(path, "/") {
		return domain.RouteMeta{}, fmt.Errorf("path %q must start with /", e.Path)
	}

	kind := domain.ChainKind(strings.ToLower(strings.TrimSpace(e.Chain)))
	if !kind.Valid() {
		return domain.RouteMeta{}, fmt.Errorf("path %q: unknown chain %q", e.Path, e.Chain)
	}

	roles := make([]domain.Role, 0, len(e.ExpectedRoles))
	for _, r := range e.ExpectedRoles {
		role, err := domain.ParseRole(r)
		if err != nil {
			return domain.RouteMeta{}, fmt.Errorf("path %q: %w", e.Path, err)
		}
		roles = append(roles, role)
	}
	if kind == domain.ChainRole && len(roles) == 0 {
		return domain.RouteMeta{}, fmt.Errorf("path %q: role chain needs expected_roles", e.Path)
	}

	return domain.RouteMeta{
		Pattern:                    path,
		Chain:                      kind,
		ExpectedRoles:              roles,
		RequiresDomainVerification: e.RequiresDomainVerification,
	}, nil
}

// normalize drops the query and any trailing slash so "/agency/team/?x=1"
// and "/agency/team" name the same view.
func normalize(path string) string {
	path = strings.TrimSpace(path)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}

// Resolve finds the declaration for a requested path. The query string is
// ignored.
func (t *Table) Resolve(path string) (domain.RouteMeta, bool) {
	path = normalize(path)
	if meta, ok := t.byPath[path]; ok {
		return meta, true
	}

	rctx := chi.NewRouteContext()
	if !t.mux.Match(rctx, http.MethodGet, path) {
		return domain.RouteMeta{}, false
	}
	meta, ok := t.byPath[rctx.RoutePattern()]
	return meta, ok
}

// Routes lists the declarations in table order.
func (t *Table) Routes() []domain.RouteMeta {
	out := make([]domain.RouteMeta, len(t.routes))
	copy(out, t.routes)
	return out
}
