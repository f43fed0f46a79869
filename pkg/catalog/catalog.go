// Package catalog loads API definitions from disk and indexes their declared
// operations for request routing.
//
// A Catalog is an immutable snapshot. The Store swaps whole snapshots
// atomically, so a request that captured a catalog keeps a consistent view
// while a reload builds its replacement.
package catalog

import (
	"sort"
	"strings"
	"time"

	"switchboard-hq/switchboard/pkg/apic/ast"
)

// Route is one declared path of one definition.
type Route struct {
	Definition *ast.Definition

	// Path is the path template as declared under paths.
	Path string

	// Template is the full URL template, basePath included.
	Template string

	Methods map[string]*ast.Method

	segments []segment
}

type segment struct {
	literal string
	param   string
}

// Match is the result of routing an inbound request.
type Match struct {
	Route      *Route
	Definition *ast.Definition
	Method     *ast.Method

	// Operation is the declared operation used for dispatch: the path
	// template relative to basePath and the lowercase verb.
	Operation ast.Operation

	PathParams map[string]string
}

// Catalog is an immutable set of definitions with a route index.
type Catalog struct {
	definitions []*ast.Definition
	routes      []*Route
	version     string
	loadedAt    time.Time
}

// New builds a catalog. Two definitions declaring the same route and verb
// are rejected with a ConflictError.
func New(defs []*ast.Definition, version string) (*Catalog, error) {
	c := &Catalog{
		definitions: defs,
		version:     version,
		loadedAt:    time.Now(),
	}
	owners := make(map[string]*ast.Definition)
	for _, def := range defs {
		paths := make([]string, 0, len(def.Paths))
		for p := range def.Paths {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			r := newRoute(def, p)
			for verb := range r.Methods {
				key := verb + " " + shape(r.segments)
				if prev, ok := owners[key]; ok {
					return nil, &ConflictError{Route: r.Template, Verb: verb, First: prev.SourceFile, Second: def.SourceFile}
				}
				owners[key] = def
			}
			c.routes = append(c.routes, r)
		}
	}
	return c, nil
}

func newRoute(def *ast.Definition, path string) *Route {
	template := joinURL(def.BasePath, path)
	return &Route{
		Definition: def,
		Path:       path,
		Template:   template,
		Methods:    def.Paths[path],
		segments:   parseSegments(template),
	}
}

func joinURL(base, path string) string {
	base = strings.TrimRight(base, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

func parseSegments(template string) []segment {
	parts := splitPath(template)
	segs := make([]segment, len(parts))
	for i, p := range parts {
		if strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") && len(p) > 2 {
			segs[i] = segment{param: p[1 : len(p)-1]}
		} else {
			segs[i] = segment{literal: p}
		}
	}
	return segs
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// shape renders segments with parameter names erased.
func shape(segs []segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteByte('/')
		if s.param != "" {
			b.WriteString("{}")
		} else {
			b.WriteString(s.literal)
		}
	}
	return b.String()
}

// match reports whether urlParts fits the route and how specific the fit
// is: a bitmask with one bit per literal segment, leftmost most significant.
func (r *Route) match(urlParts []string) (map[string]string, uint64, bool) {
	if len(urlParts) != len(r.segments) {
		return nil, 0, false
	}
	var score uint64
	var params map[string]string
	for i, s := range r.segments {
		score <<= 1
		if s.param != "" {
			if urlParts[i] == "" {
				return nil, 0, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[s.param] = urlParts[i]
			continue
		}
		if s.literal != urlParts[i] {
			return nil, 0, false
		}
		score |= 1
	}
	return params, score, true
}

// Match resolves verb and urlPath to a declared operation. Literal segments
// win over templated ones. It returns ErrNotFound when no path matches and
// ErrMethodNotAllowed when paths match but none declares the verb.
func (c *Catalog) Match(verb, urlPath string) (*Match, error) {
	verb = strings.ToLower(verb)
	parts := splitPath(urlPath)

	var (
		best       *Route
		bestScore  uint64
		bestParams map[string]string
		pathFound  bool
	)
	for _, r := range c.routes {
		params, score, ok := r.match(parts)
		if !ok {
			continue
		}
		pathFound = true
		if _, ok := r.Methods[verb]; !ok {
			continue
		}
		if best == nil || score > bestScore {
			best, bestScore, bestParams = r, score, params
		}
	}
	if best == nil {
		if pathFound {
			return nil, ErrMethodNotAllowed
		}
		return nil, ErrNotFound
	}
	if bestParams == nil {
		bestParams = map[string]string{}
	}
	return &Match{
		Route:      best,
		Definition: best.Definition,
		Method:     best.Methods[verb],
		Operation:  ast.Operation{Path: best.Path, Verb: verb},
		PathParams: bestParams,
	}, nil
}

// AllowedMethods lists the verbs declared for urlPath, uppercase and sorted.
func (c *Catalog) AllowedMethods(urlPath string) []string {
	parts := splitPath(urlPath)
	seen := make(map[string]bool)
	for _, r := range c.routes {
		if _, _, ok := r.match(parts); !ok {
			continue
		}
		for verb := range r.Methods {
			seen[strings.ToUpper(verb)] = true
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Definitions returns the catalog's definitions in load order.
func (c *Catalog) Definitions() []*ast.Definition {
	return c.definitions
}

// Definition returns the definition with the given ID (title@version).
func (c *Catalog) Definition(id string) *ast.Definition {
	for _, d := range c.definitions {
		if d.ID() == id {
			return d
		}
	}
	return nil
}

// Routes returns every indexed route.
func (c *Catalog) Routes() []*Route {
	return c.routes
}

// Len returns the number of definitions.
func (c *Catalog) Len() int {
	return len(c.definitions)
}

// Version identifies the loaded content.
func (c *Catalog) Version() string {
	return c.version
}

// LoadedAt returns when the catalog was built.
func (c *Catalog) LoadedAt() time.Time {
	return c.loadedAt
}
