package router

import (
	"maps"
	"regexp"
	"slices"
	"strings"
	"sync"
)

// Reserved route names.
const (
	RootName     = "root"
	NotFoundName = "404"
)

// DestinationSeparator splits a destination into controller and method.
const DestinationSeparator = "::"

// Route is a single routing rule: a pattern, a destination and the HTTP
// methods it answers to. Routes are configured fluently right after
// registration and must not be modified once requests are being served.
type Route struct {
	name        string
	pattern     string
	destination string
	methods     []string
	args        []string
	defaults    map[string]string

	mu       sync.Mutex
	matcher  *regexp.Regexp
	compiled uint64
}

func newRoute(pattern, name string) *Route {
	return &Route{
		name:     name,
		pattern:  pattern,
		methods:  []string{"GET", "POST"},
		defaults: make(map[string]string),
	}
}

// To sets the destination, encoded as "Controller::method".
// Capture groups can be referenced with $name or ${name}.
func (r *Route) To(destination string) *Route {
	r.destination = destination
	return r
}

// Method replaces the set of allowed HTTP methods. Matching is case-insensitive.
func (r *Route) Method(methods ...string) *Route {
	set := make([]string, 0, len(methods))
	for _, m := range methods {
		m = strings.ToUpper(strings.TrimSpace(m))
		if m != "" && !slices.Contains(set, m) {
			set = append(set, m)
		}
	}
	r.methods = set
	return r
}

// Args declares the positional arguments passed to the action.
// An argument naming a capture group resolves to the captured value.
func (r *Route) Args(args ...string) *Route {
	r.args = append(r.args[:0], args...)
	return r
}

// Defaults sets fallback parameter values.
func (r *Route) Defaults(defaults map[string]string) *Route {
	maps.Copy(r.defaults, defaults)
	return r
}

// Name returns the route name, empty for anonymous routes.
func (r *Route) Name() string { return r.name }

// Pattern returns the pattern as registered.
func (r *Route) Pattern() string { return r.pattern }

// Destination returns the destination template.
func (r *Route) Destination() string { return r.destination }

// Methods returns the allowed HTTP methods in upper case.
func (r *Route) Methods() []string { return slices.Clone(r.methods) }

// Allows reports whether the route answers to the given HTTP method.
func (r *Route) Allows(method string) bool {
	return slices.Contains(r.methods, strings.ToUpper(method))
}

// compile returns the route matcher for the given token table revision,
// rebuilding it when the table changed since the last call.
func (r *Route) compile(revision uint64, tokens map[string]string, extensions []string) (*regexp.Regexp, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.matcher != nil && r.compiled == revision {
		return r.matcher, nil
	}

	m, err := compilePattern(r.pattern, tokens, extensions)
	if err != nil {
		return nil, err
	}
	r.matcher = m
	r.compiled = revision
	return m, nil
}

var placeholderRe = regexp.MustCompile(`:([A-Za-z_][A-Za-z0-9_]*)`)

// compilePattern substitutes tokens into pattern and anchors the result,
// allowing an optional response extension before the end of the path.
// The stored pattern is left untouched.
func compilePattern(pattern string, tokens map[string]string, extensions []string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	b.WriteString(substituteTokens(pattern, tokens))
	if len(extensions) > 0 {
		quoted := make([]string, len(extensions))
		for i, ext := range extensions {
			quoted[i] = regexp.QuoteMeta(ext)
		}
		b.WriteString(`(?:\.(?P<extension>` + strings.Join(quoted, "|") + `))?`)
	}
	b.WriteString("$")

	return regexp.Compile(b.String())
}

// substituteTokens replaces every :name placeholder with its registered
// fragment. Placeholders without a token capture one path segment.
// The "(?:" group prefix and POSIX classes inside brackets such as
// "[[:alpha:]]" are not placeholders.
func substituteTokens(pattern string, tokens map[string]string) string {
	inClass := charClasses(pattern)
	var b strings.Builder
	last := 0
	for _, loc := range placeholderRe.FindAllStringSubmatchIndex(pattern, -1) {
		start, end := loc[0], loc[1]
		if (start > 0 && pattern[start-1] == '?') || inClass[start] {
			continue
		}
		name := pattern[loc[2]:loc[3]]
		b.WriteString(pattern[last:start])
		if fragment, ok := tokens[name]; ok {
			b.WriteString(fragment)
		} else {
			b.WriteString("(?P<" + name + ">[^/.]+)")
		}
		last = end
	}
	b.WriteString(pattern[last:])
	return b.String()
}

// charClasses marks the bytes of pattern that sit inside a bracketed
// character class. Escapes are honored and a "]" right after "[" or "[^"
// is a literal.
func charClasses(pattern string) []bool {
	in := make([]bool, len(pattern))
	inside := false
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if inside {
			in[i] = true
		}
		switch {
		case c == '\\':
			if i+1 < len(in) {
				in[i+1] = inside
			}
			i++
		case c == '[':
			if inside && i+1 < len(pattern) && pattern[i+1] == ':' {
				// POSIX class "[:name:]" nested in a bracket expression.
				if j := strings.Index(pattern[i+2:], ":]"); j >= 0 {
					for k := i; k < i+2+j+2; k++ {
						in[k] = true
					}
					i += 2 + j + 1
					continue
				}
			}
			if !inside {
				inside = true
				in[i] = true
				if i+1 < len(pattern) && pattern[i+1] == '^' {
					i++
					in[i] = true
				}
				if i+1 < len(pattern) && pattern[i+1] == ']' {
					i++
					in[i] = true
				}
			}
		case c == ']' && inside:
			inside = false
		}
	}
	return in
}
