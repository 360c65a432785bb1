package internal

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Actions maps action names, as they appear in route destinations, to
// their handlers.
type Actions map[string]HandlerFunc

// Controller is a set of actions. A fresh controller is built for every
// request, so fields may hold per-request state.
//
//	type Posts struct{ post *model.Model }
//
//	func (p *Posts) Actions() mvc.Actions {
//	    return mvc.Actions{"index": p.index, "show": p.show}
//	}
type Controller interface {
	Actions() Actions
}

// FilteredController is implemented by controllers with before/after filters.
type FilteredController interface {
	Controller
	Filters() Filters
}

// ControllerFactory builds the controller handling one request.
type ControllerFactory func() Controller

// Filters lists the filters run around an action, in order.
type Filters struct {
	Before []Filter
	After  []Filter
}

// Filter is a HandlerFunc limited to a subset of actions.
type Filter struct {
	fn     HandlerFunc
	only   []string
	except []string
}

// FilterOption limits the actions a filter applies to.
type FilterOption func(*Filter)

// Only runs the filter for the named actions only.
func Only(actions ...string) FilterOption {
	return func(f *Filter) {
		f.only = append(f.only, actions...)
	}
}

// Except skips the filter for the named actions.
func Except(actions ...string) FilterOption {
	return func(f *Filter) {
		f.except = append(f.except, actions...)
	}
}

// NewFilter creates a filter. Without options it applies to every action.
//
//	mvc.Filters{
//	    Before: []mvc.Filter{mvc.NewFilter(p.load, mvc.Only("show", "edit", "save"))},
//	}
func NewFilter(fn HandlerFunc, opts ...FilterOption) Filter {
	f := Filter{fn: fn}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// Applies reports whether the filter runs for action.
func (f Filter) Applies(action string) bool {
	if f.fn == nil {
		return false
	}
	has := func(list []string) bool {
		return slices.ContainsFunc(list, func(a string) bool { return sameName(a, action) })
	}
	if len(f.only) > 0 && !has(f.only) {
		return false
	}
	return !has(f.except)
}

// foldName is the case-insensitive lookup key of a controller or action
// name. Casers are stateful, so each call gets its own.
func foldName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

func sameName(a, b string) bool {
	return foldName(a) == foldName(b)
}

// lookupAction finds name in actions, exact match first.
func lookupAction(actions Actions, name string) (HandlerFunc, bool) {
	if h, ok := actions[name]; ok && h != nil {
		return h, true
	}
	for k, h := range actions {
		if h != nil && sameName(k, name) {
			return h, true
		}
	}
	return nil, false
}
