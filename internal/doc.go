// Package internal implements the mvc framework. Import
// "github.com/dmitrymomot/mvc" instead, which re-exports the public API.
//
// # Request pipeline
//
// An App wires a chi mux in front of the Kernel:
//
//	middleware (chi) -> static files / health -> Kernel
//
// The Kernel handles every other request:
//
//  1. router.Process resolves the path to "Controller::action", the
//     captured params and the response extension.
//  2. The controller factory registered under the controller name builds a
//     fresh controller. An unknown controller or action is a 500.
//  3. Before filters run in order. A filter that returns an error or
//     writes a response stops the chain.
//  4. The action runs, then the after filters.
//  5. A request nothing was written for gets 204 No Content.
//
// Errors from filters and actions go to the ErrorHandler when one is set,
// otherwise HTTPErrors answer with their code and message and everything
// else with a 500. A 404 (HTTPError or model.ErrRecordNotFound) is
// rendered by the registered 404 route when there is one. A request no
// route matches is answered by the 404 route, or by a plain 404 when
// none is registered.
//
// # Controllers
//
//	type Posts struct {
//	    post *model.Model
//	}
//
//	func (p *Posts) Actions() internal.Actions {
//	    return internal.Actions{"index": p.index, "show": p.show}
//	}
//
//	func (p *Posts) Filters() internal.Filters {
//	    return internal.Filters{
//	        Before: []internal.Filter{internal.NewFilter(p.load, internal.Only("show"))},
//	    }
//	}
//
//	func (p *Posts) show(c internal.Context) error {
//	    return c.Render(http.StatusOK, map[string]any{"post": c.Get(postKey{})})
//	}
//
// Context.Render picks the view "<controller>/<action>" and, for requests
// with an extension (/posts/1.json), "<controller>/<action>.<ext>".
package internal
