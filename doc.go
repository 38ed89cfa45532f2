// Package denly is a minimal HTTP server framework. It parses each inbound
// request, decodes its arguments, resolves it against a registered route
// table, invokes the matched handler, and composes the response.
//
// Handlers receive a per-request Context carrying the bound route
// parameters, the decoded arguments, and the response state:
//
//	type Handler func(ctx context.Context, c *Context) (any, error)
//
// Routes are registered with package-level functions, in resolution order:
//
//	r := denly.New(denly.WithLogger(logger))
//	denly.Get(r, "/users/:id<int>", getUser)
//	denly.Post(r, "/users", createUser)
//
// Patterns are made of static segments, named placeholders (":id"), typed
// placeholders (":id<int>", with int, float, bool, alpha, and uuid), and a
// trailing wildcard ("*rest"). GET routes also answer HEAD.
//
// Router middleware (Router.Use) wraps every request. Group middleware
// (WithGroupMiddleware) runs only for the group's routes, after the route is
// resolved, and may answer the request itself by not calling next.
//
// Read-only requests (GET, HEAD) take their arguments from the query string
// and never have their body read; every other method has its whole body
// decoded as url-encoded, multipart, or raw form arguments.
//
// Handler errors select the response status: an *HTTPError (or any
// StatusCoder) answers with its status, anything else, panics included,
// with 500. Unmatched requests get 404 without any handler running.
//
// A handler may call Context.Redirect. The server then writes a 301 with a
// Location header followed by the regular response on the same connection
// and closes it, so a redirecting handler should not return a body.
//
// The server runs every connection on its own goroutine and keeps a memory
// monitor ticking alongside:
//
//	err := r.ListenAndServe(ctx, cfg.Addr())
package denly
