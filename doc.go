// Package nextware registers error-returning handlers on a chi router with
// Express-style continuation semantics.
//
// A chain handler receives an explicit continuation:
//
//	func(w http.ResponseWriter, r *http.Request, next nextware.Next)
//
// and must either write a response or call next — with nil to proceed, with
// an error to divert into the error chain. A settling handler instead
// returns:
//
//	func(w http.ResponseWriter, r *http.Request) error
//
// and never sees the continuation: Wrap drives it on return. A nil result
// proceeds, a non-nil result (or a recovered panic) enters the error chain,
// and a handler that already started the response ends the chain without
// any continuation call. The continuation fires at most once per handler
// invocation no matter how many code paths try.
//
// Routers are built with NewRouter, or by wrapping an existing chi router
// with Augment:
//
//	rt := nextware.NewRouter()
//	rt.GetAsync("/users/{id}", func(w http.ResponseWriter, r *http.Request) error {
//		u, err := load(nextware.Param(r, "id"))
//		if err != nil {
//			return err
//		}
//		return json.NewEncoder(w).Encode(u)
//	})
//	rt.UseAsync(func(err error, w http.ResponseWriter, r *http.Request, next nextware.Next) {
//		// runs for any handler error above
//		next(err)
//	})
//	http.ListenAndServe(":8080", rt)
//
// Error-chain handlers take the error as a leading parameter and run only
// when an upstream handler failed. Param hooks registered with ParamAsync
// run before the route chain for matching URL parameters.
package nextware
