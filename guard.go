package nextware

import "sync"

// onceNext returns a continuation that forwards only its first invocation,
// whatever the argument. Later calls are silent no-ops.
func onceNext(next Next) Next {
	var once sync.Once
	return func(err error) {
		once.Do(func() { next(err) })
	}
}
