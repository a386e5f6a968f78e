// Package navigation models the screen stack the CLI moves through.
//
// Screens are addressed by expo-style paths. The first path segment names
// the group: "(auth)" for signed-out screens and "(tabs)" for the signed-in
// home.
package navigation

import (
	"strings"
	"sync"
)

const (
	RouteSignIn         = "/(auth)"
	RouteSignUp         = "/(auth)/signup"
	RouteResetPassword  = "/(auth)/resetPassword"
	RouteVerifyOTP      = "/(auth)/verifyOTP"
	RouteUpdatePassword = "/(auth)/updatePassword"
	RouteHome           = "/(tabs)"

	GroupAuth = "(auth)"
	GroupTabs = "(tabs)"
)

// Navigator moves between screens. Replace swaps the current screen,
// Push stacks a new one on top of it.
type Navigator interface {
	Replace(path string)
	Push(path string, params map[string]string)
}

// Location is one entry of the screen stack.
type Location struct {
	Path   string
	Params map[string]string
}

// Segments splits Path into its non-empty parts.
func (l Location) Segments() []string {
	return Segments(l.Path)
}

func Segments(path string) []string {
	var out []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Router is an in-memory Navigator. It is safe for concurrent use.
type Router struct {
	mu       sync.Mutex
	stack    []Location
	onChange func(Location)
}

var _ Navigator = (*Router)(nil)

// NewRouter starts at initial.
func NewRouter(initial string) *Router {
	return &Router{stack: []Location{{Path: initial}}}
}

// OnChange sets a callback run after every move, outside the router lock.
func (r *Router) OnChange(fn func(Location)) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

func (r *Router) Replace(path string) {
	r.mu.Lock()
	loc := Location{Path: path}
	if len(r.stack) == 0 {
		r.stack = append(r.stack, loc)
	} else {
		r.stack[len(r.stack)-1] = loc
	}
	fn := r.onChange
	r.mu.Unlock()

	if fn != nil {
		fn(loc)
	}
}

func (r *Router) Push(path string, params map[string]string) {
	loc := Location{Path: path, Params: copyParams(params)}

	r.mu.Lock()
	r.stack = append(r.stack, loc)
	fn := r.onChange
	r.mu.Unlock()

	if fn != nil {
		fn(loc)
	}
}

// Back pops the current screen. The last screen is never popped.
func (r *Router) Back() bool {
	r.mu.Lock()
	if len(r.stack) <= 1 {
		r.mu.Unlock()
		return false
	}
	r.stack = r.stack[:len(r.stack)-1]
	loc := r.stack[len(r.stack)-1]
	fn := r.onChange
	r.mu.Unlock()

	if fn != nil {
		fn(loc)
	}
	return true
}

func (r *Router) Current() Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.stack) == 0 {
		return Location{}
	}
	return r.stack[len(r.stack)-1]
}

// History returns a copy of the stack, bottom first.
func (r *Router) History() []Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Location, len(r.stack))
	copy(out, r.stack)
	return out
}

func (r *Router) Segments() []string {
	return r.Current().Segments()
}

// InAuthGroup reports whether the current screen belongs to "(auth)".
func (r *Router) InAuthGroup() bool {
	seg := r.Segments()
	return len(seg) > 0 && seg[0] == GroupAuth
}

func copyParams(p map[string]string) map[string]string {
	if p == nil {
		return nil
	}
	out := make(map[string]string, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
