package navigation

// GuardState is the part of the auth state the guard reacts to.
type GuardState struct {
	IsAuthenticated bool
	IsLoading       bool
	// UpdatingPassword holds while a verified reset flow awaits the new
	// password. The recovery session is authenticated, but the user must
	// stay on the update screen.
	UpdatingPassword bool
}

// Guard keeps the current screen consistent with the auth state:
// signed-in users leave the auth group, signed-out users enter it.
type Guard struct {
	router *Router
}

func NewGuard(router *Router) *Guard {
	return &Guard{router: router}
}

// Target returns the path the guard would move to, if any.
func (g *Guard) Target(st GuardState) (string, bool) {
	if st.IsLoading {
		return "", false
	}
	inAuth := g.router.InAuthGroup()

	switch {
	case st.IsAuthenticated && inAuth:
		if st.UpdatingPassword {
			return "", false
		}
		return RouteHome, true
	case !st.IsAuthenticated && !inAuth:
		return RouteSignIn, true
	}
	return "", false
}

// Apply moves the router when Target says so and reports whether it did.
func (g *Guard) Apply(st GuardState) bool {
	target, ok := g.Target(st)
	if !ok || g.router.Current().Path == target {
		return false
	}
	g.router.Replace(target)
	return true
}
