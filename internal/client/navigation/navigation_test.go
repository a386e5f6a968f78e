package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegments(t *testing.T) {
	assert.Equal(t, []string{"(auth)", "verifyOTP"}, Segments(RouteVerifyOTP))
	assert.Equal(t, []string{"(tabs)"}, Segments(RouteHome))
	assert.Nil(t, Segments("/"))
}

func TestRouter_PushReplaceBack(t *testing.T) {
	r := NewRouter(RouteSignIn)
	var seen []string
	r.OnChange(func(l Location) { seen = append(seen, l.Path) })

	params := map[string]string{"email": "user@example.com"}
	r.Push(RouteResetPassword, nil)
	r.Push(RouteVerifyOTP, params)
	params["email"] = "mutated"

	cur := r.Current()
	assert.Equal(t, RouteVerifyOTP, cur.Path)
	assert.Equal(t, "user@example.com", cur.Params["email"], "params are copied")
	assert.True(t, r.InAuthGroup())

	r.Replace(RouteUpdatePassword)
	require.Len(t, r.History(), 3)
	assert.Equal(t, RouteUpdatePassword, r.Current().Path)

	assert.True(t, r.Back())
	assert.Equal(t, RouteResetPassword, r.Current().Path)
	assert.True(t, r.Back())
	assert.False(t, r.Back(), "root screen stays")

	assert.Equal(t, []string{RouteResetPassword, RouteVerifyOTP, RouteUpdatePassword, RouteResetPassword, RouteSignIn}, seen)
}

func TestRouter_ReplaceOnEmpty(t *testing.T) {
	r := &Router{}
	assert.Equal(t, Location{}, r.Current())
	r.Replace(RouteHome)
	assert.Equal(t, RouteHome, r.Current().Path)
	assert.False(t, r.InAuthGroup())
}

func TestGuard(t *testing.T) {
	tests := []struct {
		name   string
		start  string
		state  GuardState
		moved  bool
		expect string
	}{
		{"loading does nothing", RouteHome, GuardState{IsLoading: true}, false, RouteHome},
		{"signed out outside auth", RouteHome, GuardState{}, true, RouteSignIn},
		{"signed out inside auth", RouteSignUp, GuardState{}, false, RouteSignUp},
		{"signed in inside auth", RouteSignIn, GuardState{IsAuthenticated: true}, true, RouteHome},
		{"signed in at home", RouteHome, GuardState{IsAuthenticated: true}, false, RouteHome},
		{"recovery session on update screen", RouteUpdatePassword, GuardState{IsAuthenticated: true, UpdatingPassword: true}, false, RouteUpdatePassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRouter(tt.start)
			g := NewGuard(r)
			assert.Equal(t, tt.moved, g.Apply(tt.state))
			assert.Equal(t, tt.expect, r.Current().Path)
		})
	}
}
