package web

import "context"

type contextKey int

const userKey contextKey = iota

type User struct {
	Name string
}

func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func CurrentUser(ctx context.Context) (User, bool) {
	user, ok := ctx.Value(userKey).(User)
	if !ok || user.Name == "" {
		return User{}, false
	}
	return user, true
}
