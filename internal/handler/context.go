package handler

import "context"

type accountIDKey struct{}
type adminEmailKey struct{}

func WithAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, accountIDKey{}, accountID)
}

func AccountIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(accountIDKey{}).(string)
	return id
}

func WithAdminEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, adminEmailKey{}, email)
}

func AdminEmailFromContext(ctx context.Context) string {
	email, _ := ctx.Value(adminEmailKey{}).(string)
	return email
}
