package identity

import "context"

// AuthorKey is the durable slot holding the chosen identity.
const AuthorKey = "hx_author"

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=identity_test

// Storage is a small durable key/value store.
// Get reports false, with no error, for a key that was never set.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}
