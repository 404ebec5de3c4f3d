package domain

import "context"

// AccountResolver maps a user (and optional explicit account) to the account id
// trades should be booked against.
// This interface breaks the dependency of imports and reconciliation on the accounts module.
type AccountResolver interface {
	// Resolve returns explicitAccountID unchanged when it is non-empty.
	// Otherwise it returns an existing account for the user, creating the
	// user's default account exactly once if none exists.
	Resolve(ctx context.Context, userID, explicitAccountID string) (string, error)
}
