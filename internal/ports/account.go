package ports

import "context"

// UserProfile is the subset of a Nakama account the chat needs to address a player.
type UserProfile struct {
	UserID      string
	Username    string
	DisplayName string
}

// AccountPort looks up player accounts.
type AccountPort interface {
	// LookupUsernames resolves usernames to profiles.
	// Names that do not belong to any account are omitted from the result.
	// Returns an error if the lookup itself fails.
	LookupUsernames(ctx context.Context, usernames []string) ([]UserProfile, error)
}
