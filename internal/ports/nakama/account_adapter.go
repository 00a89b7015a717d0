package nakama

import (
	"context"
	"fmt"

	"tienlenchat/internal/ports"

	"github.com/heroiclabs/nakama-common/api"
)

// usersByUsername is the part of runtime.NakamaModule the account adapter needs.
type usersByUsername interface {
	UsersGetUsername(ctx context.Context, usernames []string) ([]*api.User, error)
}

// NakamaAccountAdapter implements ports.AccountPort using Nakama's user API.
type NakamaAccountAdapter struct {
	nk usersByUsername
}

// NewNakamaAccountAdapter creates a new account adapter.
func NewNakamaAccountAdapter(nk usersByUsername) *NakamaAccountAdapter {
	return &NakamaAccountAdapter{nk: nk}
}

// LookupUsernames resolves usernames to user profiles.
// Unknown usernames are silently dropped by Nakama.
func (a *NakamaAccountAdapter) LookupUsernames(ctx context.Context, usernames []string) ([]ports.UserProfile, error) {
	if len(usernames) == 0 {
		return nil, nil
	}
	users, err := a.nk.UsersGetUsername(ctx, usernames)
	if err != nil {
		return nil, fmt.Errorf("failed to get users by username: %w", err)
	}

	profiles := make([]ports.UserProfile, 0, len(users))
	for _, u := range users {
		if u == nil || u.GetId() == "" {
			continue
		}
		profiles = append(profiles, ports.UserProfile{
			UserID:      u.GetId(),
			Username:    u.GetUsername(),
			DisplayName: u.GetDisplayName(),
		})
	}
	return profiles, nil
}

var _ ports.AccountPort = (*NakamaAccountAdapter)(nil)
