package session

import (
	"encoding/json"
	"fmt"

	"github.com/jonathan/jobboard/internal/types"
	"go.uber.org/zap"
)

// ProfileKey returns the storage key of a user's local profile record.
func ProfileKey(username string) string {
	return "userProfile_" + username
}

// LoadProfile returns the locally stored profile for username, or the
// placeholder profile when none is stored or the record is corrupt.
func (s *Store) LoadProfile(username string) types.Profile {
	data, err := s.storage.Get(ProfileKey(username))
	if err != nil {
		return types.DefaultProfile()
	}

	profile := types.DefaultProfile()
	if err := json.Unmarshal(data, &profile); err != nil {
		s.logger.Debug("ignoring corrupt profile record", zap.String("username", username), zap.Error(err))
		return types.DefaultProfile()
	}
	return profile
}

// SaveProfile stores profile for username.
func (s *Store) SaveProfile(username string, profile types.Profile) error {
	if username == "" {
		return fmt.Errorf("username is required")
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := s.storage.Put(ProfileKey(username), data); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}
