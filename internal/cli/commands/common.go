package commands

import (
	"fmt"

	"github.com/learnd-dev/learnd/internal/cli/userconfig"
)

// resolveServer returns the configured API server URL, preferring an explicit
// flag value over the stored user config.
func resolveServer(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	serverURL, err := userconfig.GetServerURL()
	if err != nil {
		return "", fmt.Errorf("failed to load user config: %w", err)
	}
	if serverURL == "" {
		return "", fmt.Errorf("no server configured. Run 'learnd login --server <url>' first")
	}

	return serverURL, nil
}
