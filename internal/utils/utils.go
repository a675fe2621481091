package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Required. WeTransfer API key, see https://developers.wetransfer.com
api_key = "MYWETRANSFERAPIKEY"

# Optional API server, default "dev.wetransfer.com". A bare host is reached
# over https; a full http(s):// URL is used as-is.
server = "dev.wetransfer.com"

# Optional log level, default "info"
loglevel = "info"

# Optional default transfer name
transfer_name = "WT Transfer"

# Optional upload chunk size in bytes, default 6291456 (6 MiB)
chunk_size = 6291456

# Optional number of file parts uploaded in parallel, default 1 (sequential)
part_concurrency = 1
`

// GenerateConfig generates a commented configuration file template
func GenerateConfig(configPath string) error {
	fmt.Printf("Generating config %s\n", configPath)

	// Check if config file already exists and back it up
	if _, err := os.Stat(configPath); err == nil {
		backupPath := configPath + ".bak"
		fmt.Printf("Backing up config %s\n", configPath)
		if err := os.Rename(configPath, backupPath); err != nil {
			return fmt.Errorf("failed to backup config: %w", err)
		}
	}

	// Create parent directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	fmt.Printf("Writing %s\n", configPath)
	if err := os.WriteFile(configPath, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
