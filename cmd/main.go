package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wtgo/gowetransfer/internal/app"
	"github.com/wtgo/gowetransfer/internal/config"
	"github.com/wtgo/gowetransfer/internal/utils"
	"github.com/wtgo/gowetransfer/wetransfer"
)

var (
	configPath   string
	transferName string
	links        []string
)

func main() {
	// Get default config path
	defaultConfigPath, err := config.DefaultConfigPath()
	if err != nil {
		defaultConfigPath = "./config.toml"
	}

	// Root command
	rootCmd := &cobra.Command{
		Use:   "gowetransfer",
		Short: "WeTransfer command line client",
		Long:  "Command line client for the WeTransfer public API. Creates a transfer, uploads files and links and prints the resulting short URL.",
	}

	// Send command
	sendCmd := &cobra.Command{
		Use:   "send [files...]",
		Short: "Send files and links in a new transfer",
		RunE:  runSend,
	}
	sendCmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "Path to config file")
	sendCmd.Flags().StringVarP(&transferName, "name", "n", "", "Transfer name")
	sendCmd.Flags().StringArrayVarP(&links, "link", "l", nil, "Link to include (repeatable)")

	// Generate-config command
	generateConfigCmd := &cobra.Command{
		Use:   "generate-config",
		Short: "Generate config",
		RunE: func(cmd *cobra.Command, args []string) error {
			return utils.GenerateConfig(configPath)
		},
	}
	generateConfigCmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "Path to config file")

	// Version command
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gowetransfer version %s\n", wetransfer.Version)
		},
	}

	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(generateConfigCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runSend(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && len(links) == 0 {
		return fmt.Errorf("nothing to send: pass file paths and/or --link URLs")
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Build container with shared dependencies
	container, err := app.NewContainer(cfg)
	if err != nil {
		return fmt.Errorf("failed to build container: %w", err)
	}

	container.Logger.Infof("Starting gowetransfer, version %s", wetransfer.Version)

	client := container.Client
	if err := client.Authorize(); err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	name := transferName
	if name == "" {
		name = cfg.TransferName
	}

	transfer, err := client.CreateTransfer(name)
	if err != nil {
		return fmt.Errorf("failed to create transfer: %w", err)
	}

	items := make([]wetransfer.Item, 0, len(args)+len(links))
	for _, path := range args {
		file, err := wetransfer.NewFile(path)
		if err != nil {
			return err
		}
		if cfg.ChunkSize > 0 {
			file.ChunkSize = cfg.ChunkSize
		}
		items = append(items, file)
	}
	for _, link := range links {
		items = append(items, wetransfer.NewLink(link, link))
	}

	if err := transfer.AddItems(items...); err != nil {
		return fmt.Errorf("failed to send transfer: %w", err)
	}

	fmt.Println(transfer.ShortenedURL)
	return nil
}
