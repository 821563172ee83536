package commands

import (
	"crypto/rand"
	"fmt"
	"os"

	"github.com/marmos91/openpgpcard/internal/card"
	"github.com/marmos91/openpgpcard/internal/store"
	"github.com/marmos91/openpgpcard/pkg/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file and a blank card store",
	Long: `Initialize a sample openpgpcard configuration file and, if its
store does not already exist, a blank application store with a freshly
generated AID.

By default, the configuration file is created at
$XDG_CONFIG_HOME/openpgpcard/config.yaml. Use --config to specify a
custom path.

Examples:
  # Initialize with default location
  openpgpcard init

  # Initialize with custom path
  openpgpcard init --config /etc/openpgpcard/config.yaml

  # Force overwrite an existing configuration file
  openpgpcard init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing configuration file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := GetConfigFile()
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	if !initForce {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", configPath)
		}
	}

	cfg := config.GetDefaultConfig()
	if err := config.SaveConfig(cfg, configPath); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	if err := bootstrapStore(cfg); err != nil {
		return fmt.Errorf("failed to initialize card store: %w", err)
	}

	cmd.Printf("Configuration file created at: %s\n", configPath)
	cmd.Printf("Card store initialized at: %s\n", cfg.Store.Path)
	cmd.Println("\nNext steps:")
	cmd.Println("  1. Edit the configuration file to customize your setup")
	cmd.Println("  2. Start the daemon with: openpgpcard serve")
	cmd.Printf("  3. Or specify a custom config: openpgpcard serve --config %s\n", configPath)

	return nil
}

// bootstrapStore opens (creating if necessary) the store at cfg.Store.Path,
// advances a fresh store past Creation via card.New, and assigns it a
// random AID if none has been written yet. The manufacturer ID is drawn
// from the 0xFF00-0xFFFE range spec §3.1 reserves for test/unmanaged
// instances, since this command has no manufacturer registry to draw
// a real one from.
func bootstrapStore(cfg *config.Config) error {
	s, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer s.Close()

	c, err := card.New(s, nil, nil)
	if err != nil {
		return err
	}

	manufacturer := cfg.Card.ManufacturerID
	serial := cfg.Card.Serial
	if manufacturer == ([2]byte{}) {
		var low [1]byte
		if _, err := rand.Read(low[:]); err != nil {
			return err
		}
		// 0xFFFF is reserved, so the low byte stays out of 0xFF.
		manufacturer = [2]byte{0xFF, low[0] % 0xFF}
	}
	if serial == ([4]byte{}) {
		if _, err := rand.Read(serial[:]); err != nil {
			return err
		}
	}
	return c.InitializeAID(manufacturer, serial)
}
