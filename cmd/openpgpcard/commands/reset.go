package commands

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/marmos91/openpgpcard/internal/card"
	"github.com/marmos91/openpgpcard/internal/cardio"
	"github.com/marmos91/openpgpcard/internal/store"
	"github.com/marmos91/openpgpcard/pkg/config"
	"github.com/spf13/cobra"
)

var (
	resetAdminPIN string
	resetForce    bool
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Factory-reset the card application",
	Long: `Wipe all reference data, key material, and data objects back to
factory defaults by issuing TERMINATE DF followed by ACTIVATE FILE
against the configured store, the same transition a physical card goes
through when its admin PIN is deliberately exhausted.

The Application Identifier written by "openpgpcard init" is untouched:
only application state is wiped, never the AID.

Examples:
  # Reset using the factory-default admin PIN
  openpgpcard reset

  # Reset using a non-default admin PIN
  openpgpcard reset --admin-pin 87654321`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().StringVar(&resetAdminPIN, "admin-pin", "12345678", "admin PIN (PW3) to authorize the reset")
	resetCmd.Flags().BoolVar(&resetForce, "force", false, "skip the confirmation prompt")
}

func runReset(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if !resetForce {
		cmd.Printf("This will erase all keys, PINs, and data objects at %s.\n", cfg.Store.Path)
		cmd.Print("Continue? [y/N]: ")
		var answer string
		fmt.Fscanln(os.Stdin, &answer)
		if answer != "y" && answer != "Y" {
			cmd.Println("Aborted.")
			return nil
		}
	}

	s, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer s.Close()

	c, err := card.New(s, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize card: %w", err)
	}

	if err := resetTransitions(c); err != nil {
		return err
	}

	cmd.Println("Card application reset to factory defaults.")
	return nil
}

// resetTransitions drives c's dispatcher through VERIFY PW3, TERMINATE
// DF, and ACTIVATE FILE, the same command sequence an administrator
// would send over the wire, so a CLI-triggered reset exercises
// identical semantics to one requested by a connected host.
func resetTransitions(c *card.Card) error {
	if sw := dispatchSW(c, verifyPW3APDU(resetAdminPIN)); sw != cardio.SWSuccess {
		return fmt.Errorf("PW3 verification failed: SW=%#04x", uint16(sw))
	}
	if sw := dispatchSW(c, []byte{0x00, card.InsTerminateDF, 0x00, 0x00}); sw != cardio.SWSuccess {
		return fmt.Errorf("TERMINATE DF failed: SW=%#04x", uint16(sw))
	}
	if sw := dispatchSW(c, []byte{0x00, card.InsActivateFile, 0x00, 0x00}); sw != cardio.SWSuccess {
		return fmt.Errorf("ACTIVATE FILE failed: SW=%#04x", uint16(sw))
	}
	return nil
}

// verifyPW3APDU builds a VERIFY command APDU for the admin PIN (P2
// 0x83), per the reference byte layout handlers_verify.go documents.
func verifyPW3APDU(pin string) []byte {
	apdu := []byte{0x00, card.InsVerify, 0x00, 0x83, byte(len(pin))}
	return append(apdu, []byte(pin)...)
}

// dispatchSW sends raw through c.Dispatch and extracts the trailing
// two-byte status word from the response.
func dispatchSW(c *card.Card, raw []byte) cardio.SW {
	resp := c.Dispatch(raw)
	if len(resp) < 2 {
		return cardio.SW(0)
	}
	return cardio.SW(binary.BigEndian.Uint16(resp[len(resp)-2:]))
}
