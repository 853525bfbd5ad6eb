package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/riftlabs/yubihsm-go/commands"
)

var (
	generateKeyID    uint16
	generateKeyLabel string
)

var generateKeyCmd = &cobra.Command{
	Use:   "generate-key",
	Short: "Generate an Ed25519 asymmetric key in object slot --id (0 lets the device choose)",
	RunE: func(c *cobra.Command, args []string) error {
		ctx := context.Background()
		cl, err := openClient(ctx)
		if err != nil {
			return err
		}
		defer cl.Close(ctx)

		id, err := cl.GenerateAsymmetricKey(ctx, generateKeyID, generateKeyLabel,
			commands.DomainAll, commands.CapabilitySignEddsa, commands.AlgorithmEd25519)
		if err != nil {
			return err
		}
		fmt.Printf("generated Ed25519 key at object id 0x%04x\n", id)
		return nil
	},
}

func init() {
	generateKeyCmd.Flags().Uint16Var(&generateKeyID, "id", 0, "object id (0 lets the device choose)")
	generateKeyCmd.Flags().StringVar(&generateKeyLabel, "label", "hsmctl", "object label")
}
