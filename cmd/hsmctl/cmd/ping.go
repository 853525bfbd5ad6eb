package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Open a session and echo a random UUID back off the device",
	RunE: func(c *cobra.Command, args []string) error {
		ctx := context.Background()
		cl, err := openClient(ctx)
		if err != nil {
			return err
		}
		defer cl.Close(ctx)

		want := []byte(uuid.New().String())
		got, err := cl.Echo(ctx, want)
		if err != nil {
			return err
		}
		if string(got) != string(want) {
			return fmt.Errorf("echo mismatch: sent %q, got %q", want, got)
		}
		fmt.Printf("ok: session %d echoed %d bytes\n", cl.SessionID(), len(got))
		return nil
	},
}
