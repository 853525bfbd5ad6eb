package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"hermannm.dev/devlog"
)

var logLevel slog.LevelVar

var rootCmd = &cobra.Command{
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	Use:   "hsmctl",
	Short: "Drive a YubiHSM2-style device (or its in-process simulator) from the command line",
}

// Execute adds all child commands to rootCmd and runs it. Called once by
// main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	slog.SetDefault(slog.New(devlog.NewHandler(os.Stdout, &devlog.Options{
		Level: &logLevel,
	})))

	rootCmd.PersistentFlags().String("connector", "localhost:12345", "connector host:port (ignored with --simulator)")
	rootCmd.PersistentFlags().Bool("simulator", false, "use the in-process mock HSM instead of a real connector")
	rootCmd.PersistentFlags().Uint16("auth-key-id", 1, "authentication key object id")
	rootCmd.PersistentFlags().String("password", "password", "password the authentication key is derived from")
	rootCmd.PersistentFlags().Bool("reconnect", true, "transparently reconnect on session timeout or invalid-session errors")
	rootCmd.PersistentFlags().Bool("debug", false, "log every command/response round trip")

	_ = viper.BindPFlag("connector", rootCmd.PersistentFlags().Lookup("connector"))
	_ = viper.BindPFlag("simulator", rootCmd.PersistentFlags().Lookup("simulator"))
	_ = viper.BindPFlag("auth-key-id", rootCmd.PersistentFlags().Lookup("auth-key-id"))
	_ = viper.BindPFlag("password", rootCmd.PersistentFlags().Lookup("password"))
	_ = viper.BindPFlag("reconnect", rootCmd.PersistentFlags().Lookup("reconnect"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.SetEnvPrefix("HSMCTL")
	viper.AutomaticEnv()

	cobra.OnInitialize(func() {
		if viper.GetBool("debug") {
			logLevel.Set(slog.LevelDebug)
		}
	})

	rootCmd.AddCommand(pingCmd, deviceInfoCmd, listObjectsCmd, generateKeyCmd, resetCmd)
}
