package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/riftlabs/yubihsm-go/authkey"
	"github.com/riftlabs/yubihsm-go/client"
	"github.com/riftlabs/yubihsm-go/connector"
	"github.com/riftlabs/yubihsm-go/mockhsm"
)

// openClient builds a Connector from the bound configuration (a real
// HTTP connector daemon, or the in-process simulator for --simulator)
// and authenticates a Client against it. Every invocation gets a fresh
// simulator instance, since the CLI process itself is not long-lived.
func openClient(ctx context.Context) (*client.Client, error) {
	var conn connector.Connector
	if viper.GetBool("simulator") {
		conn = mockhsm.NewConnector(mockhsm.NewState(slog.Default()))
	} else {
		conn = connector.NewHTTPConnector(viper.GetString("connector"))
	}

	creds := authkey.Credentials{
		AuthKeyID: uint16(viper.GetUint32("auth-key-id")),
		Key:       authkey.NewFromPassword(viper.GetString("password")),
	}

	return client.Open(ctx, conn, creds, viper.GetBool("reconnect"), slog.Default())
}
