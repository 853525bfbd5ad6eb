// Command hsmctl is a thin demonstration CLI over the client facade: it
// opens a session against a connector (HTTP or, for local testing, the
// in-process simulator) and drives a handful of typed operations from the
// command line. It is not part of the Secure Channel Core; it exists to
// exercise the library end to end the way a real operator tool would.
package main

import "github.com/riftlabs/yubihsm-go/cmd/hsmctl/cmd"

func main() {
	cmd.Execute()
}
