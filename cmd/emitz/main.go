// Command emitz replays scripted emitter sessions.
package main

import (
	"os"

	"github.com/zoobzio/emitz/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
