package main

import (
	"os"

	"github.com/quorumhq/quorum/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
