package main

import (
	"fmt"
	"os"

	"github.com/teranos/lineage/cmd/lineage/commands"
	"github.com/teranos/lineage/logger"
)

func main() {
	defer logger.Cleanup()

	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
