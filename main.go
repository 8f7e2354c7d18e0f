// main is the entry point for the iqstat CLI.
package main

import (
	"os"

	"github.com/treebench/iqstat/cmd"
	"github.com/treebench/iqstat/internal/contract"
	"github.com/treebench/iqstat/internal/iocache"
)

func main() {
	defer iocache.CloseStores()
	defer func() {
		if err := cmd.StopProfiling(); err != nil {
			contract.LogWarn("Failed to stop profiling", err)
		}
	}()

	if err := cmd.Execute(); err != nil {
		contract.LogWarn("Command failed", err)
		iocache.CloseStores()
		os.Exit(1)
	}
}
