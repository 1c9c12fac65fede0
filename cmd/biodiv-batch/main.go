// biodiv-batch runs the biodiversity analysis over FASTA files without the
// HTTP server and writes one JSON result per input.
package main

import (
	"os"

	"github.com/yumyai/biodiv/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}
