package main

import (
	"errors"
	"os"

	"salesetl/internal/cli"
	"salesetl/internal/logging"
	"salesetl/internal/pipeline"

	// register all backends with the storage factory.
	// config specifies which to use but we build in support for all of them.
	_ "salesetl/internal/storage/all"
)

func main() {
	if err := cli.Execute(); err != nil {
		logging.Error().Err(err).Msg("salesetl failed")
		if errors.Is(err, pipeline.ErrSourceMissing) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
