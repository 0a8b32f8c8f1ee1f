package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/acasati/dockship/internal/cli/commands"
)

func main() {
	// Commands reconfigure the logger from the verbosity flag; this is the
	// fallback until flags are parsed.
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	commands.Execute()
}
