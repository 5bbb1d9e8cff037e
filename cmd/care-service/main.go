package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/leaflove/care-service/internal/careservice"
)

func main() {
	if err := careservice.Run(); err != nil {
		log.Error().Err(err).Msg("care-service exited with error")
		os.Exit(1)
	}
}
