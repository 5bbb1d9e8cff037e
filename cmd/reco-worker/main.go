package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/leaflove/care-service/internal/recoworker"
)

func main() {
	if err := recoworker.Run(); err != nil {
		log.Error().Err(err).Msg("reco-worker exited with error")
		os.Exit(1)
	}
}
