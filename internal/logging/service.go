package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/config"
)

func NewServiceLogger(cfg *config.Config, service string) zerolog.Logger {
	return log.With().Str("worker_id", cfg.WorkerID).Str("service", service).Logger()
}
