package logging

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/logdyhq/logdy-core/logdy"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/config"
)

type logdyWriter struct {
	logger logdy.Logdy
}

func (w *logdyWriter) Write(p []byte) (n int, err error) {
	w.logger.LogString(string(p))
	return len(p), nil
}

// StartLogdy starts the embedded Logdy web UI and returns a writer feeding it.
func StartLogdy(cfg *config.Config) (io.Writer, string) {
	portStr := strconv.Itoa(cfg.LogdyPort)
	ld := logdy.InitializeLogdy(logdy.Config{
		ServerIp:   cfg.LogdyHost,
		ServerPort: portStr,
	}, nil)

	url := fmt.Sprintf("http://%s:%s", cfg.LogdyHost, portStr)
	return &logdyWriter{logger: ld}, url
}

// Setup points the global logger at the console, plus Logdy when enabled.
func Setup(cfg *config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	if !cfg.LogdyEnabled {
		log.Logger = log.Output(console)
		return
	}

	ui, url := StartLogdy(cfg)
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(console, ui)).With().Timestamp().Logger()
	log.Info().Str("url", url).Msg("Logdy UI available")
}
