package logging

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	RequestIDKey = "request_id"
	StartTimeKey = "start_time"
)

func withGinContext(c *gin.Context, e *zerolog.Event) *zerolog.Event {
	if c == nil {
		return e
	}
	if id := c.GetString(RequestIDKey); id != "" {
		e.Str("request_id", id)
	}
	if v, ok := c.Get(StartTimeKey); ok {
		if t, ok2 := v.(time.Time); ok2 {
			e.Dur("duration", time.Since(t))
		}
	}
	return e
}

func Info(c *gin.Context) *zerolog.Event  { return withGinContext(c, log.Info()) }
func Debug(c *gin.Context) *zerolog.Event { return withGinContext(c, log.Debug()) }
func Warn(c *gin.Context) *zerolog.Event  { return withGinContext(c, log.Warn()) }
func Error(c *gin.Context) *zerolog.Event { return withGinContext(c, log.Error()) }
