package logx

import (
	"io"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"storefront/internal/config"
)

// Options configures Init.
type Options struct {
	Environment config.Environment
	Output      io.Writer
}

// Init replaces the global logger. Production logs JSON at info level,
// everything else gets a console writer at debug level.
func Init(opts Options) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if opts.Environment.IsProduction() {
		log.Logger = zerolog.New(out).With().Timestamp().Logger().Level(zerolog.InfoLevel)
		return
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}).
		With().Timestamp().Caller().Logger().
		Level(zerolog.DebugLevel)
}

func Debug() *zerolog.Event { return log.Debug() }

func Info() *zerolog.Event { return log.Info() }

func Warn() *zerolog.Event { return log.Warn() }

func Error() *zerolog.Event { return log.Error() }

func Fatal() *zerolog.Event { return log.Fatal() }

// AccessLog writes one line per handled request.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		ev := log.Info()
		if c.Writer.Status() >= 500 {
			ev = log.Error()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP()).
			Msg("request")
	}
}
