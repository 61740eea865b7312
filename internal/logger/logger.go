package logger

import (
	"os"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// Init builds the process logger. Production emits JSON, development a
// console format; only error-level entries carry caller and stack.
func Init(production bool) error {
	var base zap.Config
	if production {
		base = zap.NewProductionConfig()
	} else {
		base = zap.NewDevelopmentConfig()
		base.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	}

	enc := base.EncoderConfig
	enc.TimeKey = "timestamp"
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	enc.EncodeLevel = zapcore.CapitalLevelEncoder

	encNoCaller := enc
	encNoCaller.CallerKey = ""
	encWithCaller := enc
	encWithCaller.CallerKey = "caller"

	var encA, encB zapcore.Encoder
	if production {
		encA = zapcore.NewJSONEncoder(encNoCaller)
		encB = zapcore.NewJSONEncoder(encWithCaller)
	} else {
		encA = zapcore.NewConsoleEncoder(encNoCaller)
		encB = zapcore.NewConsoleEncoder(encWithCaller)
	}

	ws := zapcore.Lock(zapcore.AddSync(os.Stdout))
	minLevel := zapcore.DebugLevel
	if production {
		minLevel = zapcore.InfoLevel
	}

	coreNoCaller := zapcore.NewCore(encA, ws,
		zap.LevelEnablerFunc(func(lvl zapcore.Level) bool { return lvl >= minLevel && lvl < zapcore.ErrorLevel }),
	)
	coreWithCaller := zapcore.NewCore(encB, ws,
		zap.LevelEnablerFunc(func(lvl zapcore.Level) bool { return lvl >= zapcore.ErrorLevel }),
	)

	logger = zap.New(
		zapcore.NewTee(coreNoCaller, coreWithCaller),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	return nil
}

// L returns the process logger, falling back to a development logger.
func L() *zap.Logger {
	if logger == nil {
		_ = Init(false)
	}
	return logger
}

// Replace swaps the process logger, used by tests to silence output.
func Replace(l *zap.Logger) {
	logger = l
}

func Sync() { _ = L().Sync() }

// ShortToken trims a share token for log lines.
func ShortToken(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8] + "…"
}

// GinLogger logs one line per request.
func GinLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("response_size", c.Writer.Size()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.String()))
		}
		L().Info("http request", fields...)
	}
}

// GinRecovery converts panics into a 500 response.
func GinRecovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				L().Error("panic recovered",
					zap.Any("error", err),
					zap.ByteString("stack", debug.Stack()),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
				)
				c.AbortWithStatusJSON(500, gin.H{"code": "INTERNAL", "msg": "internal server error"})
			}
		}()
		c.Next()
	}
}
