package persistence

import (
	"time"

	"github.com/getkayan/medgas/logger"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// gormLogger routes gorm's messages through the process zap logger, which
// writes to stderr. A missing session row is the normal logged-out state and
// is not reported.
func gormLogger() gormlogger.Interface {
	return gormlogger.New(zap.NewStdLog(logger.Log.Named("gorm")), gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
