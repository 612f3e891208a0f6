package logger

import (
	"fmt"
	"log"
	"os"
	"runtime/debug"

	"go.uber.org/zap"
)

// Logger is nil until Init is called; the helpers fall back to the standard
// library logger in that case (tests, early startup).
var Logger *zap.SugaredLogger

func Init(dev bool) {
	if dev {
		cfg := zap.NewDevelopmentConfig()
		UpdateLogger(&cfg)
	} else {
		cfg := zap.NewProductionConfig()
		UpdateLogger(&cfg)
	}
}

func UpdateLogger(config *zap.Config) {
	if config == nil {
		defaultConfig := zap.NewProductionConfig()
		config = &defaultConfig
	}

	l, err := config.Build()
	if err != nil {
		log.Print(err)
		return
	}

	Logger = l.Sugar()
	Info("Logger initialized")
}

// Sync flushes buffered log entries.
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

func Info(template string, args ...any) {
	if Logger == nil {
		log.Printf(template, args...)
		return
	}
	Logger.Infow(fmt.Sprintf(template, args...), "process_id", os.Getpid())
}

func Warn(template string, args ...any) {
	if Logger == nil {
		log.Printf(template, args...)
		return
	}
	Logger.Warnw(fmt.Sprintf(template, args...), "process_id", os.Getpid())
}

func Error(template string, args ...any) {
	if Logger == nil {
		log.Printf(template, args...)
		return
	}
	Logger.Errorw(fmt.Sprintf(template, args...), "process_id", os.Getpid())
}

func Debug(template string, args ...any) {
	if Logger == nil {
		return
	}
	Logger.Debugw(fmt.Sprintf(template, args...), "process_id", os.Getpid())
}

// HandlePanic logs a recovered panic and returns it as an error.
// Call it with the result of recover() from a deferred function:
//
//	defer func() {
//	    if r := recover(); r != nil {
//	        err = logger.HandlePanic("Read", r)
//	    }
//	}()
func HandlePanic(methodName string, r any) error {
	Error("Panic in %s: %v\nStack trace:\n%s", methodName, r, string(debug.Stack()))
	return fmt.Errorf("panic in %s: %v", methodName, r)
}
