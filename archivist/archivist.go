// SPDX-License-Identifier: MIT

// Package archivist is the leveled line logger used by the forward pipeline
// and the command shell. Core numeric packages never log; only stage
// boundaries and failures are recorded here.
//
// Line format: "2006-01-02 15:04:05|type|file.go#line|message".
package archivist

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	LEVEL_DEBUG   = 1
	LEVEL_INFO    = 2
	LEVEL_WARNING = 3
	LEVEL_ERROR   = 4
	LEVEL_FATAL   = 5
)

// Granular debug levels, only honoured when the log level is LEVEL_DEBUG.
const (
	DEBUG_LEVEL_TRACE  = iota + 1 // execution flow
	DEBUG_LEVEL_INFO              // informational debug messages
	DEBUG_LEVEL_DETAIL            // per-source / per-surface detail
	DEBUG_LEVEL_DUMP              // whole data structures
	DEBUG_LEVEL_MAX
)

// LoggerInterface is the sink; *log.Logger satisfies it.
type LoggerInterface interface {
	Println(v ...interface{})
}

// Archivist filters messages by level and formats them for the sink.
// Safe for concurrent use.
type Archivist struct {
	mu         sync.RWMutex
	logFlags   [5]bool
	logger     LoggerInterface
	debugLevel int
	now        func() time.Time
}

// Config carries the construction parameters. Zero LogLevel means LEVEL_WARNING.
type Config struct {
	Logger     LoggerInterface
	LogLevel   int
	DebugLevel int
}

// New builds an Archivist; a nil conf or nil Logger logs to stdout.
func New(conf *Config) *Archivist {
	if conf == nil {
		conf = &Config{}
	}
	a := &Archivist{
		logFlags: [5]bool{false, true, true, true, true},
		now:      time.Now,
	}
	a.SetLogger(conf.Logger)
	a.SetLogLevel(conf.LogLevel)
	if conf.LogLevel == LEVEL_DEBUG {
		a.SetDebugLevel(conf.DebugLevel)
	}

	return a
}

// Discard returns an Archivist that drops everything. Used as the default
// logger of the pipeline.
func Discard() *Archivist {
	a := New(&Config{Logger: nopLogger{}, LogLevel: LEVEL_FATAL})

	return a
}

type nopLogger struct{}

func (nopLogger) Println(...interface{}) {}

func (a *Archivist) store(message string, stype string, dump bool, formatted bool, params []interface{}) {
	// skip store + the public method to reach the caller
	_, file, line, _ := runtime.Caller(2)
	parts := strings.Split(file, "/")
	packageFile := parts[len(parts)-1]

	a.mu.RLock()
	logger, now := a.logger, a.now
	a.mu.RUnlock()

	logLine := now().Format("2006-01-02 15:04:05") + "|" + stype + "|" + packageFile + "#" + strconv.Itoa(line) + "|"
	if dump {
		if formatted {
			logLine += fmt.Sprintf(message, params...)
		} else {
			logLine += message + "|" + fmt.Sprintf("%+v", params)
		}
	} else {
		logLine += message
	}

	logger.Println(logLine)
}

func (a *Archivist) enabled(level int) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.logFlags[level-1]
}

func (a *Archivist) debugEnabled(level int) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.logFlags[LEVEL_DEBUG-1] && level <= a.debugLevel
}

func (a *Archivist) Error(message string, params ...interface{}) {
	if a.enabled(LEVEL_ERROR) {
		a.store(message, "error", len(params) > 0, false, params)
	}
}

func (a *Archivist) ErrorF(message string, params ...interface{}) {
	if a.enabled(LEVEL_ERROR) {
		a.store(message, "error", true, true, params)
	}
}

func (a *Archivist) Fatal(message string, params ...interface{}) {
	if a.enabled(LEVEL_FATAL) {
		a.store(message, "fatal", len(params) > 0, false, params)
	}
}

func (a *Archivist) FatalF(message string, params ...interface{}) {
	if a.enabled(LEVEL_FATAL) {
		a.store(message, "fatal", true, true, params)
	}
}

func (a *Archivist) Info(message string, params ...interface{}) {
	if a.enabled(LEVEL_INFO) {
		a.store(message, "info", len(params) > 0, false, params)
	}
}

func (a *Archivist) InfoF(message string, params ...interface{}) {
	if a.enabled(LEVEL_INFO) {
		a.store(message, "info", true, true, params)
	}
}

func (a *Archivist) Warning(message string, params ...interface{}) {
	if a.enabled(LEVEL_WARNING) {
		a.store(message, "warning", len(params) > 0, false, params)
	}
}

func (a *Archivist) WarningF(message string, params ...interface{}) {
	if a.enabled(LEVEL_WARNING) {
		a.store(message, "warning", true, true, params)
	}
}

func (a *Archivist) Debug(level int, message string, params ...interface{}) {
	if a.debugEnabled(level) {
		a.store(message, "debug", len(params) > 0, false, params)
	}
}

func (a *Archivist) DebugF(level int, message string, params ...interface{}) {
	if a.debugEnabled(level) {
		a.store(message, "debug", true, true, params)
	}
}

// SetLogLevel enables every level >= logLevel. Unknown levels fall back to
// LEVEL_WARNING after logging the fact.
func (a *Archivist) SetLogLevel(logLevel int) {
	if logLevel == 0 {
		logLevel = LEVEL_WARNING
	}

	if logLevel < LEVEL_DEBUG || logLevel > LEVEL_FATAL {
		a.Error("given log level is unknown, defaulting to LEVEL_WARNING; provided was: ", logLevel)
		a.SetLogLevel(LEVEL_WARNING)

		return
	}

	a.mu.Lock()
	for index := range a.logFlags {
		a.logFlags[index] = logLevel-1 <= index
	}
	a.mu.Unlock()
}

func (a *Archivist) SetDebugLevel(level int) {
	if level < 0 {
		level = 0
	}
	a.mu.Lock()
	a.debugLevel = level
	a.mu.Unlock()
}

func (a *Archivist) SetLogger(logger LoggerInterface) {
	if logger == nil {
		logger = log.New(os.Stdout, "", 0)
	}
	a.mu.Lock()
	a.logger = logger
	a.mu.Unlock()
}

// SetClock swaps the timestamp source (tests pin it).
func (a *Archivist) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	a.mu.Lock()
	a.now = now
	a.mu.Unlock()
}
