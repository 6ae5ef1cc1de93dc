package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	fileMu  sync.RWMutex
	fileOut io.Writer
)

// SetFile mirrors the output of every logger created afterwards into a
// rotating file. Sizes are in megabytes, ages in days. Close the returned
// closer on shutdown.
func SetFile(path string, maxSizeMB, maxBackups, maxAgeDays int) (io.Closer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}
	fileMu.Lock()
	fileOut = lj
	fileMu.Unlock()
	return closerFunc(func() error {
		fileMu.Lock()
		if fileOut == lj {
			fileOut = nil
		}
		fileMu.Unlock()
		return lj.Close()
	}), nil
}

func fileWriter() io.Writer {
	fileMu.RLock()
	defer fileMu.RUnlock()
	return fileOut
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
