package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DebugOptions contains configuration for debug traces.
type DebugOptions struct {
	Enabled    bool
	OutputDir  string
	SaveToFile bool
}

// DebugManager writes search traces (candidate evaluations, final results) to a
// directory so a run can be inspected after the fact. It is safe for concurrent use.
type DebugManager struct {
	options   DebugOptions
	logger    Logger
	outputDir string
	mu        sync.Mutex
}

func NewDebugManager(options DebugOptions, logger Logger) *DebugManager {
	outputDir := options.OutputDir
	if outputDir == "" {
		outputDir = filepath.Join(".", "debug_output")
	}
	if logger == nil {
		logger = NewNopLogger()
	}

	if options.SaveToFile && options.Enabled {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			logger.Warn("failed to create debug output directory", "dir", outputDir, "error", err)
		}
	}

	return &DebugManager{
		options:   options,
		logger:    logger,
		outputDir: outputDir,
	}
}

// Log logs a debug message and appends it to debug.log when saving is enabled.
func (dm *DebugManager) Log(format string, args ...any) {
	if dm == nil || !dm.options.Enabled {
		return
	}

	message := fmt.Sprintf(format, args...)
	dm.logger.Debug(message)

	if dm.options.SaveToFile {
		dm.appendLine("debug.log", message)
	}
}

// SaveTrace appends data as one JSON line to <name>.jsonl.
func (dm *DebugManager) SaveTrace(name string, data any) {
	if dm == nil || !dm.options.Enabled || !dm.options.SaveToFile {
		return
	}

	b, err := json.Marshal(data)
	if err != nil {
		dm.logger.Error("failed to encode debug trace", "trace", name, "error", err)
		return
	}
	dm.appendLine(name+".jsonl", string(b))
}

func (dm *DebugManager) appendLine(filename, content string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	path := filepath.Join(dm.outputDir, filename)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		dm.logger.Error("failed to open file for debug output", "error", err, "file", path)
		return
	}
	defer file.Close()

	if filepath.Ext(filename) == ".jsonl" {
		_, err = fmt.Fprintln(file, content)
	} else {
		_, err = fmt.Fprintf(file, "[%s] %s\n", time.Now().Format("2006-01-02 15:04:05"), content)
	}
	if err != nil {
		dm.logger.Error("failed to write debug output", "error", err, "file", path)
	}
}

func (dm *DebugManager) IsEnabled() bool {
	return dm != nil && dm.options.Enabled
}

func (dm *DebugManager) OutputDir() string {
	return dm.outputDir
}
