package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LineFormat tells callers how the lines returned by ReadLines should be decoded.
type LineFormat int

const (
	LineFormatText LineFormat = iota // comma separated fields
	LineFormatJSON                   // one JSON object per line
)

// ReadLines reads the non-empty lines of a .txt, .csv or .jsonl file.
// Lines starting with '#' are comments in text files.
func ReadLines(filename string) ([]string, LineFormat, error) {
	var format LineFormat
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".txt", ".csv":
		format = LineFormatText
	case ".jsonl":
		format = LineFormatJSON
	default:
		return nil, format, ConfigErrorf("unsupported file format %q for %s", ext, filename)
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, format, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if format == LineFormatText && strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, format, fmt.Errorf("error reading file: %w", err)
	}
	return lines, format, nil
}
