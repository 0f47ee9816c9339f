package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// TouchNotifySignal writes a fresh revision to the signal file so watchers in other
// processes can detect a store mutation. Creates parent dir and file if needed.
// Returns the revision written; an empty path is a no-op.
func TouchNotifySignal(signalPath string) (string, error) {
	if signalPath == "" {
		return "", nil
	}
	dir := filepath.Dir(signalPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create signal file dir: %w", err)
	}
	rev := strconv.Itoa(os.Getpid()) + ":" + strconv.FormatInt(time.Now().UnixNano(), 10)
	if err := os.WriteFile(signalPath, []byte(rev), 0644); err != nil {
		return "", fmt.Errorf("write signal file: %w", err)
	}
	return rev, nil
}

// ReadNotifySignal returns the current revision, or "" when the file is missing.
func ReadNotifySignal(signalPath string) string {
	if signalPath == "" {
		return ""
	}
	data, err := os.ReadFile(signalPath)
	if err != nil {
		return ""
	}
	return string(data)
}
