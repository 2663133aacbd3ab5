package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cusdScope/internal/model"
)

// JsonlStorage appends event records to a JSONL file and decode failures to
// a sibling .errors.jsonl file.
type JsonlStorage struct {
	path       string
	errorsPath string
	mu         sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path, errorsPath: ErrorsPath(path)}
}

// ErrorsPath is where decode failures for the archive at path are written.
func ErrorsPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".errors.jsonl"
}

// PutEventBatch appends a batch as JSON lines.
func (s *JsonlStorage) PutEventBatch(ctx context.Context, records []model.EventRecord, failures []model.DecodeError) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := appendLines(s.path, records); err != nil {
		return err
	}
	return appendLines(s.errorsPath, failures)
}

func appendLines[T any](path string, items []T) error {
	if len(items) == 0 {
		return nil
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, item := range items {
		line, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}
