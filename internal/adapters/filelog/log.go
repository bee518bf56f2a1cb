// Package filelog stores the analysis log as JSON lines in a single file.
package filelog

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"phishguard/internal/domain"
	"phishguard/internal/ports"
)

const maxLine = 4 << 20

type Log struct {
	path   string
	logger *slog.Logger

	mu sync.Mutex
	f  *os.File
}

var _ ports.AnalysisLog = (*Log)(nil)

// Open creates path and its parent directory when missing.
func Open(path string, logger *slog.Logger) (*Log, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open analysis log: %w", err)
	}
	return &Log{path: path, logger: logger, f: f}, nil
}

func (l *Log) Append(ctx context.Context, rec domain.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return fs.ErrClosed
	}
	// One write per record keeps lines whole under O_APPEND.
	if _, err := l.f.Write(line); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// Scan reads the file from the start. A malformed line, such as one torn by a
// crash mid-write, is skipped.
func (l *Log) Scan(ctx context.Context, fn func(domain.Record) error) error {
	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open analysis log: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLine)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return err
		}
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec domain.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			l.logger.Warn("skipping malformed analysis record",
				slog.String("path", l.path),
				slog.Int("line", lineNo),
				slog.String("error", err.Error()))
			continue
		}
		if _, err := domain.TierFromString(string(rec.Tier)); err != nil {
			l.logger.Warn("skipping analysis record with unknown tier",
				slog.String("path", l.path),
				slog.Int("line", lineNo),
				slog.String("error", err.Error()))
			continue
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return sc.Err()
}

func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}
