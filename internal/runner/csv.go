package runner

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// csvLogger appends rows to a run's CSV file, flushing after every row so
// a crash or power loss keeps everything captured so far.
type csvLogger struct {
	f *os.File
	w *csv.Writer
}

func newCSVLogger(path string) (*csvLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	l := &csvLogger{f: f, w: csv.NewWriter(f)}
	if err := l.w.Write(csvHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	l.w.Flush()
	return l, l.w.Error()
}

func (l *csvLogger) WriteRow(r Row) error {
	if err := l.w.Write(r.Record()); err != nil {
		return err
	}
	l.w.Flush()
	return l.w.Error()
}

func (l *csvLogger) Close() error {
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		l.f.Close()
		return err
	}
	return l.f.Close()
}

// buildLogPath derives the run's output file from the sample name:
// <root>/<YYYY-MM-DD>/bme690_<safe-sample>_<HHMMSS>.csv, UTC.
func buildLogPath(root, sampleName string, now time.Time) string {
	now = now.UTC()
	safe := make([]rune, 0, len(sampleName))
	for _, ch := range sampleName {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9', ch == '-', ch == '_':
			safe = append(safe, ch)
		default:
			safe = append(safe, '_')
		}
	}
	name := fmt.Sprintf("bme690_%s_%s.csv", string(safe), now.Format("150405"))
	return filepath.Join(root, now.Format("2006-01-02"), name)
}
