package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	slogmulti "github.com/samber/slog-multi"
	slogjournal "github.com/systemd/slog-journal"
)

type logConfig struct {
	level   slog.Level
	file    string // JSON log file, optional.
	journal bool
}

// newLogger fans records out to stderr, an optional JSON file and
// optionally the systemd journal. The returned close function flushes the
// log file.
func newLogger(stderr io.Writer, cfg logConfig) (*slog.Logger, func() error, error) {
	opts := &slog.HandlerOptions{Level: cfg.level}
	terminalHandler := slog.NewTextHandler(stderr, opts)
	handlers := []slog.Handler{terminalHandler}
	closeFn := func() error { return nil }

	if cfg.file != "" {
		fp, err := os.Create(cfg.file)
		if err != nil {
			return nil, nil, err
		}
		handlers = append(handlers, slog.NewJSONHandler(fp, opts))
		closeFn = fp.Close
	}

	if cfg.journal {
		journalHandler, err := slogjournal.NewHandler(&slogjournal.Options{
			Level: cfg.level,
			ReplaceGroup: func(key string) string {
				return toJournalKey(key)
			},
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				a.Key = toJournalKey(a.Key)
				return a
			},
		})
		if err != nil {
			record := slog.NewRecord(time.Now(), slog.LevelWarn, "new systemd journal handler", 0)
			record.Add("error", err)
			_ = terminalHandler.Handle(context.Background(), record)
		} else {
			handlers = append(handlers, journalHandler)
		}
	}
	return slog.New(slogmulti.Fanout(handlers...)), closeFn, nil
}

// toJournalKey maps attribute keys to valid journal field names.
func toJournalKey(str string) string {
	str = strings.ToUpper(str)
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, str)
}
