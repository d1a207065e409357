package nndescent

import (
	"context"
	"log/slog"
	"os"
	"time"

	"golang.org/x/time/rate"
)

// progressInterval is the minimum gap between two in-round progress lines.
const progressInterval = 2 * time.Second

// Logger wraps slog.Logger with nndescent-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
	progress *rate.Sometimes
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return newLogger(slog.New(handler))
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return newLogger(slog.New(handler))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return newLogger(slog.New(handler))
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return newLogger(slog.New(slog.DiscardHandler))
}

func newLogger(l *slog.Logger) *Logger {
	return &Logger{
		Logger:   l,
		progress: &rate.Sometimes{Interval: progressInterval},
	}
}

func (l *Logger) with(args ...any) *Logger {
	return newLogger(l.Logger.With(args...))
}

// WithBuildID adds a build_id field to the logger.
func (l *Logger) WithBuildID(id string) *Logger {
	return l.with("build_id", id)
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return l.with("dimension", dim)
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return l.with("count", count)
}

// LogBuildStart logs the start of a graph build.
func (l *Logger) LogBuildStart(ctx context.Context, maxDegree, rounds, workers int, seed uint64) {
	l.InfoContext(ctx, "build started",
		"max_degree", maxDegree,
		"rounds", rounds,
		"workers", workers,
		"seed", seed,
	)
}

// LogRound logs the summary of a finished round. Round 0 is initialization.
func (l *Logger) LogRound(ctx context.Context, s RoundStats) {
	l.DebugContext(ctx, "round completed",
		"round", s.Round,
		"edges", s.Edges,
		"avg_distance", s.AvgDistance,
		"stddev_distance", s.StdDevDistance,
		"updates", s.Updates,
		"proposals", s.Proposals,
		"admitted", s.Admitted,
		"duration", s.Duration,
	)
}

// LogProgress logs how far a phase has come. Calls closer together than a
// couple of seconds are dropped, so it is safe to call from hot loops.
func (l *Logger) LogProgress(ctx context.Context, phase string, round, done, total int) {
	l.progress.Do(func() {
		l.DebugContext(ctx, "build progress",
			"phase", phase,
			"round", round,
			"done", done,
			"total", total,
		)
	})
}

// LogBuild logs the end of a graph build.
func (l *Logger) LogBuild(ctx context.Context, rounds int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "build failed",
			"rounds", rounds,
			"duration", elapsed,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "build completed",
			"rounds", rounds,
			"duration", elapsed,
		)
	}
}

// LogEarlyStop logs that the build converged before the configured rounds.
func (l *Logger) LogEarlyStop(ctx context.Context, round, updates int) {
	l.InfoContext(ctx, "build converged early",
		"round", round,
		"updates", updates,
	)
}
