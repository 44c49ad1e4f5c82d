package scheduler

import "log/slog"

// LevelStep is a custom slog level for phase-boundary tracing
// (skipped/asleep firings, step summaries), sitting above slog.LevelInfo
// the way the teacher's core/util.go defines LevelTrace and
// LevelWaveform above slog.LevelInfo for its own cycle-level tracing.
const LevelStep slog.Level = slog.LevelInfo + 1
