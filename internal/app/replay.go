package app

import (
	"context"
	"io"
	"time"

	"github.com/ayusman/handsheet/internal/config"
	"github.com/ayusman/handsheet/internal/detector"
	"github.com/ayusman/handsheet/internal/gesture"
	"github.com/ayusman/handsheet/internal/replay"
	"github.com/ayusman/handsheet/internal/sheet"
)

// ReplayResult is what a recorded session produced.
type ReplayResult struct {
	Frames  int
	Commits []gesture.Commit
	Grid    *sheet.Grid
}

// Replay feeds a recording through a fresh in-memory application, starting
// from seed, and reports every committed gesture. The resolver and pipeline
// run on the recording's clock, so results do not depend on wall time.
func Replay(ctx context.Context, r io.Reader, settings config.Config, seed [][]string) (ReplayResult, error) {
	var clock time.Time
	a := New(Config{
		Settings: settings,
		Now:      func() time.Time { return clock },
	})
	defer a.Close()
	if seed != nil {
		a.grid.Load(seed)
	}

	var res ReplayResult
	a.OnCommit(func(c gesture.Commit) { res.Commits = append(res.Commits, c) })

	err := replay.Read(r, func(f detector.Frame) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		clock = f.Timestamp
		a.Ingest(f)
		res.Frames++
		return nil
	})
	res.Grid = a.grid
	return res, err
}
