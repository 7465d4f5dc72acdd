package measurement

import (
	"github.com/sarchlab/wlanexp/datarecording"
	"github.com/sarchlab/wlanexp/sim"
)

// ThroughputTable is the table that RecordingHook writes into.
const ThroughputTable = "throughput"

// ThroughputEntry is one row of the throughput table.
type ThroughputEntry struct {
	RunID      string
	Time       float64
	DeltaBytes uint64
	RateMbps   float64
}

// RecordingHook writes every sample into a DataRecorder.
type RecordingHook struct {
	runID    string
	recorder datarecording.DataRecorder
}

// NewRecordingHook creates the throughput table and returns a hook that fills
// it.
func NewRecordingHook(
	runID string,
	recorder datarecording.DataRecorder,
) *RecordingHook {
	recorder.CreateTable(ThroughputTable, ThroughputEntry{})

	return &RecordingHook{
		runID:    runID,
		recorder: recorder,
	}
}

// Func inserts the sample.
func (h *RecordingHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != HookPosSample {
		return
	}

	tick, ok := ctx.Item.(SampleTick)
	if !ok {
		return
	}

	h.recorder.InsertData(ThroughputTable, ThroughputEntry{
		RunID:      h.runID,
		Time:       float64(tick.Time),
		DeltaBytes: tick.DeltaBytes,
		RateMbps:   tick.RateMbps,
	})
}
