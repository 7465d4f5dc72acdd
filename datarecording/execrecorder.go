package datarecording

import (
	"os"
	"strings"
	"time"
)

// ExecInfo is one property of the program execution.
type ExecInfo struct {
	Property string
	Value    string
}

const execTimeFormat = "2006-01-02 15:04:05.000000000"

// execRecorder records program execution
type execRecorder struct {
	recorder DataRecorder
	entries  []ExecInfo
	ended    bool
}

func newExecRecorder(recorder DataRecorder) *execRecorder {
	e := &execRecorder{
		recorder: recorder,
	}

	recorder.CreateTable(ExecInfoTable, ExecInfo{})

	return e
}

// Start logs the start time, the command line and the working directory.
func (e *execRecorder) Start() {
	startTime := time.Now().Format(execTimeFormat)
	e.Add("Start Time", startTime)

	cmd := strings.Join(os.Args, " ")
	e.Add("Command", cmd)

	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}

	e.Add("Working Directory", cwd)
}

// Add appends a property. Properties are written when the recorder ends.
func (e *execRecorder) Add(property, value string) {
	e.entries = append(e.entries, ExecInfo{property, value})
}

// End writes all properties along with the program exit time.
func (e *execRecorder) End() {
	if e.ended {
		return
	}

	e.ended = true

	for _, entry := range e.entries {
		e.recorder.InsertData(ExecInfoTable, entry)
	}

	endTime := time.Now().Format(execTimeFormat)
	e.recorder.InsertData(ExecInfoTable, ExecInfo{"End Time", endTime})

	e.entries = nil
}
