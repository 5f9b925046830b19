package datarecording

import (
	"os"
	"sort"
	"strings"
	"time"
)

// ExecInfoTable is the table that holds the execution properties.
const ExecInfoTable = "exec_info"

// ExecInfo is one property of the program execution.
type ExecInfo struct {
	Property string
	Value    string
}

// ExecRecorder records how and when the program ran.
type ExecRecorder struct {
	recorder DataRecorder
	entries  []ExecInfo
}

// NewExecRecorder creates the exec_info table on the recorder.
func NewExecRecorder(recorder DataRecorder) (*ExecRecorder, error) {
	err := recorder.CreateTable(ExecInfoTable, ExecInfo{})
	if err != nil {
		return nil, err
	}

	return &ExecRecorder{recorder: recorder}, nil
}

// Start captures the start time, the command line and the working directory,
// plus the extra properties in name order.
func (e *ExecRecorder) Start(extra map[string]string) {
	e.entries = append(e.entries,
		ExecInfo{"Start Time", now()},
		ExecInfo{"Command", strings.Join(os.Args, " ")},
	)

	if cwd, err := os.Getwd(); err == nil {
		e.entries = append(e.entries, ExecInfo{"Working Directory", cwd})
	}

	names := make([]string, 0, len(extra))
	for name := range extra {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		e.entries = append(e.entries, ExecInfo{name, extra[name]})
	}
}

// End writes the captured properties together with the end time.
func (e *ExecRecorder) End() {
	for _, entry := range e.entries {
		e.recorder.InsertData(ExecInfoTable, entry)
	}

	e.recorder.InsertData(ExecInfoTable, ExecInfo{"End Time", now()})
	e.entries = nil

	e.recorder.Flush()
}

func now() string {
	return time.Now().Format("2006-01-02 15:04:05.000000000")
}
