package ui

// StageStartMsg indicates a toolchain stage has started running
type StageStartMsg struct {
	Index int
}

// StageDoneMsg indicates a toolchain stage has finished
type StageDoneMsg struct {
	Index int
}

// RunDoneMsg indicates the whole check has finished, successfully or not
type RunDoneMsg struct {
	Err error
}
