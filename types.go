package main

// ProcessingStatus represents the outcome status of processing a newsletter
type ProcessingStatus string

const (
	StatusSuccess ProcessingStatus = "success"
	StatusSkipped ProcessingStatus = "skipped"
	StatusError   ProcessingStatus = "error"
)

// ProcessingResult tracks the outcome of processing one newsletter
type ProcessingResult struct {
	Source   string
	Date     string
	Subject  string
	Status   ProcessingStatus
	Filename string
	Reason   string // why a newsletter was skipped
	Deliver  bool   // publisher issues are ready for delivery; seed issues are stored only
	Links    int
	Error    error
}
