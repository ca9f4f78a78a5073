package sim

// Report is what one experiment leaves behind.
type Report struct {
	Experiment string
	Table      *Table

	// PlotPath is empty when the plot was skipped.
	PlotPath string
	CSVPath  string
	// Samples lists the raw simulator output files written.
	Samples []string
}
