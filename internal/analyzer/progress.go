package analyzer

// ProgressReporter provides callbacks for reporting analysis progress.
// Implementations can display progress bars, log messages, or remain silent.
type ProgressReporter interface {
	// OnDiscoveryStart is called when file discovery begins.
	OnDiscoveryStart()

	// OnDiscoveryComplete is called when file discovery finishes.
	OnDiscoveryComplete(pythonFiles, typeScriptFiles, javaScriptFiles int)

	// OnFileProcessingStart is called before extraction begins.
	OnFileProcessingStart(totalFiles int)

	// OnFileProcessed is called after each file is extracted.
	OnFileProcessed(fileName string)

	// OnFileSkipped is called once for each file that could not be read or parsed.
	OnFileSkipped(fileName string, err error)

	// OnComplete is called when the run completes successfully.
	OnComplete(stats *Stats)
}

// NoOpProgressReporter is a progress reporter that does nothing.
// Used when progress reporting is disabled (e.g., --quiet flag).
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnDiscoveryStart()                        {}
func (n *NoOpProgressReporter) OnDiscoveryComplete(py, ts, js int)       {}
func (n *NoOpProgressReporter) OnFileProcessingStart(totalFiles int)     {}
func (n *NoOpProgressReporter) OnFileProcessed(fileName string)          {}
func (n *NoOpProgressReporter) OnFileSkipped(fileName string, err error) {}
func (n *NoOpProgressReporter) OnComplete(stats *Stats)                  {}
