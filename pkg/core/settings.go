package core

// Default run settings.
const (
	DefaultSampleSize = 5
	DefaultMaxWorkers = 4
	DefaultOutputDir  = "reports"
)

// Settings controls how a run is executed.
type Settings struct {
	StopOnCritical    bool   `json:"stop_on_critical" koanf:"stop_on_critical"`
	SampleSize        int    `json:"sample_size" koanf:"sample_size"`
	ParallelExecution bool   `json:"parallel_execution" koanf:"parallel_execution"`
	MaxWorkers        int    `json:"max_workers" koanf:"max_workers"`
	OutputDir         string `json:"output_dir" koanf:"output_dir"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		SampleSize:        DefaultSampleSize,
		ParallelExecution: true,
		MaxWorkers:        DefaultMaxWorkers,
		OutputDir:         DefaultOutputDir,
	}
}

// Normalize returns a copy with zero or invalid numeric values replaced by defaults.
func (s Settings) Normalize() Settings {
	if s.SampleSize <= 0 {
		s.SampleSize = DefaultSampleSize
	}
	if s.MaxWorkers <= 0 {
		s.MaxWorkers = DefaultMaxWorkers
	}
	if s.OutputDir == "" {
		s.OutputDir = DefaultOutputDir
	}
	return s
}
