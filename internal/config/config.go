// Package config provides configuration structures and defaults for the
// beefi-capture and beefi-extract command-line tools.
package config

import "time"

// Config represents the complete application configuration, loaded by
// viper from flags, environment variables, and a YAML file, in that
// precedence order.
type Config struct {
	Capture CaptureConfig `yaml:"capture"` // Streaming engine / capture-source settings
	Extract ExtractConfig `yaml:"extract"` // Batch-extraction settings
	Logging LoggingConfig `yaml:"logging"` // Logging configuration
}

// CaptureConfig contains capture-source and streaming-engine configuration
// parameters, matching the "Configuration options (streaming engine)"
// table.
type CaptureConfig struct {
	Interface   string        `yaml:"interface"`    // Wireless interface to capture from
	BPFFilter   string        `yaml:"bpf_filter" mapstructure:"bpf_filter"`   // Berkeley Packet Filter expression
	QueueSize   int           `yaml:"queue_size" mapstructure:"queue_size"`    // Max buffered parsed results; overflow drops oldest
	PcapBuffer  bool          `yaml:"pcap_buffer" mapstructure:"pcap_buffer"`   // If true, allow kernel batching; if false, request immediate delivery
	SnapLen     int           `yaml:"pcap_snaplen" mapstructure:"pcap_snaplen"`  // Max bytes captured per frame
	BufSize     int           `yaml:"pcap_bufsize" mapstructure:"pcap_bufsize"`  // Kernel capture buffer size in bytes
	OutputPath  string        `yaml:"output_path" mapstructure:"output_path"`   // Where to write extracted angles/matrices
	OutputRaw   string        `yaml:"output_raw" mapstructure:"output_raw"`    // Where to append every captured frame's raw bytes back to back, without pcap headers (pollen sink); empty disables it
	Duration    time.Duration `yaml:"duration"`      // Collection duration; zero means run until interrupted
	Reconstruct bool          `yaml:"reconstruct"`   // If true, run the reconstructor inline and persist matrices too
}

// ExtractConfig contains batch-extraction configuration parameters.
type ExtractConfig struct {
	InputPath  string `yaml:"input_path" mapstructure:"input_path"`  // Capture file to read
	OutputPath string `yaml:"output_path" mapstructure:"output_path"` // Where to write the extracted batch; empty means print a summary to stdout
	Reconstruct bool  `yaml:"reconstruct"` // If true, reconstruct matrices for every packet before writing
}

// LoggingConfig contains logging configuration parameters.
type LoggingConfig struct {
	Verbose bool   `yaml:"verbose"` // Enable verbose progress logging
	File    string `yaml:"file"`    // Log file path; empty means stderr
}

// DefaultConfig returns a configuration with the defaults named in the
// streaming engine's configuration table.
func DefaultConfig() *Config {
	return &Config{
		Capture: CaptureConfig{
			Interface:  "wlan0",
			BPFFilter:  "",
			QueueSize:  1000,
			PcapBuffer: false,
			SnapLen:    4096,
			BufSize:    1_000_000,
			OutputPath: "",
			OutputRaw:  "",
			Duration:   0,
		},
		Extract: ExtractConfig{
			InputPath:  "",
			OutputPath: "",
		},
		Logging: LoggingConfig{
			Verbose: false,
			File:    "",
		},
	}
}
