// beefi-capture streams Beamforming Feedback Information off a wireless
// interface, or prepares one for monitor-mode capture.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"beefi"
	"beefi/internal/capture"
	"beefi/internal/config"
	"beefi/internal/filewriter"
	"beefi/internal/version"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile     string
	iface       string
	bpfFilter   string
	outputPath  string
	outputRaw   string
	duration    string
	queueSize   int
	reconstruct bool
	verbose     bool

	monInterface string
	monChannel   int
	monBandwidth int
)

var rootCmd = &cobra.Command{
	Use:   "beefi-capture",
	Short: "Stream Beamforming Feedback Information from a wireless interface",
	Long: `beefi-capture opens a wireless interface in promiscuous mode (it does
not switch the interface into monitor mode; the monitor-mode subcommand
does that), extracts
Beamforming Feedback Information from Compressed Beamforming Action frames
as they arrive, and writes the extracted angles (and optionally the
reconstructed matrices) to disk.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCapture()
	},
}

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Run a streaming capture (default command)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCapture()
	},
}

var monitorModeCmd = &cobra.Command{
	Use:   "monitor-mode",
	Short: "Put a wireless interface into monitor mode on a given channel and bandwidth",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMonitorMode(monInterface, monChannel, monBandwidth)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.GetVersionInfo("beefi-capture"))
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./beefi.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	for _, cmd := range []*cobra.Command{rootCmd, captureCmd} {
		cmd.Flags().StringVarP(&iface, "interface", "i", "wlan0", "wireless interface to capture from")
		cmd.Flags().StringVar(&bpfFilter, "bpf", "", "Berkeley Packet Filter expression")
		cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file for extracted angles/matrices")
		cmd.Flags().StringVar(&outputRaw, "output-raw", "", "output file that every captured frame's raw bytes are appended to, without pcap headers (pollen sink)")
		cmd.Flags().StringVarP(&duration, "duration", "d", "0s", "capture duration; 0 runs until interrupted")
		cmd.Flags().IntVar(&queueSize, "queue-size", 1000, "max buffered parsed results before drop-oldest kicks in")
		cmd.Flags().BoolVar(&reconstruct, "reconstruct", false, "reconstruct matrices inline and persist them too")
	}

	monitorModeCmd.Flags().StringVarP(&monInterface, "interface", "i", "wlan0", "wireless interface")
	monitorModeCmd.Flags().IntVar(&monChannel, "channel", 1, "wireless channel number")
	monitorModeCmd.Flags().IntVar(&monBandwidth, "bandwidth", 20, "channel bandwidth in MHz (0, 5, 10, 20, 40, 80, 160)")

	viper.BindPFlag("capture.interface", rootCmd.Flags().Lookup("interface"))
	viper.BindPFlag("capture.bpf_filter", rootCmd.Flags().Lookup("bpf"))
	viper.BindPFlag("capture.output_path", rootCmd.Flags().Lookup("output"))
	viper.BindPFlag("capture.output_raw", rootCmd.Flags().Lookup("output-raw"))
	viper.BindPFlag("capture.queue_size", rootCmd.Flags().Lookup("queue-size"))
	viper.BindPFlag("capture.reconstruct", rootCmd.Flags().Lookup("reconstruct"))
	viper.BindPFlag("logging.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(captureCmd, monitorModeCmd, versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("beefi")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}
	viper.SetEnvPrefix("BEEFI")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

func runCapture() error {
	cfg := config.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	durationParsed, err := time.ParseDuration(duration)
	if err != nil {
		return fmt.Errorf("invalid duration format: %w", err)
	}
	cfg.Capture.Duration = durationParsed

	opts := capture.Options{
		SnapLen:   cfg.Capture.SnapLen,
		BufSize:   cfg.Capture.BufSize,
		Immediate: !cfg.Capture.PcapBuffer,
		BPFFilter: cfg.Capture.BPFFilter,
	}

	fmt.Printf("beefi-capture starting on %s\n", cfg.Capture.Interface)
	src, err := capture.NewLive(cfg.Capture.Interface, opts)
	if err != nil {
		return fmt.Errorf("failed to open capture interface: %w", err)
	}

	bee := beefi.NewBee(src, beefi.BeeConfig{QueueSize: cfg.Capture.QueueSize})

	if cfg.Capture.OutputRaw != "" {
		rawFile, err := os.Create(cfg.Capture.OutputRaw)
		if err != nil {
			return fmt.Errorf("failed to create raw output file: %w", err)
		}
		defer rawFile.Close()
		bee.SetRawSink(func(ts float64, raw []byte) {
			// Frames are appended verbatim; downstream tools can wrap this
			// into a pcap savefile if a full pcap writer is needed.
			rawFile.Write(raw)
		})
	}

	if cfg.Capture.Reconstruct {
		bee.SetMatrixQueue(cfg.Capture.QueueSize)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	stopTimer := make(<-chan time.Time)
	if cfg.Capture.Duration > 0 {
		stopTimer = time.After(cfg.Capture.Duration)
	}

	var collected []beefi.BfaData
	var matrices []beefi.BfmData

loop:
	for {
		select {
		case <-sigChan:
			fmt.Println("\nreceived interrupt, shutting down...")
			break loop
		case <-stopTimer:
			fmt.Println("capture duration elapsed, shutting down...")
			break loop
		default:
			d, ok := bee.Poll()
			if !ok {
				if m, ok := bee.PollMatrix(); ok {
					matrices = append(matrices, m)
				}
				time.Sleep(10 * time.Millisecond)
				continue
			}
			collected = append(collected, d)
		}
	}

	bee.Stop()
	for {
		d, ok := bee.Poll()
		if !ok {
			break
		}
		collected = append(collected, d)
	}
	for {
		m, ok := bee.PollMatrix()
		if !ok {
			break
		}
		matrices = append(matrices, m)
	}

	fmt.Printf("captured %d feedback frames (%d dropped, %d skipped)\n",
		len(collected), bee.DroppedCount(), bee.SkippedCount())

	if cfg.Capture.OutputPath != "" {
		batch := beefi.SplitBatch(collected)
		if err := filewriter.WriteBatch(cfg.Capture.OutputPath, batch); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if cfg.Capture.Reconstruct && len(matrices) > 0 {
		matrixPath := cfg.Capture.OutputPath + ".matrices"
		if err := filewriter.WriteMatrices(matrixPath, matrices); err != nil {
			return fmt.Errorf("failed to write matrices: %w", err)
		}
	}

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
