// beefi-extract reads a pcap capture file offline and extracts Beamforming
// Feedback Information from every Compressed Beamforming Action frame it
// contains.
package main

import (
	"fmt"
	"os"

	"beefi"
	"beefi/internal/config"
	"beefi/internal/filewriter"
	"beefi/internal/geometry"
	"beefi/internal/version"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile     string
	outputPath  string
	reconstruct bool
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "beefi-extract [pcap file]",
	Short: "Extract Beamforming Feedback Information from a pcap capture file",
	Long: `beefi-extract reads a previously captured pcap file, parses every
Compressed Beamforming Action frame it contains, and writes the extracted
angles (and optionally reconstructed matrices) to disk, or prints a summary
to stdout when no output path is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtract(args[0])
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.GetVersionInfo("beefi-extract"))
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./beefi.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file for extracted angles/matrices; omit to print a summary")
	rootCmd.Flags().BoolVar(&reconstruct, "reconstruct", false, "reconstruct matrices for every packet before writing")

	viper.BindPFlag("extract.output_path", rootCmd.Flags().Lookup("output"))
	viper.BindPFlag("extract.reconstruct", rootCmd.Flags().Lookup("reconstruct"))
	viper.BindPFlag("logging.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
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

func runExtract(inputPath string) error {
	cfg := config.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Extract.InputPath = inputPath

	fmt.Printf("beefi-extract reading %s\n", cfg.Extract.InputPath)
	batch, skipped, err := beefi.ExtractFromPcap(cfg.Extract.InputPath)
	if err != nil {
		return fmt.Errorf("failed to extract: %w", err)
	}

	fmt.Printf("extracted %d feedback frames (%d frames skipped)\n", len(batch.Metadata), skipped)

	if cfg.Extract.OutputPath == "" {
		printSummary(batch)
		return nil
	}

	if err := filewriter.WriteBatch(cfg.Extract.OutputPath, batch); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Printf("wrote angle batch to %s\n", cfg.Extract.OutputPath)

	if cfg.Extract.Reconstruct {
		matrices, err := reconstructBatch(batch)
		if err != nil {
			return fmt.Errorf("failed to reconstruct matrices: %w", err)
		}
		matrixPath := cfg.Extract.OutputPath + ".matrices"
		if err := filewriter.WriteMatrices(matrixPath, matrices); err != nil {
			return fmt.Errorf("failed to write matrices: %w", err)
		}
		fmt.Printf("wrote %d reconstructed matrices to %s\n", len(matrices), matrixPath)
	}

	return nil
}

func reconstructBatch(batch beefi.Batch) ([]beefi.BfmData, error) {
	matrices := make([]beefi.BfmData, 0, len(batch.Metadata))
	for i, meta := range batch.Metadata {
		subcarriers, err := geometry.SubcarrierCount(meta.Bandwidth)
		if err != nil {
			return nil, fmt.Errorf("packet %d: %w", i, err)
		}
		anglesPerSubcarrier := geometry.AngleCount(meta.Nr(), meta.Nc())
		angles := make([]uint16, subcarriers*anglesPerSubcarrier)
		for s := 0; s < subcarriers; s++ {
			for a := 0; a < anglesPerSubcarrier; a++ {
				angles[s*anglesPerSubcarrier+a] = batch.Angles[(i*batch.SMax+s)*batch.AMax+a]
			}
		}
		d := &beefi.BfaData{
			Metadata:            meta,
			Timestamp:           batch.Timestamps[i],
			TokenNumber:         batch.TokenNumbers[i],
			BfaAngles:           angles,
			Subcarriers:         subcarriers,
			AnglesPerSubcarrier: anglesPerSubcarrier,
		}
		m, err := beefi.Reconstruct(d)
		if err != nil {
			return nil, fmt.Errorf("packet %d: %w", i, err)
		}
		matrices = append(matrices, *m)
	}
	return matrices, nil
}

func printSummary(batch beefi.Batch) {
	for i, meta := range batch.Metadata {
		fmt.Printf("packet %d: %dMHz Nr=%d Nc=%d %s token=%d ts=%.6f\n",
			i, meta.Bandwidth, meta.Nr(), meta.Nc(), meta.FeedbackType, batch.TokenNumbers[i], batch.Timestamps[i])
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
