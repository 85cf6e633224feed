package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var logsLines int

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Print the tail of the structured log file",
	Long: `logs prints the last --lines entries from lyra's structured log
file (internal/logging, backed by zap), one JSON object per line. This is
process telemetry, not the audit trail — use "lyra history" for that.`,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().IntVar(&logsLines, "lines", 50, "Number of trailing log lines to print")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	lines, err := tailLines(cfg.Logging.Path, logsLines)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("no log file yet — it's created on first \"lyra run\" or \"lyra repl\"")
			return nil
		}
		return err
	}
	for _, l := range lines {
		fmt.Println(l)
	}
	return nil
}

// tailLines returns at most n of the last lines in path, read in a single
// forward pass since lyra's log files are small enough not to need seeking
// from the end.
func tailLines(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ring []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		ring = append(ring, scanner.Text())
		if len(ring) > n {
			ring = ring[1:]
		}
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return nil, err
	}
	return ring, nil
}
