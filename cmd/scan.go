package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/skelaudit-cli/internal/scanner"
	"github.com/KaramelBytes/skelaudit-cli/internal/utils"
	"github.com/cyclopcam/logs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
)

var (
	scanLogPath string
	scanExts    []string
	scanQuiet   bool
	scanJSON    bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [root]",
	Short: "Find annotation files that fail to parse",
	Long: `Walks the raw annotation tree and tries to parse every candidate file.
Unreadable or malformed files are listed and written, one path per line,
to the corrupted-file log. The log is only written when something failed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := settings()
		root := s.RootDir
		if len(args) == 1 {
			root = args[0]
		}
		opt := scanner.DefaultOptions()
		opt.ProgressEvery = s.ProgressEvery
		opt.Extensions = s.ScanExtensions
		if cmd.Flags().Changed("ext") {
			opt.Extensions = utils.SplitList(scanExts...)
		}
		logPath := s.CorruptedLog
		if scanLogPath != "" {
			logPath = scanLogPath
		}

		root, err := filepath.Abs(root)
		if err != nil {
			return fmt.Errorf("resolve root: %w", err)
		}
		if logPath, err = filepath.Abs(logPath); err != nil {
			return fmt.Errorf("resolve log path: %w", err)
		}

		log := logs.NewPrefixLogger(getLogger(cmd.ErrOrStderr()), "[scan]")
		fsys := osfs.New("/")
		res, err := scanner.Scan(fsys, root, opt, log)
		if err != nil {
			return err
		}
		if _, err := scanner.WriteLog(fsys, logPath, res); err != nil {
			return err
		}

		if scanJSON {
			b, err := utils.PrettyJSON(res)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
		} else {
			printScanResult(cmd, res)
		}
		return nil
	},
}

func printScanResult(cmd *cobra.Command, res *scanner.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scanned %d files under %s\n", res.Total, res.Root)
	if res.Clean() {
		fmt.Fprintln(out, "✓ No corrupted files found")
		return
	}
	fmt.Fprintf(out, "⚠ Found %d corrupted files\n", len(res.Corrupted))
	if !scanQuiet {
		for _, c := range res.Corrupted {
			if debug {
				fmt.Fprintf(out, "  - %s (%s)\n", c.Path, c.Err)
			} else {
				fmt.Fprintf(out, "  - %s\n", c.Path)
			}
		}
	}
	fmt.Fprintf(out, "✓ Wrote corrupted file list to %s\n", res.LogPath)
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVar(&scanLogPath, "log", "", "corrupted-file log path (default from config: corrupted_log)")
	scanCmd.Flags().StringSliceVar(&scanExts, "ext", nil, "comma-separated file extensions to scan (default from config: scan_extensions)")
	scanCmd.Flags().BoolVarP(&scanQuiet, "quiet", "q", false, "only print totals, not each corrupted path")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "print the scan result as JSON")
}
