package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/skelaudit-cli/internal/testutil"
	"github.com/cyclopcam/logs"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags restores every flag to its default so state does not leak
// between invocations of the shared root command.
func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd executes the root command with args and returns its stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	debug = false
	logger = logs.NewTestingLog(t)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// runWithStderrLog is runCmd with the production logger, which writes to the
// command's stderr. It returns stdout and stderr separately.
func runWithStderrLog(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	debug = false
	logger = nil
	t.Cleanup(func() { logger = nil })
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

// writeSplitFiles writes a small, well-formed split: n samples, two classes
// alternating, class 1 four times larger than class 0.
func writeSplitFiles(t *testing.T, dir, split string, n int) {
	t.Helper()
	const frames, joints = 4, 2
	jd := make([]float64, n*3*frames*joints)
	for i := range jd {
		jd[i] = 0.5
	}
	testutil.WriteNPY(t, filepath.Join(dir, split+"_data_joint.npy"), []int{n, 3, frames, joints, 1}, jd)
	testutil.WriteNPY(t, filepath.Join(dir, split+"_bbox.npy"), []int{n, frames, 4}, make([]float64, n*frames*4))

	cd := make([]float64, 0, n*frames*3)
	names := make([]any, n)
	ids := make([]any, n)
	paths := make([]any, n)
	for i := 0; i < n; i++ {
		area := 0.05 + 0.15*float64(i%2) + 0.001*float64(i)
		vis := 0.1 + 0.8*float64(i)/float64(n)
		for f := 0; f < frames; f++ {
			cd = append(cd, area, vis, 0.1*float64(f))
		}
		names[i] = "s" + string(rune('a'+i))
		ids[i] = []any{i % 2}
		paths[i] = "v.mp4"
	}
	testutil.WriteNPY(t, filepath.Join(dir, split+"_crowd_features.npy"), []int{n, frames, 3}, cd)
	testutil.WritePickle(t, dir, split+"_label.pkl", testutil.Tuple{names, ids, ids, paths})
}

func TestCLI_ScanReportsCorruptedFiles(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "cam1")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, body := range map[string]string{
		"a.json":      `{"ok": true}`,
		"b.json":      `[1, 2, 3]`,
		"cam1/c.json": `{"truncated": `,
		"notes.txt":   `not scanned`,
	} {
		if err := os.WriteFile(filepath.Join(root, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	logPath := filepath.Join(t.TempDir(), "corrupted.txt")
	out := mustRun(t, "scan", root, "--log", logPath)
	if !strings.Contains(out, "Scanned 3 files") || !strings.Contains(out, "⚠ Found 1 corrupted files") {
		t.Fatalf("unexpected scan output:\n%s", out)
	}
	b, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if got := strings.TrimSpace(string(b)); got != filepath.Join(sub, "c.json") {
		t.Fatalf("unexpected log content %q", got)
	}
}

func TestCLI_ScanCleanTreeWritesNoLog(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.json"), []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}
	logPath := filepath.Join(t.TempDir(), "corrupted.txt")
	out := mustRun(t, "scan", root, "--log", logPath)
	if !strings.Contains(out, "✓ No corrupted files found") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if _, err := os.Stat(logPath); !os.IsNotExist(err) {
		t.Fatalf("log should not exist for a clean tree")
	}
}

func TestCLI_CheckWritesReportAndCharts(t *testing.T) {
	dir := t.TempDir()
	writeSplitFiles(t, dir, "train", 8)
	outDir := t.TempDir()
	report := filepath.Join(outDir, "report.md")
	plots := filepath.Join(outDir, "plots")

	mustRun(t, "check", "--mode", "train", "--data-dir", dir, "--output", report, "--plots-dir", plots)

	b, err := os.ReadFile(report)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	md := string(b)
	for _, section := range []string{"[DATASET SUMMARY]", "[ALIGNMENT]", "[CLASS DISTRIBUTION]", "[WARNINGS]"} {
		if !strings.Contains(md, section) {
			t.Fatalf("report missing %s:\n%s", section, md)
		}
	}
	if !strings.Contains(md, "consistent number of samples") {
		t.Fatalf("expected aligned split:\n%s", md)
	}
	for _, name := range []string{"train_histograms.png", "train_class_counts.png", "train_area_by_class.png"} {
		if _, err := os.Stat(filepath.Join(plots, name)); err != nil {
			t.Fatalf("missing chart %s: %v", name, err)
		}
	}
}

func TestCLI_CheckJSON(t *testing.T) {
	dir := t.TempDir()
	writeSplitFiles(t, dir, "val", 6)
	report := filepath.Join(t.TempDir(), "val.json")
	mustRun(t, "check", "-m", "val", "-d", dir, "-f", "json", "-o", report)

	b, err := os.ReadFile(report)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var got struct {
		Split     string `json:"split"`
		Alignment struct {
			Consistent bool `json:"consistent"`
		} `json:"alignment"`
	}
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("report is not JSON: %v\n%s", err, b)
	}
	if got.Split != "val" || !got.Alignment.Consistent {
		t.Fatalf("unexpected report: %+v", got)
	}
}

func TestCLI_CheckContinuesAfterFailedSplit(t *testing.T) {
	dir := t.TempDir()
	writeSplitFiles(t, dir, "train", 6)
	report := filepath.Join(t.TempDir(), "report.md")

	_, err := runCmd(t, "check", "--mode", "train,test", "--data-dir", dir, "--output", report)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 splits failed: test") {
		t.Fatalf("expected test split failure, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(report), "report_train.md")); err != nil {
		t.Fatalf("train report should still be written: %v", err)
	}
}

func TestCLI_CheckRejectsUnknownSplit(t *testing.T) {
	if _, err := runCmd(t, "check", "--mode", "holdout", "--data-dir", t.TempDir()); err == nil {
		t.Fatalf("expected error for unknown split")
	}
}

func TestCLI_ConfigSet(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	oldCfg, oldFile := cfg, cfgFile
	defer func() { cfg, cfgFile = oldCfg, oldFile }()
	cfg = nil

	mustRun(t, "config", "set", "imbalance_threshold", "0.25")
	b, err := os.ReadFile(filepath.Join(home, ".skelaudit", "config.yaml"))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(b), "imbalance_threshold: 0.25") {
		t.Fatalf("config not saved:\n%s", b)
	}
	out := mustRun(t, "config", "show")
	if !strings.Contains(out, "imbalance_threshold: 0.250") {
		t.Fatalf("unexpected show output:\n%s", out)
	}
	if _, err := runCmd(t, "config", "set", "sentinel", "0.2"); err == nil {
		t.Fatalf("sentinel should be read-only")
	}
}

func TestCLI_ScanJSONStdoutIsClean(t *testing.T) {
	root := t.TempDir()
	for name, body := range map[string]string{
		"a.json": `{"ok": true}`,
		"b.json": `{"truncated": `,
	} {
		if err := os.WriteFile(filepath.Join(root, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	logPath := filepath.Join(t.TempDir(), "corrupted.txt")
	stdout, stderr, err := runWithStderrLog(t, "scan", root, "--log", logPath, "--json")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	var got struct {
		Total     int `json:"total"`
		Corrupted []struct {
			Path string `json:"path"`
		} `json:"corrupted"`
	}
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout)
	}
	if got.Total != 2 || len(got.Corrupted) != 1 {
		t.Fatalf("unexpected result: %+v", got)
	}
	if !strings.Contains(stderr, "[scan]") {
		t.Fatalf("expected scan log lines on stderr, got:\n%s", stderr)
	}
}

func TestCLI_CheckJSONStdoutIsClean(t *testing.T) {
	dir := t.TempDir()
	writeSplitFiles(t, dir, "val", 6)
	stdout, stderr, err := runWithStderrLog(t, "check", "-m", "val", "-d", dir, "-f", "json")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	var got struct {
		Split string `json:"split"`
	}
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout)
	}
	if got.Split != "val" {
		t.Fatalf("unexpected report: %+v", got)
	}
	if !strings.Contains(stderr, "[val]") {
		t.Fatalf("expected check log lines on stderr, got:\n%s", stderr)
	}
}

func TestCLI_CheckRejectsUnknownFormatByName(t *testing.T) {
	_, err := runCmd(t, "check", "-m", "val", "-d", t.TempDir(), "-f", "xml")
	if err == nil || !strings.Contains(err.Error(), "unsupported report format: xml") {
		t.Fatalf("expected format error naming xml, got %v", err)
	}
}

func TestCLI_ScanRejectsExtensionWithoutValidator(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("plain text"), 0o644); err != nil {
		t.Fatal(err)
	}
	logPath := filepath.Join(t.TempDir(), "corrupted.txt")
	if _, err := runCmd(t, "scan", root, "--ext", ".txt", "--log", logPath); err == nil || !strings.Contains(err.Error(), "no validator") {
		t.Fatalf("expected extension rejection, got %v", err)
	}
	if _, err := os.Stat(logPath); !os.IsNotExist(err) {
		t.Fatalf("no log should be written, stat err = %v", err)
	}
}
