package processor

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Default binary names, resolved on $PATH. Both ship with macOS; the
// environment variables exist so CI boxes can point at wrappers.
const (
	defaultConverter = "afconvert"
	defaultAnalyzer  = "afinfo"

	converterEnv = "MASTERCHECK_AFCONVERT"
	analyzerEnv  = "MASTERCHECK_AFINFO"
)

// Toolchain locates and runs the two external binaries the check depends
// on: afconvert to produce the AAC intermediate with Sound Check metadata,
// and afinfo to dump that metadata as text.
type Toolchain struct {
	Converter string
	Analyzer  string
}

// NewToolchain builds a Toolchain from the environment, falling back to
// the standard binary names. Call godotenv.Load first if .env overrides
// should apply.
func NewToolchain() Toolchain {
	tc := Toolchain{
		Converter: defaultConverter,
		Analyzer:  defaultAnalyzer,
	}
	if v := os.Getenv(converterEnv); v != "" {
		tc.Converter = v
	}
	if v := os.Getenv(analyzerEnv); v != "" {
		tc.Analyzer = v
	}
	return tc
}

// convertArgs is the Apple Digital Masters encode recipe: 256 kbps AAC in
// an m4a container at maximum quality, with --soundcheck-generate asking
// the encoder to embed the loudness analysis afinfo will report back.
func convertArgs(src, dst string) []string {
	return []string{
		src,
		"-d", "aac",
		"-f", "m4af",
		"-u", "pgcm", "2",
		"-b", "256000",
		"-q", "127",
		"-s", "2",
		"--soundcheck-generate",
		dst,
	}
}

// Convert transcodes src into the intermediate container at dst.
func (tc Toolchain) Convert(src, dst string) error {
	if _, err := run(tc.Converter, convertArgs(src, dst)...); err != nil {
		return fmt.Errorf("converting %s: %w", src, err)
	}
	return nil
}

// Analyze runs the info tool against the intermediate and returns its
// combined stdout/stderr as the raw analysis report.
func (tc Toolchain) Analyze(path string) (string, error) {
	out, err := run(tc.Analyzer, path)
	if err != nil {
		return "", fmt.Errorf("analyzing %s: %w", path, err)
	}
	return out, nil
}

// run finds the executable on the path, runs it, and returns its combined
// output. On failure the trailing output lines are folded into the error
// so the tool's own diagnostic reaches the user.
func run(executable string, args ...string) (string, error) {
	path, err := exec.LookPath(executable)
	if err != nil {
		return "", fmt.Errorf("%s not found on PATH: %w", executable, err)
	}
	raw, err := exec.Command(path, args...).CombinedOutput()
	out := strings.TrimSpace(string(raw))
	if err != nil {
		return out, fmt.Errorf("%s failed: %w: %s", executable, err, tailLines(out, 3))
	}
	return out, nil
}

// tailLines returns the last n non-empty lines of s on a single line.
func tailLines(s string, n int) string {
	var kept []string
	for _, line := range splitLines(s) {
		if strings.TrimSpace(line) != "" {
			kept = append(kept, strings.TrimSpace(line))
		}
	}
	if len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	return strings.Join(kept, " / ")
}
