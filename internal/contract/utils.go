package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/treebench/iqstat/schema"
)

// Color variables for console output.
var (
	ConvergedColor = color.New(color.FgGreen, color.Bold) // convergedColor represents a settled search.
	StableColor    = color.New(color.FgCyan)              // stableColor represents mild disagreement.
	MixedColor     = color.New(color.FgYellow)            // mixedColor represents standard caution, not bold.
	DivergentColor = color.New(color.FgRed, color.Bold)   // divergentColor represents standard danger.
)

// GetColorLabel returns a colored text label for console output (table).
// It uses schema.GetPlainLabel to determine the string, and then applies the appropriate color.
func GetColorLabel(topologies, trees int) string {
	text := schema.GetPlainLabel(topologies, trees)

	switch text {
	case schema.ConvergedLabel:
		return ConvergedColor.Sprint(text)
	case schema.StableLabel:
		return StableColor.Sprint(text)
	case schema.MixedLabel:
		return MixedColor.Sprint(text)
	default: // "Divergent"
		return DivergentColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path means os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetAnalysisDBFilePath returns the path to the SQLite DB file for analysis history.
func GetAnalysisDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".iqstat_history.db"
	}
	return filepath.Join(homeDir, ".iqstat_history.db")
}

// TruncatePath truncates a file path to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 to ensure there's space for both the "..." prefix and at least one character of content.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// RunPrefix strips a known run file suffix so that "run1.log", "run1.iqtree" and
// "run1" all name the same run.
func RunPrefix(arg string, suffixes ...string) string {
	for _, s := range suffixes {
		if s != "" && strings.HasSuffix(arg, s) && len(arg) > len(s) {
			return strings.TrimSuffix(arg, s)
		}
	}
	return arg
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
