package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureLogDirectory creates the log directory and verifies it is writable.
// This is a pre-flight check that runs before the file sinks are opened.
func EnsureLogDirectory(dir string) error {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path for %s: %w", dir, err)
	}

	if err := os.MkdirAll(absPath, 0755); err != nil {
		return fmt.Errorf("failed to create log directory %s: %w\n"+
			"  Remediation: Ensure the parent directory exists and is writable\n"+
			"  For Docker: Check volume mount permissions\n"+
			"  For bare metal: Run 'mkdir -p %s && chmod 755 %s' or set LOG_DIR", dir, err, absPath, absPath)
	}

	// Verify write permissions
	testFile := filepath.Join(absPath, ".rag_backend_write_test")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		return fmt.Errorf("log directory %s is not writable: %w\n"+
			"  Remediation: Check file system permissions\n"+
			"  For Docker: Ensure volume is mounted with write access\n"+
			"  For bare metal: Run 'chmod -R u+w %s'", dir, err, absPath)
	}
	os.Remove(testFile)

	return nil
}

// printFatal writes a startup failure banner to stderr. It is used for errors
// that happen before, or instead of, a working logger.
func printFatal(title, detail string) {
	fmt.Fprintf(os.Stderr, "\n========================================\n")
	fmt.Fprintf(os.Stderr, "FATAL: %s\n", title)
	fmt.Fprintf(os.Stderr, "========================================\n")
	fmt.Fprintf(os.Stderr, "%s\n", detail)
	fmt.Fprintf(os.Stderr, "========================================\n\n")
}
