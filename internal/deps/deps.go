package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"hardsub/internal/config"
)

// Requirement defines an external dependency hardsub relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Required returns the binary requirements for the given configuration.
func Required(cfg *config.Config) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: cfg.FFmpegBinary(), Description: "Frame decoding"},
		{Name: "FFprobe", Command: cfg.FFprobeBinary(), Description: "Video metadata"},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// CheckTessdata reports whether the configured tesseract data directory
// holds trained data for every requested language. An empty directory
// setting defers to the library's own lookup and passes.
func CheckTessdata(cfg *config.Config) Status {
	status := Status{
		Name:        "Tessdata",
		Command:     cfg.OCR.TessdataDir,
		Description: "Tesseract language data",
	}
	if cfg.OCR.TessdataDir == "" {
		status.Available = true
		status.Detail = "using tesseract default lookup"
		return status
	}

	var missing []string
	for _, lang := range cfg.OCR.Languages {
		trained := filepath.Join(cfg.OCR.TessdataDir, lang+".traineddata")
		if _, err := os.Stat(trained); err != nil {
			missing = append(missing, lang)
		}
	}
	if len(missing) > 0 {
		status.Detail = fmt.Sprintf("missing trained data for %s", strings.Join(missing, ", "))
		return status
	}
	status.Available = true
	return status
}

// Missing filters statuses down to unavailable required dependencies.
func Missing(statuses []Status) []Status {
	var out []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			out = append(out, status)
		}
	}
	return out
}
