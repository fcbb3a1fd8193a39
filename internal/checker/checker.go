// Package checker orchestrates the scan pipeline: path validation, bounded
// traversal, framework detection, and compliance evaluation. It is the
// single entry point the MCP tools and the CLI call into; everything below
// it is side-effect free with respect to service state.
package checker

import (
	"time"

	"github.com/ark-forge/mcp-eu-ai-act/internal/compliance"
	"github.com/ark-forge/mcp-eu-ai-act/internal/config"
	"github.com/ark-forge/mcp-eu-ai-act/internal/detect"
	"github.com/ark-forge/mcp-eu-ai-act/internal/logging"
	"github.com/ark-forge/mcp-eu-ai-act/internal/pathguard"
	"github.com/ark-forge/mcp-eu-ai-act/pkg/fileops"
)

// Checker runs scans and evaluations with the limits from config.
type Checker struct {
	cfg    *config.Config
	logger *logging.AppLogger
}

// New creates a Checker. Both arguments are required.
func New(cfg *config.Config, logger *logging.AppLogger) *Checker {
	return &Checker{cfg: cfg, logger: logger}
}

// ScanResult is the outcome of scanning one project for AI usage.
type ScanResult struct {
	ProjectPath    string              `json:"project_path"`
	FilesScanned   int                 `json:"files_scanned"`
	AIFiles        []detect.FileMatch  `json:"ai_files"`
	DetectedModels map[string][]string `json:"detected_models"`
}

// ComplianceResult pairs a compliance evaluation with the project it was
// run against. The embedded evaluation flattens into the JSON output.
type ComplianceResult struct {
	ProjectPath string `json:"project_path"`
	*compliance.Evaluation
	DetectedSignals map[string][]string `json:"detected_signals,omitempty"`
}

// Report is the combined output of generate_report: a scan, an evaluation,
// and remediation guidance in one document.
type Report struct {
	ReportDate        string            `json:"report_date"`
	ProjectPath       string            `json:"project_path"`
	Category          string            `json:"category"`
	ScanSummary       ScanSummary       `json:"scan_summary"`
	ComplianceSummary ComplianceSummary `json:"compliance_summary"`
	DetailedFindings  map[string]bool   `json:"detailed_findings"`
	Recommendations   []string          `json:"recommendations"`
}

type ScanSummary struct {
	FilesScanned       int      `json:"files_scanned"`
	AIFilesFound       int      `json:"ai_files_found"`
	DetectedFrameworks []string `json:"detected_frameworks"`
}

type ComplianceSummary struct {
	Description string            `json:"description"`
	Score       string            `json:"compliance_score"`
	Percentage  float64           `json:"compliance_percentage"`
	Notes       map[string]string `json:"notes,omitempty"`
}

// scanned carries the intermediate state shared by all operations: the
// canonical root, the relative source paths, and the AI detection result.
type scanned struct {
	root    string
	sources []string
	ai      detect.Result
}

func (c *Checker) scan(path string) (*scanned, error) {
	start := time.Now()

	root, err := pathguard.Validate(path)
	if err != nil {
		c.logger.Warn("Scan rejected by path guard", "path", path, "error", err)
		return nil, err
	}

	sources, err := fileops.Walk(root, fileops.WalkOptions{
		MaxFiles:    c.cfg.MaxFiles,
		MaxFileSize: c.cfg.MaxFileSize,
		Extensions:  detect.SourceExtensions,
	})
	if err != nil {
		return nil, err
	}

	manifests, err := fileops.Walk(root, fileops.WalkOptions{
		MaxFiles:    c.cfg.MaxFiles,
		MaxFileSize: c.cfg.MaxFileSize,
		Names:       detect.ManifestNames,
	})
	if err != nil {
		return nil, err
	}

	ai := detect.Scan(root, append(append([]string{}, sources...), manifests...), detect.AIFrameworkPatterns)

	c.logger.Debug("Scan complete",
		"root", root,
		"sources", len(sources),
		"manifests", len(manifests),
		"matched", len(ai.Files),
	)
	c.logger.LogPerformance("scan_project", start)

	return &scanned{root: root, sources: sources, ai: ai}, nil
}

// ScanProject validates the path, walks the tree under the configured
// caps, and reports every file that uses a known AI framework.
func (c *Checker) ScanProject(path string) (*ScanResult, error) {
	s, err := c.scan(path)
	if err != nil {
		return nil, err
	}
	return c.scanResult(s), nil
}

func (c *Checker) scanResult(s *scanned) *ScanResult {
	res := &ScanResult{
		ProjectPath:    s.root,
		FilesScanned:   s.ai.FilesScanned,
		AIFiles:        s.ai.Files,
		DetectedModels: s.ai.Matches,
	}
	// Empty results marshal as [] / {} rather than null.
	if res.AIFiles == nil {
		res.AIFiles = []detect.FileMatch{}
	}
	return res
}

// CheckCompliance scans the project, then evaluates it against the fixed
// checklist for category. The scan runs first: path errors surface even
// when the category has an empty checklist.
func (c *Checker) CheckCompliance(path, category string) (*ComplianceResult, error) {
	s, err := c.scan(path)
	if err != nil {
		return nil, err
	}

	gdpr := detect.Scan(s.root, s.sources, detect.GDPRSignalPatterns)
	ev, err := compliance.NewEvaluator(s.root, s.sources, gdpr).Evaluate(category)
	if err != nil {
		return nil, err
	}

	res := &ComplianceResult{
		ProjectPath: s.root,
		Evaluation:  ev,
	}
	if len(gdpr.Matches) > 0 {
		res.DetectedSignals = gdpr.Matches
	}
	return res, nil
}

// GenerateReport produces a timestamped report combining the scan summary,
// the compliance evaluation, and derived recommendations.
func (c *Checker) GenerateReport(path, category string) (*Report, error) {
	s, err := c.scan(path)
	if err != nil {
		return nil, err
	}

	gdpr := detect.Scan(s.root, s.sources, detect.GDPRSignalPatterns)
	ev, err := compliance.NewEvaluator(s.root, s.sources, gdpr).Evaluate(category)
	if err != nil {
		return nil, err
	}

	frameworks := s.ai.Categories(detect.AIFrameworkPatterns)
	if frameworks == nil {
		frameworks = []string{}
	}

	return &Report{
		ReportDate:  time.Now().UTC().Format(time.RFC3339),
		ProjectPath: s.root,
		Category:    category,
		ScanSummary: ScanSummary{
			FilesScanned:       s.ai.FilesScanned,
			AIFilesFound:       len(s.ai.Files),
			DetectedFrameworks: frameworks,
		},
		ComplianceSummary: ComplianceSummary{
			Description: ev.Description,
			Score:       ev.Score,
			Percentage:  ev.Percentage,
			Notes:       ev.Notes,
		},
		DetailedFindings: ev.Status,
		Recommendations:  compliance.Recommendations(ev),
	}, nil
}
