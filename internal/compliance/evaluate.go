// Package compliance evaluates a scanned project against fixed per-category
// checklists covering EU AI Act risk tiers and GDPR processing roles. The
// checklist for a category never depends on scan content; only the pass/fail
// outcome of each item does.
package compliance

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/ark-forge/mcp-eu-ai-act/internal/detect"
)

// ErrUnknownCategory means the requested category is not one of the risk
// tiers or processing roles.
var ErrUnknownCategory = errors.New("unknown category")

// Evaluation is the outcome of checking one project against one category.
type Evaluation struct {
	Category     string            `json:"category"`
	Description  string            `json:"description"`
	Requirements []string          `json:"requirements"`
	Status       map[string]bool   `json:"compliance_status"`
	Score        string            `json:"compliance_score"`
	Percentage   float64           `json:"compliance_percentage"`
	Notes        map[string]string `json:"notes,omitempty"`

	// itemOrder preserves checklist declaration order so recommendations
	// are deterministic despite Status being a map.
	itemOrder []string
}

// placeholderMarkers are template-artifact strings counted inside a
// compliance document. A document with more than placeholderThreshold
// occurrences still passes its existence check but earns a note.
var placeholderMarkers = []string{"TODO", "[FILL", "{{", "XXX", "[TBD"}

const placeholderThreshold = 2

// aiKeywords satisfy the user-disclosure check when any appears in the
// project README.
var aiKeywords = []string{
	"ai", "artificial intelligence", "machine learning",
	"deep learning", "gpt", "claude", "llm",
}

// markingPhrases satisfy the content-marking check when any appears in a
// scanned source file.
var markingPhrases = []string{"generated by ai", "ai-generated", "machine-generated"}

// Evaluator checks one scanned project against category checklists. It
// combines on-disk document checks with the detection results produced
// during the scan.
type Evaluator struct {
	root        string
	sourceFiles []string
	gdpr        detect.Result
}

// NewEvaluator builds an evaluator for a scanned project. root must be a
// validated canonical path, sourceFiles the relative source paths from the
// walk, and gdpr the GDPR-signal detection result for those files.
func NewEvaluator(root string, sourceFiles []string, gdpr detect.Result) *Evaluator {
	return &Evaluator{root: root, sourceFiles: sourceFiles, gdpr: gdpr}
}

// Evaluate runs the fixed checklist for category and scores the outcome.
// An empty checklist (the prohibited tier) yields a 0/0 score with zero
// percent, never a division error.
func (e *Evaluator) Evaluate(category string) (*Evaluation, error) {
	info, ok := Lookup(category)
	if !ok {
		return nil, fmt.Errorf("%w: %q (valid: %s)",
			ErrUnknownCategory, category, strings.Join(CategoryNames(), ", "))
	}

	ev := &Evaluation{
		Category:     category,
		Description:  info.Description,
		Requirements: info.Requirements,
		Status:       make(map[string]bool),
	}

	passed := 0
	for _, item := range info.items {
		ok, note := e.check(item)
		ev.Status[item.name] = ok
		ev.itemOrder = append(ev.itemOrder, item.name)
		if ok {
			passed++
		}
		if note != "" {
			if ev.Notes == nil {
				ev.Notes = make(map[string]string)
			}
			ev.Notes[item.name] = note
		}
	}

	total := len(info.items)
	ev.Score = fmt.Sprintf("%d/%d", passed, total)
	if total > 0 {
		ev.Percentage = math.Round(float64(passed)/float64(total)*1000) / 10
	}
	return ev, nil
}

func (e *Evaluator) check(item checkItem) (passed bool, note string) {
	switch item.kind {
	case kindFiles:
		for _, name := range item.files {
			if path, ok := e.findDoc(name); ok {
				return true, e.placeholderNote(path)
			}
		}
		return false, ""
	case kindTechnicalDocs:
		for _, name := range []string{"README.md", "ARCHITECTURE.md", "API.md"} {
			if _, ok := e.findDoc(name); ok {
				return true, ""
			}
		}
		info, err := os.Stat(filepath.Join(e.root, "docs"))
		return err == nil && info.IsDir(), ""
	case kindAIDisclosure:
		return e.readmeMentionsAI(), ""
	case kindContentMarking:
		return e.sourcesCarryMarking(), ""
	case kindSignal:
		return len(e.gdpr.Matches[item.signal]) > 0, ""
	}
	return false, ""
}

// findDoc looks for a compliance document at the project root or under
// docs/, the two places such documents conventionally live.
func (e *Evaluator) findDoc(name string) (string, bool) {
	for _, candidate := range []string{
		filepath.Join(e.root, name),
		filepath.Join(e.root, "docs", name),
	} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// placeholderNote reads a document and reports when it looks like an
// unfilled template. The existence check still passes; the note flags the
// document for manual review.
func (e *Evaluator) placeholderNote(path string) string {
	content, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	count := 0
	text := string(content)
	for _, marker := range placeholderMarkers {
		count += strings.Count(text, marker)
	}
	if count > placeholderThreshold {
		return fmt.Sprintf("%s contains %d placeholder markers and may be an unfilled template",
			filepath.Base(path), count)
	}
	return ""
}

func (e *Evaluator) readmeMentionsAI() bool {
	readme, ok := e.findDoc("README.md")
	if !ok {
		return false
	}
	content, err := os.ReadFile(readme)
	if err != nil {
		return false
	}
	text := strings.ToLower(string(content))
	for _, kw := range aiKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func (e *Evaluator) sourcesCarryMarking() bool {
	for _, rel := range e.sourceFiles {
		content, err := os.ReadFile(filepath.Join(e.root, rel))
		if err != nil {
			continue
		}
		text := strings.ToLower(string(content))
		for _, phrase := range markingPhrases {
			if strings.Contains(text, phrase) {
				return true
			}
		}
	}
	return false
}

// Recommendations derives remediation guidance from an evaluation: one
// MISSING line per failed item, plus category-specific reminders. A fully
// passing checklist yields a single confirmation line.
func Recommendations(ev *Evaluation) []string {
	var out []string
	for _, name := range ev.itemOrder {
		if !ev.Status[name] {
			out = append(out, fmt.Sprintf("MISSING: %s - create the corresponding documentation or mechanism", humanize(name)))
		}
	}
	if len(out) == 0 && len(ev.itemOrder) > 0 {
		out = append(out, "All basic checks passed")
	}
	switch ev.Category {
	case "prohibited":
		out = append(out, "Prohibited system: deployment is not permitted under the EU AI Act")
	case "high":
		out = append(out, "High-risk system: EU database registration is required before deployment")
	case "limited":
		out = append(out, "Limited-risk system: ensure transparency obligations are met at runtime")
	}
	return out
}

func humanize(item string) string {
	s := strings.ReplaceAll(item, "_", " ")
	return strings.ToUpper(s[:1]) + s[1:]
}
