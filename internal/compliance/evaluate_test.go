package compliance

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ark-forge/mcp-eu-ai-act/internal/detect"
)

func writeDoc(t *testing.T, root, name, content string) {
	t.Helper()
	full := filepath.Join(root, name)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func evaluate(t *testing.T, root, category string, sources []string, gdpr detect.Result) *Evaluation {
	t.Helper()
	ev, err := NewEvaluator(root, sources, gdpr).Evaluate(category)
	if err != nil {
		t.Fatalf("Evaluate(%q) returned error: %v", category, err)
	}
	return ev
}

func TestEvaluateUnknownCategory(t *testing.T) {
	_, err := NewEvaluator(t.TempDir(), nil, detect.Result{}).Evaluate("medium")
	if !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("error = %v, want ErrUnknownCategory", err)
	}
}

func TestEvaluateProhibitedHasEmptyChecklist(t *testing.T) {
	ev := evaluate(t, t.TempDir(), "prohibited", nil, detect.Result{})

	if ev.Score != "0/0" {
		t.Errorf("Score = %q, want 0/0", ev.Score)
	}
	if ev.Percentage != 0 {
		t.Errorf("Percentage = %v, want 0", ev.Percentage)
	}
	if len(ev.Status) != 0 {
		t.Errorf("Status = %v, want empty", ev.Status)
	}
}

func TestEvaluateHighTierWithReadmeOnly(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "README.md", "# My project\n")

	ev := evaluate(t, root, "high", nil, detect.Result{})

	if !ev.Status["technical_documentation"] {
		t.Error("technical_documentation should pass with a README present")
	}
	// A plain README is not a transparency notice for a high-risk system.
	if ev.Status["transparency"] {
		t.Error("transparency should require TRANSPARENCY.md for the high tier")
	}
	if ev.Score != "1/6" {
		t.Errorf("Score = %q, want 1/6", ev.Score)
	}
}

func TestEvaluateHighTierFullyDocumented(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{
		"README.md", "RISK_MANAGEMENT.md", "TRANSPARENCY.md",
		"DATA_GOVERNANCE.md", "HUMAN_OVERSIGHT.md", "ROBUSTNESS.md",
	} {
		writeDoc(t, root, name, "Documented.\n")
	}

	ev := evaluate(t, root, "high", nil, detect.Result{})

	if ev.Score != "6/6" {
		t.Errorf("Score = %q, want 6/6", ev.Score)
	}
	if ev.Percentage != 100 {
		t.Errorf("Percentage = %v, want 100", ev.Percentage)
	}
}

func TestEvaluateFindsDocumentsUnderDocsDir(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, filepath.Join("docs", "RISK_MANAGEMENT.md"), "risks\n")

	ev := evaluate(t, root, "high", nil, detect.Result{})

	if !ev.Status["risk_management"] {
		t.Error("risk_management should find docs/RISK_MANAGEMENT.md")
	}
}

func TestEvaluateLimitedTier(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "README.md", "This chatbot is powered by machine learning.\n")
	writeDoc(t, root, "gen.py", "# output is ai-generated\n")

	ev := evaluate(t, root, "limited", []string{"gen.py"}, detect.Result{})

	for item, want := range map[string]bool{
		"transparency":    true,
		"user_disclosure": true,
		"content_marking": true,
	} {
		if ev.Status[item] != want {
			t.Errorf("Status[%s] = %v, want %v", item, ev.Status[item], want)
		}
	}
	if ev.Score != "3/3" {
		t.Errorf("Score = %q, want 3/3", ev.Score)
	}
}

func TestEvaluateLimitedTierWithoutDisclosure(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "README.md", "A command line tool for sorting files.\n")

	ev := evaluate(t, root, "limited", nil, detect.Result{})

	if ev.Status["user_disclosure"] {
		t.Error("user_disclosure should fail when the README never mentions AI")
	}
	if ev.Status["content_marking"] {
		t.Error("content_marking should fail with no marked sources")
	}
}

func TestEvaluatePercentageRounding(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "README.md", "docs\n")

	ev := evaluate(t, root, "high", nil, detect.Result{})

	// 1 of 6 checks: 16.666... rounds to one decimal.
	if ev.Percentage != 16.7 {
		t.Errorf("Percentage = %v, want 16.7", ev.Percentage)
	}
}

func TestEvaluateControllerUsesDetectionSignals(t *testing.T) {
	root := t.TempDir()
	gdpr := detect.Result{Matches: map[string][]string{
		"consent_mechanism": {"signup.py"},
	}}

	ev := evaluate(t, root, "controller", []string{"signup.py"}, gdpr)

	if !ev.Status["consent_mechanism"] {
		t.Error("consent_mechanism should pass when the signal was detected")
	}
	if ev.Status["privacy_policy"] {
		t.Error("privacy_policy should fail without PRIVACY_POLICY.md")
	}
}

func TestEvaluateFlagsPlaceholderTemplates(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "DPA.md", "TODO scope\nTODO parties\n[FILL in processor]\n")
	writeDoc(t, root, "SECURITY.md", "We encrypt data at rest.\n")

	ev := evaluate(t, root, "processor", nil, detect.Result{})

	if !ev.Status["processing_agreement"] {
		t.Error("processing_agreement existence check should still pass")
	}
	note, ok := ev.Notes["processing_agreement"]
	if !ok || !strings.Contains(note, "placeholder") {
		t.Errorf("expected a placeholder note, got %q", note)
	}
	if _, ok := ev.Notes["security_measures"]; ok {
		t.Error("a filled-in document must not earn a note")
	}
}

func TestRecommendations(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "README.md", "docs\n")

	ev := evaluate(t, root, "high", nil, detect.Result{})
	recs := Recommendations(ev)

	missing := 0
	for _, r := range recs {
		if strings.HasPrefix(r, "MISSING:") {
			missing++
		}
	}
	if missing != 5 {
		t.Errorf("got %d MISSING recommendations, want 5: %v", missing, recs)
	}
	if last := recs[len(recs)-1]; !strings.Contains(last, "EU database registration") {
		t.Errorf("high tier should append the registration reminder, got %q", last)
	}
}

func TestRecommendationsAllPassed(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "README.md", "docs\n")

	ev := evaluate(t, root, "minimal", nil, detect.Result{})
	recs := Recommendations(ev)

	if len(recs) != 1 || recs[0] != "All basic checks passed" {
		t.Errorf("Recommendations = %v, want the single all-passed line", recs)
	}
}

func TestCategoryNamesCoverEveryTableEntry(t *testing.T) {
	names := CategoryNames()
	if len(names) != len(categories) {
		t.Fatalf("CategoryNames lists %d entries, table has %d", len(names), len(categories))
	}
	for _, name := range names {
		if _, ok := Lookup(name); !ok {
			t.Errorf("CategoryNames lists %q but Lookup rejects it", name)
		}
	}
}
