package detect

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	full := filepath.Join(root, name)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestScanAttributesFileToCategoryOnce(t *testing.T) {
	root := t.TempDir()
	// Hits two openai patterns; must appear once under openai.
	writeFile(t, root, "app.py", "import openai\nmodel = \"gpt-4\"\n")

	res := Scan(root, []string{"app.py"}, AIFrameworkPatterns)

	if got := res.Matches["openai"]; !slices.Equal(got, []string{"app.py"}) {
		t.Errorf("Matches[openai] = %v, want [app.py]", got)
	}
	if len(res.Files) != 1 || len(res.Files[0].Categories) != 1 {
		t.Errorf("Files = %+v, want one file with one category", res.Files)
	}
}

func TestScanDetectsMultipleCategoriesInOneFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "multi.py", "import openai\nfrom anthropic import Anthropic\n")

	res := Scan(root, []string{"multi.py"}, AIFrameworkPatterns)

	if len(res.Matches["openai"]) != 1 || len(res.Matches["anthropic"]) != 1 {
		t.Errorf("Matches = %v, want hits under both openai and anthropic", res.Matches)
	}
	want := []string{"openai", "anthropic"}
	if !slices.Equal(res.Files[0].Categories, want) {
		t.Errorf("Categories = %v, want %v", res.Files[0].Categories, want)
	}
}

func TestScanDetectsManifestDependencies(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "requirements.txt", "flask==3.0\nopenai>=1.0\nrequests\n")

	res := Scan(root, []string{"requirements.txt"}, AIFrameworkPatterns)

	if got := res.Matches["openai"]; !slices.Equal(got, []string{"requirements.txt"}) {
		t.Errorf("Matches[openai] = %v, want [requirements.txt]", got)
	}
}

func TestScanManifestBareDependencyName(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "requirements.txt", "openai\n")

	res := Scan(root, []string{"requirements.txt"}, AIFrameworkPatterns)

	if len(res.Matches["openai"]) != 1 {
		t.Errorf("bare dependency line not detected: %v", res.Matches)
	}
}

func TestScanNoMatchesYieldsEmptyResult(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "plain.py", "print('hello')\n")

	res := Scan(root, []string{"plain.py"}, AIFrameworkPatterns)

	if res.FilesScanned != 1 {
		t.Errorf("FilesScanned = %d, want 1", res.FilesScanned)
	}
	if len(res.Matches) != 0 || len(res.Files) != 0 {
		t.Errorf("expected empty result, got Matches=%v Files=%v", res.Matches, res.Files)
	}
}

func TestScanSkipsUnreadableFileButCountsIt(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "ok.py", "import openai\n")

	res := Scan(root, []string{"missing.py", "ok.py"}, AIFrameworkPatterns)

	if res.FilesScanned != 2 {
		t.Errorf("FilesScanned = %d, want 2", res.FilesScanned)
	}
	if len(res.Matches["openai"]) != 1 {
		t.Errorf("readable file not scanned after unreadable one: %v", res.Matches)
	}
}

func TestScanGDPRSignals(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "users.py",
		"email = user.email\ncursor.execute(query)\nif consent_given: opt_in()\n")

	res := Scan(root, []string{"users.py"}, GDPRSignalPatterns)

	for _, want := range []string{"pii_fields", "database_queries", "consent_mechanism"} {
		if len(res.Matches[want]) == 0 {
			t.Errorf("signal %q not detected, got %v", want, res.Matches)
		}
	}
}

func TestCategoriesPreservesDeclarationOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "import torch\n")
	writeFile(t, root, "b.py", "import openai\n")

	res := Scan(root, []string{"a.py", "b.py"}, AIFrameworkPatterns)

	want := []string{"openai", "pytorch"}
	if got := res.Categories(AIFrameworkPatterns); !slices.Equal(got, want) {
		t.Errorf("Categories = %v, want %v", got, want)
	}
}
