package detect

import "regexp"

// PatternSet binds a detection category to an ordered list of matchers.
// The engine tests patterns in order and stops at the first hit per file,
// so cheaper or more specific patterns should come first.
type PatternSet struct {
	Category string
	Patterns []*regexp.Regexp
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile("(?im)"+e))
	}
	return out
}

// AIFrameworkPatterns detects usage of external AI libraries in source
// files and dependency manifests. Each framework carries both code-level
// patterns (imports, well-known symbols, model names) and manifest-line
// patterns so a requirements.txt or package.json dependency is attributed
// to the same category as an import.
var AIFrameworkPatterns = []PatternSet{
	{
		Category: "openai",
		Patterns: compile(
			`openai\.ChatCompletion`,
			`openai\.Completion`,
			`from openai import`,
			`import openai`,
			`gpt-3\.5`,
			`gpt-4`,
			`text-davinci`,
			`^\s*"?openai"?\s*([=<>~!:\[,]|$)`,
		),
	},
	{
		Category: "anthropic",
		Patterns: compile(
			`from anthropic import`,
			`import anthropic`,
			`claude-`,
			`Anthropic\(\)`,
			`messages\.create`,
			`^\s*"?anthropic"?\s*([=<>~!:\[,]|$)`,
		),
	},
	{
		Category: "huggingface",
		Patterns: compile(
			`from transformers import`,
			`AutoModel`,
			`AutoTokenizer`,
			`pipeline\(`,
			`huggingface_hub`,
			`^\s*"?transformers"?\s*([=<>~!:\[,]|$)`,
		),
	},
	{
		Category: "tensorflow",
		Patterns: compile(
			`import tensorflow`,
			`from tensorflow import`,
			`tf\.keras`,
			`\.h5$`,
			`^\s*"?tensorflow"?\s*([=<>~!:\[,]|$)`,
		),
	},
	{
		Category: "pytorch",
		Patterns: compile(
			`import torch`,
			`from torch import`,
			`nn\.Module`,
			`\.pth?$`,
			`^\s*"?torch"?\s*([=<>~!:\[,]|$)`,
		),
	},
	{
		Category: "langchain",
		Patterns: compile(
			`from langchain import`,
			`from langchain\.`,
			`import langchain`,
			`LLMChain`,
			`ChatOpenAI`,
			`^\s*"?langchain"?\s*([=<>~!:\[,]|$)`,
		),
	},
}

// GDPRSignalPatterns detects personal-data processing signals used by the
// processing-role compliance checks.
var GDPRSignalPatterns = []PatternSet{
	{
		Category: "pii_fields",
		Patterns: compile(
			`user\.email`,
			`first_name`,
			`last_name`,
			`date_of_birth`,
			`phone_number`,
			`\bssn\b`,
		),
	},
	{
		Category: "database_queries",
		Patterns: compile(
			`select\s+.+\s+from\s`,
			`insert\s+into\s`,
			`db\.query`,
			`\.execute\(`,
		),
	},
	{
		Category: "user_tracking",
		Patterns: compile(
			`analytics\.track`,
			`mixpanel`,
			`page_view`,
			`\btracking\b`,
		),
	},
	{
		Category: "geolocation",
		Patterns: compile(
			`geolocation`,
			`latitude`,
			`longitude`,
			`\bgeoip\b`,
		),
	},
	{
		Category: "file_uploads",
		Patterns: compile(
			`multipart/form-data`,
			`file_upload`,
			`UploadFile`,
			`FormFile\(`,
		),
	},
	{
		Category: "cookie_operations",
		Patterns: compile(
			`set_cookie`,
			`document\.cookie`,
			`http\.Cookie`,
			`cookies\[`,
		),
	},
	{
		Category: "consent_mechanism",
		Patterns: compile(
			`\bconsent\b`,
			`opt[-_]?in`,
			`gdpr`,
		),
	},
}

// SourceExtensions is the extension allowlist for the source scan.
var SourceExtensions = []string{".py", ".js", ".ts", ".java", ".go", ".rs", ".cpp", ".c"}

// ManifestNames is the exact-name allowlist for the dependency manifest scan.
var ManifestNames = []string{
	"requirements.txt",
	"pyproject.toml",
	"package.json",
	"go.mod",
	"Cargo.toml",
	"pom.xml",
	"Gemfile",
}
