package compliance

// itemKind selects the mechanism backing a checklist item. Every item is
// either a file-existence check, a content heuristic, or a detection
// signal; the set of items per category is fixed and never inferred.
type itemKind int

const (
	kindFiles itemKind = iota
	kindTechnicalDocs
	kindAIDisclosure
	kindContentMarking
	kindSignal
)

type checkItem struct {
	name   string
	kind   itemKind
	files  []string // candidate filenames for kindFiles (any one suffices)
	signal string   // detection category for kindSignal
}

// CategoryInfo describes one evaluation target: an EU AI Act risk tier
// or a GDPR processing role.
type CategoryInfo struct {
	Description  string
	Requirements []string
	items        []checkItem
}

// Risk tiers (EU AI Act) and processing roles (GDPR). Together they form
// the closed enumeration of evaluation targets.
var categories = map[string]CategoryInfo{
	"prohibited": {
		Description:  "Prohibited systems (manipulation, social scoring, mass surveillance)",
		Requirements: []string{"Prohibited system - do not deploy"},
	},
	"high": {
		Description: "High-risk systems (recruitment, credit scoring, law enforcement)",
		Requirements: []string{
			"Complete technical documentation",
			"Risk management system",
			"Data quality and governance",
			"Transparency and user information",
			"Human oversight",
			"Robustness, accuracy and cybersecurity",
			"Quality management system",
			"Registration in EU database",
		},
		items: []checkItem{
			{name: "technical_documentation", kind: kindTechnicalDocs},
			{name: "risk_management", kind: kindFiles, files: []string{"RISK_MANAGEMENT.md"}},
			{name: "transparency", kind: kindFiles, files: []string{"TRANSPARENCY.md"}},
			{name: "data_governance", kind: kindFiles, files: []string{"DATA_GOVERNANCE.md"}},
			{name: "human_oversight", kind: kindFiles, files: []string{"HUMAN_OVERSIGHT.md"}},
			{name: "robustness", kind: kindFiles, files: []string{"ROBUSTNESS.md"}},
		},
	},
	"limited": {
		Description: "Limited-risk systems (chatbots, deepfakes)",
		Requirements: []string{
			"Transparency obligations",
			"Clear user information about AI interaction",
			"Marking of AI-generated content",
		},
		items: []checkItem{
			{name: "transparency", kind: kindFiles, files: []string{"README.md", "TRANSPARENCY.md"}},
			{name: "user_disclosure", kind: kindAIDisclosure},
			{name: "content_marking", kind: kindContentMarking},
		},
	},
	"minimal": {
		Description: "Minimal-risk systems (spam filters, video games)",
		Requirements: []string{
			"No specific obligations",
			"Voluntary code of conduct encouraged",
		},
		items: []checkItem{
			{name: "basic_documentation", kind: kindFiles, files: []string{"README.md"}},
		},
	},
	"controller": {
		Description: "Data controller (determines purposes and means of processing)",
		Requirements: []string{
			"Privacy policy available to data subjects",
			"Records of processing activities",
			"Lawful basis and consent management",
			"Data protection impact assessment",
			"Data subject rights procedures",
		},
		items: []checkItem{
			{name: "privacy_policy", kind: kindFiles, files: []string{"PRIVACY_POLICY.md", "PRIVACY.md"}},
			{name: "records_of_processing", kind: kindFiles, files: []string{"DATA_PROCESSING.md"}},
			{name: "consent_mechanism", kind: kindSignal, signal: "consent_mechanism"},
			{name: "dpia", kind: kindFiles, files: []string{"DPIA.md"}},
			{name: "data_subject_rights", kind: kindFiles, files: []string{"DATA_SUBJECT_RIGHTS.md"}},
		},
	},
	"processor": {
		Description: "Data processor (processes personal data on behalf of a controller)",
		Requirements: []string{
			"Data processing agreement",
			"Technical and organisational security measures",
			"Breach notification procedure",
			"Subprocessor register",
		},
		items: []checkItem{
			{name: "processing_agreement", kind: kindFiles, files: []string{"DPA.md"}},
			{name: "security_measures", kind: kindFiles, files: []string{"SECURITY.md"}},
			{name: "breach_notification", kind: kindFiles, files: []string{"INCIDENT_RESPONSE.md"}},
			{name: "subprocessor_register", kind: kindFiles, files: []string{"SUBPROCESSORS.md"}},
		},
	},
	"minimal-processing": {
		Description: "Minimal personal-data processing",
		Requirements: []string{
			"Basic documentation",
		},
		items: []checkItem{
			{name: "basic_documentation", kind: kindFiles, files: []string{"README.md"}},
		},
	},
}

// RiskTiers lists the EU AI Act risk tiers in obligation order.
func RiskTiers() []string {
	return []string{"prohibited", "high", "limited", "minimal"}
}

// ProcessingRoles lists the GDPR processing roles.
func ProcessingRoles() []string {
	return []string{"controller", "processor", "minimal-processing"}
}

// CategoryNames lists every valid evaluation target.
func CategoryNames() []string {
	return append(RiskTiers(), ProcessingRoles()...)
}

// Lookup returns the category info for a target, reporting whether the
// target is part of the closed enumeration.
func Lookup(category string) (CategoryInfo, bool) {
	info, ok := categories[category]
	return info, ok
}
