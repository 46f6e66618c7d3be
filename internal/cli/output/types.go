package output

import "time"

// CheckOutput is the JSON shape of the check command.
type CheckOutput struct {
	Files   []CheckFile  `json:"files"`
	Summary CheckSummary `json:"summary"`
}

// CheckFile is one checked program.
type CheckFile struct {
	Path      string `json:"path"`
	OK        bool   `json:"ok"`
	Kind      string `json:"kind,omitempty"`
	Line      int    `json:"line,omitempty"`
	Error     string `json:"error,omitempty"`
	Variables int    `json:"variables"`
	Rules     int    `json:"rules"`
	Rulesets  int    `json:"rulesets"`
	Executors int    `json:"executors"`
}

// CheckSummary counts check outcomes.
type CheckSummary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// RunOutput is the JSON shape of the run command.
type RunOutput struct {
	RunID      string             `json:"run_id,omitempty"`
	Program    string             `json:"program"`
	Facts      map[string]float64 `json:"facts"`
	Result     float64            `json:"result"`
	DurationMS int64              `json:"duration_ms"`
	Firings    []FiringInfo       `json:"firings,omitempty"`
	Rulesets   []RulesetResult    `json:"rulesets,omitempty"`
}

// FiringInfo is one rule evaluation.
type FiringInfo struct {
	Ruleset  string  `json:"ruleset"`
	Rule     string  `json:"rule"`
	Strength float64 `json:"strength"`
	Applied  bool    `json:"applied"`
	Target   string  `json:"target"`
}

// RulesetResult is the value a ruleset returned.
type RulesetResult struct {
	Ruleset string  `json:"ruleset"`
	Result  float64 `json:"result"`
}

// InspectOutput is the JSON shape of the inspect command.
type InspectOutput struct {
	Program   string         `json:"program"`
	Variables []VariableInfo `json:"variables"`
	Rules     []RuleInfo     `json:"rules"`
	Rulesets  []RulesetInfo  `json:"rulesets"`
	Executors [][]string     `json:"executors"`
}

// VariableInfo describes a fuzzy variable.
type VariableInfo struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Min         float64   `json:"min"`
	Max         float64   `json:"max"`
	Sets        []SetInfo `json:"sets"`
}

// SetInfo describes a fuzzy set.
type SetInfo struct {
	Name   string     `json:"name"`
	Points [3]float64 `json:"points"`
	Weight float64    `json:"weight"`
}

// RuleInfo describes a rule.
type RuleInfo struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Priority    int     `json:"priority"`
	Certainty   float64 `json:"certainty"`
	Weight      float64 `json:"weight"`
	Text        string  `json:"text"`
}

// RulesetInfo describes a ruleset.
type RulesetInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Rules       []string `json:"rules"`
	Consequents []string `json:"consequents"`
}

// HistoryOutput is the JSON shape of the history command.
type HistoryOutput struct {
	Runs []RunInfo `json:"runs"`
}

// RunInfo is one recorded run.
type RunInfo struct {
	ID          string             `json:"id"`
	Program     string             `json:"program"`
	ProgramHash string             `json:"program_hash"`
	Facts       map[string]float64 `json:"facts"`
	Result      float64            `json:"result"`
	StartedAt   time.Time          `json:"started_at"`
	DurationMS  int64              `json:"duration_ms"`
	Status      string             `json:"status"`
	Error       string             `json:"error,omitempty"`
}

// LintOutput is the JSON shape of the lint command.
type LintOutput struct {
	Files   []LintFile  `json:"files"`
	Summary LintSummary `json:"summary"`
}

// LintFile holds the diagnostics of one program.
type LintFile struct {
	Path        string           `json:"path"`
	Error       string           `json:"error,omitempty"`
	Diagnostics []LintDiagnostic `json:"diagnostics"`
}

// LintDiagnostic is one lint finding.
type LintDiagnostic struct {
	Rule     string `json:"rule"`
	Name     string `json:"name"`
	Severity string `json:"severity"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Message  string `json:"message"`
}

// LintSummary counts lint findings by severity.
type LintSummary struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Infos    int `json:"infos"`
	Hints    int `json:"hints"`
}

// LintRuleInfo describes a registered lint rule.
type LintRuleInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

// VersionOutput is the JSON shape of the version command.
type VersionOutput struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Commit    string `json:"commit,omitempty"`
}
