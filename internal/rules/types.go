package rules

type RulesConfig struct {
	Rules Rules `yaml:"rules"`
}

type Rules struct {
	// MaxFailures is the number of unaccepted case failures tolerated.
	MaxFailures int           `yaml:"max_failures"`
	Allow       []AllowRule   `yaml:"allow,omitempty"`
	FetchErrors *FetchErrRule `yaml:"fetch_errors,omitempty"`
	Latency     *LatencyRule  `yaml:"latency,omitempty"`
}

// AllowRule accepts a known divergence. Suite and Case are path.Match globs;
// Status matches by prefix. Empty fields match anything.
type AllowRule struct {
	Suite  string `yaml:"suite,omitempty"`
	Case   string `yaml:"case,omitempty"`
	Status string `yaml:"status,omitempty"`
	Reason string `yaml:"reason,omitempty"`
}

type FetchErrRule struct {
	Side string `yaml:"side,omitempty"`
	Max  int    `yaml:"max"`
}

// LatencyRule bounds how much slower the candidate may be than the reference.
type LatencyRule struct {
	Metric            string  `yaml:"metric"`
	RegressionPercent float64 `yaml:"regression_percent"`
}

type RuleEvaluationResult struct {
	Passed   bool          `json:"passed"`
	Accepted []Acceptance  `json:"accepted,omitempty"`
	Failures []RuleFailure `json:"failures"`
}

type Acceptance struct {
	Suite  string `json:"suite"`
	Case   string `json:"case"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type RuleFailure struct {
	Rule    string         `json:"rule"`
	Scope   string         `json:"scope"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
