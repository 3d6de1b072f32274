package models

import (
	"time"
)

type Side string

const (
	Candidate Side = "candidate"
	Reference Side = "reference"
)

var Sides = []Side{Candidate, Reference}

// Response is one fetched body. A fetch error is Status 0 with Err set.
type Response struct {
	Body      string `json:"-"`
	Status    int    `json:"status"`
	Err       string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

func (r Response) FetchFailed() bool {
	return r.Status == 0 && r.Err != ""
}

// Expectation is what a candidate-only case must satisfy. Proxies, ProxyTypes,
// Groups, Rules and MatchRule are checked against the body read as a clash
// document.
type Expectation struct {
	Prefix   string
	Contains []string

	Proxies    []string
	ProxyTypes map[string]string // proxy name -> type
	Groups     map[string]string // group name -> required member
	Rules      []string
	MatchRule  bool
}

// Clash reports whether the expectation needs a clash document.
func (e Expectation) Clash() bool {
	return len(e.Proxies) > 0 || len(e.ProxyTypes) > 0 || len(e.Groups) > 0 || len(e.Rules) > 0 || e.MatchRule
}

type CaseResult struct {
	ID         string            `json:"id"`
	Kind       string            `json:"kind"`
	Dialect    string            `json:"dialect,omitempty"`
	Status     string            `json:"status"`
	Comparison string            `json:"comparison"`
	Failure    string            `json:"failure,omitempty"`
	Nodes      map[Side]int      `json:"nodes,omitempty"`
	Responses  map[Side]Response `json:"responses"`
}

// Outcome is the "<status> | <comparison>" line stored in the results file.
func (c CaseResult) Outcome() string {
	return c.Status + " | " + c.Comparison
}

func (c CaseResult) Failed() bool {
	return c.Failure != ""
}

func (c CaseResult) Skipped() bool {
	return c.Status == "SKIPPED"
}

type SuiteResult struct {
	Name     string       `json:"name"`
	Scenario string       `json:"scenario,omitempty"`
	Results  []CaseResult `json:"results"`
	Failures []string     `json:"failures"`
	Error    string       `json:"error,omitempty"`
}

func (s SuiteResult) Failed() bool {
	return len(s.Failures) > 0 || s.Error != ""
}

type RunData struct {
	RunID     string        `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Suites    []SuiteResult `json:"suites"`
	Summary   Summary       `json:"summary"`
}

type Summary struct {
	TotalCases int                `json:"total_cases"`
	Passed     int                `json:"passed"`
	Failed     int                `json:"failed"`
	Skipped    int                `json:"skipped"`
	BySide     map[Side]SideStats `json:"by_side"`
	ByStatus   map[string]int     `json:"by_status"`
}

type SideStats struct {
	Requests    int          `json:"requests"`
	FetchErrors int          `json:"fetch_errors"`
	Latency     LatencyStats `json:"latency"`
}

type LatencyStats struct {
	P50 int64 `json:"p50"`
	P90 int64 `json:"p90"`
	P95 int64 `json:"p95"`
	P99 int64 `json:"p99"`
	Min int64 `json:"min"`
	Max int64 `json:"max"`
	Avg int64 `json:"avg"`
}
