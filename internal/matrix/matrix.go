package matrix

import (
	"encoding/base64"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"

	"github.com/kx0101/subdiff/internal/dialect"
	"github.com/kx0101/subdiff/internal/models"
)

type Kind string

const (
	KindSub        Kind = "sub"
	KindRuleset    Kind = "ruleset"
	KindStandalone Kind = "standalone"
)

type Case struct {
	ID     string
	Kind   Kind
	Path   string
	Params url.Values

	// ReferenceFallback lists parameter sets the reference is retried with, in
	// order, while it does not answer 200.
	ReferenceFallback []url.Values

	Dialect dialect.Dialect

	// Expect is set for standalone cases, which only the candidate serves.
	Expect *models.Expectation
}

// Scenario is a service configuration both services must run under before a
// suite is fetched. Pref holds the preference overrides, keyed by dotted path.
type Scenario struct {
	Name string
	Pref map[string]any
}

// Overlay expands Pref into nested maps, the layout of the services'
// preference file.
func (sc Scenario) Overlay() map[string]any {
	root := map[string]any{}

	for _, key := range slices.Sorted(maps.Keys(sc.Pref)) {
		parts := strings.Split(key, ".")
		node := root
		for _, p := range parts[:len(parts)-1] {
			child, ok := node[p].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[p] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = sc.Pref[key]
	}

	return root
}

type Suite struct {
	Name      string
	Scenario  Scenario
	OutputDir string
	Cases     []Case
}

type source struct {
	name string
	file string
}

var sources = []source{
	{"mixed", "mixed-subscription.txt"},
	{"ss", "ss-subscription.txt"},
	{"ssr", "ssr-subscription.txt"},
	{"v2ray", "v2ray-subscription.txt"},
	{"ssd", "ssd-subscription.txt"},
	{"ss-android", "ss-android-subscription.json"},
	{"surge", "surge-subscription.ini"},
	{"clash", "clash-subscription.yaml"},
}

var targets = []dialect.Dialect{dialect.Clash, dialect.Surge, dialect.Quanx, dialect.Loon, dialect.Singbox}

var settings = []struct {
	key   string
	value string
}{
	{"emoji", "true"},
	{"emoji", "false"},
	{"list", "true"},
	{"udp", "true"},
	{"tfo", "true"},
	{"scv", "true"},
	{"fdn", "true"},
	{"sort", "true"},
}

func fixtureURL(mockBase, file string) string {
	return strings.TrimRight(mockBase, "/") + "/" + file
}

// MatrixCases converts every mock source into every target dialect.
func MatrixCases(mockBase string) []Case {
	cases := make([]Case, 0, len(sources)*len(targets))
	for _, src := range sources {
		for _, target := range targets {
			cases = append(cases, Case{
				ID:   fmt.Sprintf("%s->%s", src.name, target),
				Kind: KindSub,
				Path: "/sub",
				Params: url.Values{
					"target": {string(target)},
					"url":    {fixtureURL(mockBase, src.file)},
				},
				Dialect: target,
			})
		}
	}

	return cases
}

// SettingsCases converts the ss subscription to clash once per query setting.
func SettingsCases(mockBase string) []Case {
	cases := make([]Case, 0, len(settings))
	for i, s := range settings {
		cases = append(cases, Case{
			ID:   fmt.Sprintf("settings_%d_%s", i, s.key),
			Kind: KindSub,
			Path: "/sub",
			Params: url.Values{
				"target": {string(dialect.Clash)},
				"url":    {fixtureURL(mockBase, "ss-subscription.txt")},
				s.key:    {s.value},
			},
			Dialect: dialect.Clash,
		})
	}

	return cases
}

// RulesetCase fetches the mock rule list through /getruleset. The candidate
// takes the url base64url encoded; the reference is asked with the plain url
// first.
func RulesetCase(mockBase string) Case {
	plain := fixtureURL(mockBase, "test_rules.list")
	encoded := base64.URLEncoding.EncodeToString([]byte(plain))

	return Case{
		ID:     "ruleset",
		Kind:   KindRuleset,
		Path:   "/getruleset",
		Params: url.Values{"url": {encoded}, "type": {"clash"}},
		ReferenceFallback: []url.Values{
			{"url": {plain}, "type": {"clash"}},
			{"url": {encoded}, "type": {"clash"}},
		},
	}
}

// candidateVersionPrefix starts the /version payload of the candidate.
const candidateVersionPrefix = "subconvergo"

// StandaloneCases exercise endpoints and inputs the reference has no
// counterpart for; they are checked against expectations instead.
func StandaloneCases(mockBase string) []Case {
	ssParams := func(extra ...string) url.Values {
		v := url.Values{
			"target": {string(dialect.Clash)},
			"url":    {fixtureURL(mockBase, "ss-subscription.txt")},
		}
		for i := 0; i+1 < len(extra); i += 2 {
			v.Set(extra[i], extra[i+1])
		}
		return v
	}

	subExpect := &models.Expectation{
		Proxies:   []string{"HK-Server-01"},
		Groups:    map[string]string{"Auto": "HK-Server-01"},
		MatchRule: true,
	}

	return []Case{
		{
			ID:     "version",
			Kind:   KindStandalone,
			Path:   "/version",
			Expect: &models.Expectation{Prefix: candidateVersionPrefix},
		},
		{
			ID:      "sub",
			Kind:    KindStandalone,
			Path:    "/sub",
			Params:  ssParams("udp", "true", "tfo", "true"),
			Dialect: dialect.Clash,
			Expect:  subExpect,
		},
		{
			ID:      "surge2clash",
			Kind:    KindStandalone,
			Path:    "/surge2clash",
			Params:  url.Values{"url": {fixtureURL(mockBase, "surge-subscription.ini")}},
			Dialect: dialect.Clash,
			Expect:  &models.Expectation{Proxies: []string{"HK-Surge-01"}},
		},
		{
			ID:      "sub_with_external_config",
			Kind:    KindStandalone,
			Path:    "/sub",
			Params:  ssParams("config", "/base/resource/external.yml"),
			Dialect: dialect.Clash,
			Expect:  subExpect,
		},
		{
			ID:   "clash_only_config",
			Kind: KindStandalone,
			Path: "/sub",
			Params: url.Values{
				"target": {string(dialect.Clash)},
				"url":    {fixtureURL(mockBase, "clash_only.yaml")},
			},
			Dialect: dialect.Clash,
			Expect: &models.Expectation{
				Proxies:    []string{"sshtest"},
				ProxyTypes: map[string]string{"sshtest": "ssh"},
				Groups:     map[string]string{"sshg": "sshtest"},
				Rules:      []string{"DOMAIN-SUFFIX,home.com,sshg", "IP-CIDR,192.168.0.0/16,sshg,no-resolve"},
			},
		},
		{
			ID:     "ruleset_remote",
			Kind:   KindStandalone,
			Path:   "/getruleset",
			Params: url.Values{"url": {base64.URLEncoding.EncodeToString([]byte(fixtureURL(mockBase, "test_rules.list")))}, "type": {"clash"}},
			Expect: &models.Expectation{Contains: []string{"MATCH,Auto"}},
		},
	}
}

var matrixScenarios = []Scenario{
	{Name: "exclude", Pref: map[string]any{"common.exclude_remarks": []string{"HK"}}},
	{Name: "include", Pref: map[string]any{"common.include_remarks": []string{"HK"}}},
	{Name: "emoji", Pref: map[string]any{
		"emojis.add_emoji":        true,
		"emojis.remove_old_emoji": true,
		"emojis.emoji": []map[string]string{
			{"match": "(HK|Hong Kong)", "emoji": "🇭🇰"},
			{"match": "(US|United States)", "emoji": "🇺🇸"},
		},
	}},
	{Name: "rename", Pref: map[string]any{
		"node_pref.rename_node": []map[string]string{
			{"match": "HK", "replace": "Hong Kong"},
			{"match": "US", "replace": "United States"},
		},
	}},
	{Name: "userinfo", Pref: map[string]any{"node_pref.append_sub_userinfo": true}},
}

// Suites returns every suite in run order.
func Suites(mockBase string) []Suite {
	suites := []Suite{
		{
			Name:      "standalone",
			OutputDir: "standalone",
			Cases:     StandaloneCases(mockBase),
		},
		{
			Name:      "ruleset_compare",
			Scenario:  Scenario{Name: "ruleset_on_request", Pref: map[string]any{"rulesets.update_ruleset_on_request": true}},
			OutputDir: "ruleset_compare",
			Cases:     []Case{RulesetCase(mockBase)},
		},
		{
			Name:      "settings_comparison",
			OutputDir: "settings_comparison",
			Cases:     SettingsCases(mockBase),
		},
		{
			Name:      "e2e_matrix",
			OutputDir: "matrix/e2e_matrix",
			Cases:     MatrixCases(mockBase),
		},
	}

	for _, sc := range matrixScenarios {
		name := "e2e_matrix_" + sc.Name
		suites = append(suites, Suite{
			Name:      name,
			Scenario:  sc,
			OutputDir: "matrix/" + name,
			Cases:     MatrixCases(mockBase),
		})
	}

	return suites
}

var safeReplacer = strings.NewReplacer("->", "_to_", "/", "_")

// SafeID turns a case id into a file name component.
func SafeID(id string) string {
	return safeReplacer.Replace(id)
}
