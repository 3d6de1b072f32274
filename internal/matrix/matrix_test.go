package matrix

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kx0101/subdiff/internal/dialect"
)

const mock = "http://mock:8080/"

func TestMatrixCases(t *testing.T) {
	cases := MatrixCases(mock)
	require.Len(t, cases, 40)

	seen := map[string]bool{}
	for _, c := range cases {
		assert.False(t, seen[c.ID], "duplicate id %s", c.ID)
		seen[c.ID] = true

		assert.Equal(t, "/sub", c.Path)
		assert.Equal(t, string(c.Dialect), c.Params.Get("target"))
		assert.True(t, c.Dialect.Valid())
	}

	first := cases[0]
	assert.Equal(t, "mixed->clash", first.ID)
	assert.Equal(t, "http://mock:8080/mixed-subscription.txt", first.Params.Get("url"))

	assert.True(t, seen["ss-android->singbox"])
	assert.True(t, seen["clash->quanx"])
}

func TestSettingsCases(t *testing.T) {
	cases := SettingsCases(mock)
	require.Len(t, cases, 8)

	assert.Equal(t, "settings_0_emoji", cases[0].ID)
	assert.Equal(t, "true", cases[0].Params.Get("emoji"))
	assert.Equal(t, "settings_1_emoji", cases[1].ID)
	assert.Equal(t, "false", cases[1].Params.Get("emoji"))
	assert.Equal(t, "settings_7_sort", cases[7].ID)

	for _, c := range cases {
		assert.Equal(t, dialect.Clash, c.Dialect)
		assert.Equal(t, "http://mock:8080/ss-subscription.txt", c.Params.Get("url"))
	}
}

func TestRulesetCase(t *testing.T) {
	c := RulesetCase(mock)

	decoded, err := base64.URLEncoding.DecodeString(c.Params.Get("url"))
	require.NoError(t, err)
	assert.Equal(t, "http://mock:8080/test_rules.list", string(decoded))

	require.Len(t, c.ReferenceFallback, 2)
	assert.Equal(t, "http://mock:8080/test_rules.list", c.ReferenceFallback[0].Get("url"))
	assert.Equal(t, c.Params.Get("url"), c.ReferenceFallback[1].Get("url"))
	assert.Equal(t, KindRuleset, c.Kind)
}

func TestSuites(t *testing.T) {
	suites := Suites(mock)

	var names []string
	for _, s := range suites {
		names = append(names, s.Name)
	}

	assert.Equal(t, []string{
		"standalone",
		"ruleset_compare",
		"settings_comparison",
		"e2e_matrix",
		"e2e_matrix_exclude",
		"e2e_matrix_include",
		"e2e_matrix_emoji",
		"e2e_matrix_rename",
		"e2e_matrix_userinfo",
	}, names)

	for _, s := range suites[4:] {
		assert.Equal(t, "matrix/"+s.Name, s.OutputDir)
		assert.NotEmpty(t, s.Scenario.Pref)
		assert.Len(t, s.Cases, 40)
	}

	assert.Empty(t, suites[0].Scenario.Name)
	assert.Empty(t, suites[2].Scenario.Name)
}

func TestStandaloneCases(t *testing.T) {
	cases := StandaloneCases(mock)

	var ids []string
	for _, c := range cases {
		ids = append(ids, c.ID)
		assert.Equal(t, KindStandalone, c.Kind)
		require.NotNil(t, c.Expect, c.ID)
		assert.Empty(t, c.ReferenceFallback)
	}
	assert.Equal(t, []string{"version", "sub", "surge2clash", "sub_with_external_config", "clash_only_config", "ruleset_remote"}, ids)

	sub := cases[1]
	assert.Equal(t, "true", sub.Params.Get("udp"))
	assert.Equal(t, "true", sub.Params.Get("tfo"))
	assert.Equal(t, map[string]string{"Auto": "HK-Server-01"}, sub.Expect.Groups)

	assert.Equal(t, "/base/resource/external.yml", cases[3].Params.Get("config"))
	assert.Equal(t, "http://mock:8080/clash_only.yaml", cases[4].Params.Get("url"))

	decoded, err := base64.URLEncoding.DecodeString(cases[5].Params.Get("url"))
	require.NoError(t, err)
	assert.Equal(t, "http://mock:8080/test_rules.list", string(decoded))
}

func TestSafeID(t *testing.T) {
	assert.Equal(t, "ss-android_to_singbox", SafeID("ss-android->singbox"))
	assert.Equal(t, "a_b_to_c", SafeID("a/b->c"))
	assert.Equal(t, "settings_0_emoji", SafeID("settings_0_emoji"))
}

func TestScenarioOverlay(t *testing.T) {
	sc := Scenario{Name: "emoji", Pref: map[string]any{
		"emojis.add_emoji":        true,
		"emojis.remove_old_emoji": false,
		"common.exclude_remarks":  []string{"HK"},
	}}

	assert.Equal(t, map[string]any{
		"emojis": map[string]any{"add_emoji": true, "remove_old_emoji": false},
		"common": map[string]any{"exclude_remarks": []string{"HK"}},
	}, sc.Overlay())

	assert.Empty(t, Scenario{Name: "plain"}.Overlay())
}
