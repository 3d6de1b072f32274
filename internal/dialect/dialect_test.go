package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(records []Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Name)
	}
	return out
}

func TestParse(t *testing.T) {
	for _, d := range All {
		got, err := Parse(string(d))
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}

	got, err := Parse(" Clash ")
	require.NoError(t, err)
	assert.Equal(t, Clash, got)

	_, err = Parse("surfboard")
	assert.Error(t, err)
}

func TestExtract_EmptyBody(t *testing.T) {
	for _, d := range All {
		t.Run(string(d), func(t *testing.T) {
			assert.Empty(t, Extract("", d))
		})
	}
}

func TestExtract_Garbage(t *testing.T) {
	bodies := []string{
		"not a config at all",
		"{{{",
		"[Proxy",
		"proxies: 5",
		`{"outbounds": "nope"}`,
		"- a\n- b\n",
	}

	for _, d := range All {
		for _, body := range bodies {
			assert.NotPanics(t, func() { Extract(body, d) })
		}
	}
}

func TestExtractClash(t *testing.T) {
	t.Run("json flow document", func(t *testing.T) {
		body := `{"proxies":[{"name":"HK-01","type":"ss","server":"a.com","port":"443"}]}`

		records := Extract(body, Clash)
		require.Len(t, records, 1)
		assert.Equal(t, "HK-01", records[0].Name)
		assert.Equal(t, "ss", records[0].Kind)
		assert.Equal(t, "a.com", records[0].Server)
		assert.Equal(t, "443", records[0].Port)
		assert.NotNil(t, records[0].Raw)
	})

	t.Run("order preserved and ports stringified", func(t *testing.T) {
		body := `
port: 7890
proxies:
  - {name: HK-01, type: ss, server: hk.example.com, port: 8388}
  - name: US-01
    type: vmess
    server: us.example.com
    port: 443
  - {name: JP-01, type: trojan, server: jp.example.com, port: 443}
proxy-groups: []
`
		records := Extract(body, Clash)
		assert.Equal(t, []string{"HK-01", "US-01", "JP-01"}, names(records))
		assert.Equal(t, "8388", records[0].Port)
		assert.Equal(t, "vmess", records[1].Kind)
	})

	t.Run("missing fields default to empty", func(t *testing.T) {
		records := Extract("proxies:\n  - {name: bare}\n", Clash)
		require.Len(t, records, 1)
		assert.Equal(t, Record{Name: "bare", Raw: records[0].Raw}, records[0])
	})

	t.Run("nameless and scalar entries skipped", func(t *testing.T) {
		records := Extract("proxies:\n  - {type: ss}\n  - just-a-string\n  - {name: ok}\n", Clash)
		assert.Equal(t, []string{"ok"}, names(records))
	})

	t.Run("no proxies key", func(t *testing.T) {
		assert.Empty(t, Extract("rules:\n  - MATCH,DIRECT\n", Clash))
	})
}

func TestValidateClash(t *testing.T) {
	assert.NoError(t, ValidateClash("proxies: []\n"))
	assert.ErrorIs(t, ValidateClash("rules: []\n"), ErrInvalidYAMLStructure)
	assert.ErrorIs(t, ValidateClash("- a\n- b\n"), ErrInvalidYAMLStructure)
	assert.ErrorIs(t, ValidateClash("proxies: [\n"), ErrInvalidYAML)
}

func TestExtractSingbox(t *testing.T) {
	t.Run("structural outbounds skipped", func(t *testing.T) {
		body := `{"outbounds":[{"type":"selector","tag":"Proxy","outbounds":["HK-01"]}]}`
		assert.Empty(t, Extract(body, Singbox))
	})

	t.Run("proxy outbounds mapped", func(t *testing.T) {
		body := `{
  "log": {"level": "info"},
  "outbounds": [
    {"type": "selector", "tag": "Proxy"},
    {"type": "urltest", "tag": "Auto"},
    {"type": "shadowsocks", "tag": "HK-01", "server": "hk.example.com", "server_port": 8388},
    {"type": "vmess", "tag": "US-01", "server": "us.example.com", "server_port": 443},
    {"type": "direct", "tag": "direct"},
    {"type": "block", "tag": "block"},
    {"type": "dns", "tag": "dns-out"}
  ]
}`
		records := Extract(body, Singbox)
		require.Equal(t, []string{"HK-01", "US-01"}, names(records))
		assert.Equal(t, "shadowsocks", records[0].Kind)
		assert.Equal(t, "hk.example.com", records[0].Server)
		assert.Equal(t, "8388", records[0].Port)
	})

	t.Run("not an object", func(t *testing.T) {
		assert.Empty(t, Extract(`[{"type":"vmess","tag":"x"}]`, Singbox))
	})
}

func TestValidateSingbox(t *testing.T) {
	assert.NoError(t, ValidateSingbox(`{"outbounds":[]}`))
	assert.ErrorIs(t, ValidateSingbox(`{"inbounds":[]}`), ErrInvalidJSONStructure)
	assert.ErrorIs(t, ValidateSingbox(`[1,2]`), ErrInvalidJSONStructure)
	assert.ErrorIs(t, ValidateSingbox(`{"outbounds":`), ErrInvalidJSON)
}

func TestExtractSurgeLike(t *testing.T) {
	body := `[General]
loglevel = notify

[Proxy]
DIRECT = direct
# comment
; another comment

HK-01 = ss, hk.example.com, 8388, encrypt-method=aes-256-gcm, password=pwd
US-01 = vmess, us.example.com, 443, username=uuid
not a proxy line

[Proxy Group]
Proxy = select, HK-01, US-01
`

	for _, d := range []Dialect{Surge, Loon} {
		t.Run(string(d), func(t *testing.T) {
			records := Extract(body, d)
			require.Equal(t, []string{"DIRECT", "HK-01", "US-01"}, names(records))

			assert.Equal(t, Record{Name: "DIRECT", Raw: "DIRECT = direct"}, records[0])
			assert.Equal(t, "ss", records[1].Kind)
			assert.Equal(t, "hk.example.com", records[1].Server)
			assert.Equal(t, "8388", records[1].Port)
		})
	}

	t.Run("section header is case insensitive and may end the text", func(t *testing.T) {
		records := Extract("[proxy]\nA = ss, a.com, 1\n", Surge)
		assert.Equal(t, []string{"A"}, names(records))
	})

	t.Run("no proxy section", func(t *testing.T) {
		assert.Empty(t, Extract("[General]\nA = ss, a.com, 1\n", Surge))
	})
}

func TestExtractQuanx(t *testing.T) {
	body := `[general]
network_check_url=http://www.baidu.com/

[server_local]
shadowsocks=hk.example.com:8388, method=aes-256-gcm, password=pwd, tag=HK-01
vmess=us.example.com:443, method=chacha20-ietf-poly1305, password=uuid, tag= US-01
trojan=broken, password=pwd, tag=Broken
no tag here

[server_remote]
https://example.com/sub, tag=Remote, update-interval=86400
`

	records := Extract(body, Quanx)
	require.Equal(t, []string{"Remote", "HK-01", "US-01", "Broken"}, names(records))

	hk := records[1]
	assert.Equal(t, "shadowsocks", hk.Kind)
	assert.Equal(t, "hk.example.com", hk.Server)
	assert.Equal(t, "8388", hk.Port)

	assert.Equal(t, "us.example.com", records[2].Server)

	broken := records[3]
	assert.Empty(t, broken.Kind)
	assert.Empty(t, broken.Server)
	assert.Empty(t, broken.Port)
}

func TestHasINIFingerprint(t *testing.T) {
	assert.True(t, HasINIFingerprint("[Proxy]\n"))
	assert.True(t, HasINIFingerprint("[server_local]\n"))
	assert.True(t, HasINIFingerprint("shadowsocks=a:1, tag=x"))
	assert.True(t, HasINIFingerprint("[server_remote]"))
	assert.False(t, HasINIFingerprint("proxies: []"))
}
