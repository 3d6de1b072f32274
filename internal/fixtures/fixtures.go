package fixtures

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const uuid = "23ad6b10-8d1a-40f7-8ad0-e3e35cd38297"

type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// b64 is unpadded base64url, the encoding share links use.
func b64(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func ssLink(name, host string, port int) string {
	return fmt.Sprintf("ss://%s@%s:%d#%s", b64("aes-256-gcm:password123"), host, port, url.PathEscape(name))
}

func ssrLink() string {
	base := fmt.Sprintf("example.com:8388:origin:aes-256-cfb:plain:%s", b64("password123"))
	query := fmt.Sprintf("remarks=%s&protoparam=&obfsparam=", b64("SSR-Basic"))
	return "ssr://" + b64(base+"/?"+query)
}

func vmessLink() (string, error) {
	config := map[string]string{
		"v":    "2",
		"ps":   "VMess-WS-TLS",
		"add":  "example.com",
		"port": "443",
		"id":   uuid,
		"aid":  "0",
		"scy":  "auto",
		"net":  "ws",
		"type": "none",
		"host": "example.com",
		"path": "/ws",
		"tls":  "tls",
		"sni":  "example.com",
		"alpn": "",
	}

	b, err := json.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("encoding vmess link: %w", err)
	}

	return "vmess://" + b64(string(b)), nil
}

const (
	trojanLink    = "trojan://password123@example.com:443?sni=example.com&allowInsecure=0#Trojan-Basic"
	vlessLink     = "vless://" + uuid + "@example.com:443?security=tls&type=ws&path=/ws&sni=example.com#VLESS-WS-TLS"
	hysteria2Link = "hysteria2://password123@example.com:443?sni=example.com&obfs=salamander&obfs-password=secret#Hysteria2-Basic"
	tuicLink      = "tuic://" + uuid + ":password123@example.com:443?congestion_control=bbr&alpn=h3&sni=example.com#TUIC-Basic"
	anytlsLink    = "anytls://password123@example.com:443?sni=example.com&alpn=h2#AnyTLS-Basic"
)

// subscription joins share links and base64 encodes them the way providers
// serve subscriptions.
func subscription(links ...string) []byte {
	return []byte(base64.StdEncoding.EncodeToString([]byte(strings.Join(links, "\n"))))
}

func ssdSubscription() ([]byte, error) {
	config := map[string]any{
		"airport":    "SSD-Airport",
		"port":       8388,
		"encryption": "aes-256-gcm",
		"password":   "password123",
		"servers": []map[string]any{
			{"server": "example.com", "remarks": "SSD-Node-1"},
			{
				"server":     "example2.com",
				"port":       8389,
				"encryption": "chacha20-ietf-poly1305",
				"password":   "password456",
				"remarks":    "SSD-Node-2",
			},
		},
	}

	b, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("encoding ssd subscription: %w", err)
	}

	return []byte("ssd://" + b64(string(b))), nil
}

type ssAndroidNode struct {
	Server     string `json:"server"`
	ServerPort int    `json:"server_port"`
	Password   string `json:"password"`
	Method     string `json:"method"`
	Remarks    string `json:"remarks"`
	Plugin     string `json:"plugin"`
	PluginOpts string `json:"plugin_opts"`
}

func ssAndroidSubscription() ([]byte, error) {
	nodes := []ssAndroidNode{
		{Server: "example.com", ServerPort: 8388, Password: "password123", Method: "aes-256-gcm", Remarks: "SS-Android-1"},
		{
			Server: "example2.com", ServerPort: 8389, Password: "password456", Method: "chacha20-ietf-poly1305",
			Remarks: "SS-Android-2", Plugin: "obfs-local", PluginOpts: "obfs=http;obfs-host=example.com",
		},
	}

	b, err := json.MarshalIndent(nodes, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding ss-android subscription: %w", err)
	}

	return b, nil
}

const surgeSubscription = `[General]
loglevel = notify
skip-proxy = 127.0.0.1, 192.168.0.0/16, localhost

[Proxy]
HK-Surge-01 = ss, hk.example.com, 8388, encrypt-method=aes-256-gcm, password=password123, udp-relay=true
US-Surge-01 = vmess, us.example.com, 443, username=` + uuid + `, ws=true, ws-path=/ws, tls=true
JP-Surge-01 = trojan, jp.example.com, 443, password=password123, sni=jp.example.com

[Proxy Group]
Proxy = select, HK-Surge-01, US-Surge-01, JP-Surge-01

[Rule]
DOMAIN-SUFFIX,example.com,Proxy
FINAL,DIRECT
`

type clashProxy struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Server   string `yaml:"server"`
	Port     int    `yaml:"port"`
	Cipher   string `yaml:"cipher,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	UUID     string `yaml:"uuid,omitempty"`
	AlterID  *int   `yaml:"alterId,omitempty"`
	Network  string `yaml:"network,omitempty"`
	TLS      bool   `yaml:"tls,omitempty"`
	SNI      string `yaml:"sni,omitempty"`
	UDP      bool   `yaml:"udp,omitempty"`
}

type clashGroup struct {
	Name    string   `yaml:"name"`
	Type    string   `yaml:"type"`
	Proxies []string `yaml:"proxies"`
}

type clashConfig struct {
	Port        int          `yaml:"port"`
	Mode        string       `yaml:"mode"`
	Proxies     []clashProxy `yaml:"proxies"`
	ProxyGroups []clashGroup `yaml:"proxy-groups"`
	Rules       []string     `yaml:"rules"`
}

func clashSubscription() ([]byte, error) {
	zero := 0
	config := clashConfig{
		Port: 7890,
		Mode: "rule",
		Proxies: []clashProxy{
			{Name: "HK-Clash-01", Type: "ss", Server: "hk.example.com", Port: 8388, Cipher: "aes-256-gcm", Password: "password123", UDP: true},
			{Name: "US-Clash-01", Type: "vmess", Server: "us.example.com", Port: 443, UUID: uuid, AlterID: &zero, Cipher: "auto", Network: "ws", TLS: true},
			{Name: "SG-Clash-01", Type: "trojan", Server: "sg.example.com", Port: 443, Password: "password123", SNI: "sg.example.com"},
		},
		ProxyGroups: []clashGroup{
			{Name: "Proxy", Type: "select", Proxies: []string{"HK-Clash-01", "US-Clash-01", "SG-Clash-01"}},
		},
		Rules: []string{"DOMAIN-SUFFIX,example.com,Proxy", "MATCH,DIRECT"},
	}

	b, err := yaml.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("encoding clash subscription: %w", err)
	}

	return b, nil
}

// clashOnlySubscription carries a proxy type only clash understands, with
// its own groups and rules.
func clashOnlySubscription() ([]byte, error) {
	config := clashConfig{
		Port: 7890,
		Mode: "rule",
		Proxies: []clashProxy{
			{Name: "sshtest", Type: "ssh", Server: "home.example.com", Port: 22, Username: "root", Password: "password123"},
		},
		ProxyGroups: []clashGroup{
			{Name: "sshg", Type: "select", Proxies: []string{"sshtest"}},
		},
		Rules: []string{"DOMAIN-SUFFIX,home.com,sshg", "IP-CIDR,192.168.0.0/16,sshg,no-resolve", "MATCH,DIRECT"},
	}

	b, err := yaml.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("encoding clash only subscription: %w", err)
	}

	return b, nil
}

const rulesList = `DOMAIN-SUFFIX,google.com
DOMAIN-KEYWORD,youtube
DOMAIN,www.example.com
IP-CIDR,10.0.0.0/8,no-resolve
IP-CIDR6,2001:db8::/32,no-resolve
MATCH,Auto
`

// All builds every mock subscription file.
func All() ([]File, error) {
	vmess, err := vmessLink()
	if err != nil {
		return nil, err
	}

	ssd, err := ssdSubscription()
	if err != nil {
		return nil, err
	}

	ssAndroid, err := ssAndroidSubscription()
	if err != nil {
		return nil, err
	}

	clash, err := clashSubscription()
	if err != nil {
		return nil, err
	}

	clashOnly, err := clashOnlySubscription()
	if err != nil {
		return nil, err
	}

	ss := ssLink("SS-Basic", "example.com", 8388)

	return []File{
		{"mixed-subscription.txt", "text/plain", subscription(ss, ssrLink(), vmess, trojanLink, vlessLink, hysteria2Link, tuicLink, anytlsLink)},
		{"ss-subscription.txt", "text/plain", subscription(
			ssLink("HK-Server-01", "hk.example.com", 8388),
			ssLink("US-Server-01", "us.example.com", 8388),
			ss,
		)},
		{"ssr-subscription.txt", "text/plain", subscription(ssrLink())},
		{"v2ray-subscription.txt", "text/plain", subscription(vmess, vlessLink, trojanLink, ss)},
		{"ssd-subscription.txt", "text/plain", ssd},
		{"ss-android-subscription.json", "application/json", ssAndroid},
		{"surge-subscription.ini", "text/plain", []byte(surgeSubscription)},
		{"clash-subscription.yaml", "text/yaml", clash},
		{"clash_only.yaml", "text/yaml", clashOnly},
		{"test_rules.list", "text/plain", []byte(rulesList)},
	}, nil
}

// WriteDir writes every fixture into dir.
func WriteDir(dir string) error {
	files, err := All()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating fixture dir: %w", err)
	}

	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f.Name), f.Data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", f.Name, err)
		}
	}

	return nil
}
