package registry

import (
	"os"
	"path/filepath"
	"testing"

	o "github.com/launchdarkly/unit-test-harness/framework/opt"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var maybeComparer = cmp.AllowUnexported(o.Maybe[string]{}, o.Maybe[[]string]{})

func sampleConfig() Config {
	return Config{
		Ignore:        []string{"base"},
		Proxy:         &ProxyConfig{URL: "http://proxy:8080", Username: o.Some("user")},
		Parsers:       o.Some([]string{"html5"}),
		MockBaseClass: "LegacyMock",
		Parents:       map[string]string{"Child": "Base"},
	}
}

func TestParseConfigJSON(t *testing.T) {
	data := []byte(`{
		"ignore": ["Base"],
		"proxy": {"url": "http://proxy:8080", "username": "user"},
		"parsers": ["html5"],
		"mockBaseClass": "LegacyMock",
		"parents": {"Child": "Base"}
	}`)
	c, err := ParseConfig(data)
	require.NoError(t, err)

	expected := sampleConfig()
	expected.Ignore = []string{"Base"}
	if diff := cmp.Diff(expected, c, maybeComparer); diff != "" {
		t.Errorf("unexpected config (-want +got):\n%s", diff)
	}
}

func TestParseConfigYAML(t *testing.T) {
	data := []byte(`
ignore:
  - base
proxy:
  url: http://proxy:8080
  username: user
parsers: [html5]
mockBaseClass: LegacyMock
parents:
  Child: Base
`)
	c, err := ParseConfig(data)
	require.NoError(t, err)
	if diff := cmp.Diff(sampleConfig(), c, maybeComparer); diff != "" {
		t.Errorf("unexpected config (-want +got):\n%s", diff)
	}
}

func TestParseConfigRejectsNonStringKeys(t *testing.T) {
	_, err := ParseConfig([]byte("parents:\n  1: Base\n"))
	assert.Error(t, err)
}

func TestParseConfigRejectsGarbage(t *testing.T) {
	_, err := ParseConfig([]byte("ignore: [unterminated"))
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("ignore: [Base]\n"), 0o600))

	c, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Base"}, c.Ignore)

	_, err = LoadConfigFile(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestApplyAndSnapshot(t *testing.T) {
	r := New()
	r.Ignore("Existing")
	r.Apply(sampleConfig())

	assert.True(t, r.IsIgnored("Existing"))
	assert.True(t, r.IsIgnored("BASE"))
	assert.Equal(t, o.Some("http://proxy:8080"), r.DefaultProxy())
	assert.Equal(t, o.Some("user"), r.DefaultProxyUsername())
	assert.False(t, r.DefaultProxyPassword().IsDefined())
	assert.Equal(t, o.Some([]string{"html5"}), r.Parsers())
	assert.Equal(t, "LegacyMock", r.MockBaseClass())

	expected := sampleConfig()
	expected.Ignore = []string{"base", "existing"}
	expected.Parents = nil
	if diff := cmp.Diff(expected, r.Snapshot(), maybeComparer); diff != "" {
		t.Errorf("unexpected snapshot (-want +got):\n%s", diff)
	}
}

func TestApplyLeavesUnsetFieldsAlone(t *testing.T) {
	r := New()
	r.UseProxy("http://proxy", o.None[string](), o.None[string]())
	r.SetParsers([]string{"dom"})
	r.Apply(Config{})

	assert.Equal(t, o.Some("http://proxy"), r.DefaultProxy())
	assert.Equal(t, o.Some([]string{"dom"}), r.Parsers())
	assert.Equal(t, DefaultMockBaseClass, r.MockBaseClass())
}

func TestApplyKeepsCredentialsWithoutProxyURL(t *testing.T) {
	config, err := ParseConfig([]byte("proxy:\n  username: user\n  password: pw\n"))
	require.NoError(t, err)

	r := New()
	r.Apply(config)
	assert.False(t, r.DefaultProxy().IsDefined())
	assert.Equal(t, o.Some("user"), r.DefaultProxyUsername())
	assert.Equal(t, o.Some("pw"), r.DefaultProxyPassword())

	snapshot := r.Snapshot()
	require.NotNil(t, snapshot.Proxy)
	assert.Equal(t, "", snapshot.Proxy.URL)
	assert.Equal(t, o.Some("user"), snapshot.Proxy.Username)
}

func TestMarshalDefaultSnapshot(t *testing.T) {
	data, err := MarshalConfigYAML(New().Snapshot())
	require.NoError(t, err)
	assert.Equal(t, "mockBaseClass: SimpleMock\n", string(data))
}

func TestMarshalSnapshotRoundTrip(t *testing.T) {
	r := New()
	r.Apply(sampleConfig())
	data, err := MarshalConfigYAML(r.Snapshot())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "password")

	parsed, err := ParseConfig(data)
	require.NoError(t, err)
	if diff := cmp.Diff(r.Snapshot(), parsed, maybeComparer); diff != "" {
		t.Errorf("round trip changed the config (-want +got):\n%s", diff)
	}
}

type jsonOrYAMLSample struct {
	Name string `json:"name"`
	On   bool   `json:"on"`
	Ints []int  `json:"ints"`
}

func TestParseJSONOrYAML(t *testing.T) {
	for _, params := range []struct {
		desc  string
		input string
	}{
		{"JSON", `{"name":"x","on":true,"ints":[1,2]}`},
		{"YAML", `---
name: x
on: true
ints:
  - 1
  - 2
`},
	} {
		t.Run(params.desc, func(t *testing.T) {
			var out jsonOrYAMLSample
			require.NoError(t, parseJSONOrYAML([]byte(params.input), &out))
			assert.Equal(t, "x", out.Name)
			assert.True(t, out.On)
			assert.Equal(t, []int{1, 2}, out.Ints)
		})
	}
}

func TestConfigCanUseYAMLAnchors(t *testing.T) {
	input := `---
shared: &shared_proxy
  url: http://proxy:8080
  username: user
proxy:
  <<: *shared_proxy
  password: secret
`
	c, err := ParseConfig([]byte(input))
	require.NoError(t, err)
	require.NotNil(t, c.Proxy)
	assert.Equal(t, ProxyConfig{URL: "http://proxy:8080", Username: o.Some("user"), Password: o.Some("secret")}, *c.Proxy)
}
