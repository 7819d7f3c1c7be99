package registry

import (
	"encoding/json"
	"fmt"
	"os"

	o "github.com/launchdarkly/unit-test-harness/framework/opt"

	"gopkg.in/yaml.v3"
)

// Config is the file representation of the registry settings. It can be written as JSON or YAML.
type Config struct {
	Ignore        []string          `json:"ignore,omitempty" yaml:"ignore,omitempty"`
	Proxy         *ProxyConfig      `json:"proxy,omitempty" yaml:"proxy,omitempty"`
	Parsers       o.Maybe[[]string] `json:"parsers,omitempty" yaml:"parsers,omitempty"`
	MockBaseClass string            `json:"mockBaseClass,omitempty" yaml:"mockBaseClass,omitempty"`

	// Parents maps test case names to their parents. The registry does not use it; it is there
	// for the parent resolver.
	Parents map[string]string `json:"parents,omitempty" yaml:"parents,omitempty"`
}

type ProxyConfig struct {
	URL      string          `json:"url" yaml:"url"`
	Username o.Maybe[string] `json:"username,omitempty" yaml:"username,omitempty"`
	Password o.Maybe[string] `json:"password,omitempty" yaml:"password,omitempty"`
}

// ParseConfig parses a Config from JSON or YAML.
func ParseConfig(data []byte) (Config, error) {
	var c Config
	if err := parseJSONOrYAML(data, &c); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}

// LoadConfigFile reads and parses a configuration file.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	c, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// MarshalConfigYAML renders a Config as YAML, omitting settings that are not defined.
func MarshalConfigYAML(c Config) ([]byte, error) {
	return yaml.Marshal(c)
}

// Apply adds the configuration to the registry. Ignored names are added to the existing ones;
// the other settings replace the current values if they are present in the Config.
func (r *Registry) Apply(c Config) {
	for _, name := range c.Ignore {
		r.Ignore(name)
	}
	if c.Proxy != nil {
		r.UseProxy(c.Proxy.URL, c.Proxy.Username, c.Proxy.Password)
	}
	if p, ok := c.Parsers.Get(); ok {
		if p == nil {
			p = []string{}
		}
		r.SetParsers(p)
	}
	if c.MockBaseClass != "" {
		r.SetMockBaseClass(c.MockBaseClass)
	}
}

// Snapshot returns the current registry settings as a Config. The preferred pool is not part of
// it, since it holds objects rather than settings.
func (r *Registry) Snapshot() Config {
	c := Config{
		Parsers:       r.Parsers(),
		MockBaseClass: r.MockBaseClass(),
	}
	if names := r.IgnoredNames(); len(names) != 0 {
		c.Ignore = names
	}
	if p := r.Proxy(); p.URL.IsDefined() || p.Username.IsDefined() || p.Password.IsDefined() {
		c.Proxy = &ProxyConfig{URL: p.URL.Value(), Username: p.Username, Password: p.Password}
	}
	return c
}

// parseJSONOrYAML is used in the same way as json.Unmarshal, but if the data is YAML and not
// JSON, it converts the YAML to JSON and then parses it as JSON. That way the json tags and the
// UnmarshalJSON methods of the target are the only decoding rules.
func parseJSONOrYAML(data []byte, target interface{}) error {
	if err := json.Unmarshal(data, target); err == nil {
		return nil
	}
	var rawStructure interface{}
	if err := yaml.Unmarshal(data, &rawStructure); err != nil {
		return err
	}
	normalized, err := normalizeParsedYAMLForJSON(rawStructure)
	if err != nil {
		return err
	}
	jsonData, err := json.Marshal(normalized)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonData, target)
}

func normalizeParsedYAMLForJSON(data interface{}) (interface{}, error) {
	switch data := data.(type) {
	case []interface{}:
		arrayOut := make([]interface{}, 0, len(data))
		for _, v := range data {
			v1, err := normalizeParsedYAMLForJSON(v)
			if err != nil {
				return nil, err
			}
			arrayOut = append(arrayOut, v1)
		}
		return arrayOut, nil
	case map[string]interface{}:
		mapOut := make(map[string]interface{}, len(data))
		for k, v := range data {
			v1, err := normalizeParsedYAMLForJSON(v)
			if err != nil {
				return nil, err
			}
			mapOut[k] = v1
		}
		return mapOut, nil
	case map[interface{}]interface{}:
		mapOut := make(map[string]interface{}, len(data))
		for k, v := range data {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("YAML data contained a map key of type %T; only string keys are allowed", k)
			}
			v1, err := normalizeParsedYAMLForJSON(v)
			if err != nil {
				return nil, err
			}
			mapOut[key] = v1
		}
		return mapOut, nil
	default:
		return data, nil
	}
}
