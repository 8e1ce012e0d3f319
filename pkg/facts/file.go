package facts

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileProvider reads facts from a captured `facter --json` or `facter --yaml`
// dump. Both legacy flat facts and the structured "networking" fact are read;
// flat facts win when both are present.
type FileProvider struct {
	Path string
}

var _ Provider = (*FileProvider)(nil)

func NewFileProvider(path string) *FileProvider {
	return &FileProvider{Path: path}
}

func (p *FileProvider) Gather(_ context.Context) (Facts, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read facts file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a facter dump. JSON input is accepted as YAML.
func Parse(data []byte) (Facts, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse facts: %w", err)
	}

	f := make(Facts)
	for key, value := range raw {
		if s, ok := scalar(value); ok {
			f[key] = s
		}
	}

	if networking, ok := raw["networking"].(map[string]any); ok {
		f.mergeNetworking(networking)
	}
	return f, nil
}

// mergeNetworking fills facts missing from the flat view out of Facter 3+
// structured networking data.
func (f Facts) mergeNetworking(networking map[string]any) {
	setDefault := func(key string, value any) {
		if s, ok := scalar(value); ok && s != "" {
			if _, exists := f[key]; !exists {
				f[key] = s
			}
		}
	}

	setDefault(FactHostname, networking["hostname"])
	setDefault(FactDomain, networking["domain"])
	setDefault(FactFQDN, networking["fqdn"])
	setDefault(FactIPAddress, networking["ip"])
	setDefault(FactDefaultRouteInterface, networking["primary"])

	interfaces, _ := networking["interfaces"].(map[string]any)
	for name, v := range interfaces {
		attrs, ok := v.(map[string]any)
		if !ok {
			continue
		}
		iface := SanitizeInterfaceName(name)
		setDefault(ipAddressPrefix+iface, attrs["ip"])
		setDefault(networkPrefix+iface, attrs["network"])
		setDefault(netmaskPrefix+iface, attrs["netmask"])
	}
}

func scalar(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case bool, int, int64, uint64, float64:
		return fmt.Sprint(v), true
	default:
		return "", false
	}
}
