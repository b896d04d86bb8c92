package config

import (
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"
)

// YAML is a kong.ConfigurationLoader for YAML files. Keys match flag names
// with dashes or underscores, and nested maps are addressed with dots:
//
//	backend: sqlite
//	supabase:
//	  url: https://example.supabase.co
func YAML(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && err != io.EOF {
		return nil, err
	}

	var f kong.ResolverFunc = func(context *kong.Context, parent *kong.Path, flag *kong.Flag) (any, error) {
		return lookup(values, flag.Name), nil
	}
	return f, nil
}

func lookup(values map[string]any, flagName string) any {
	for _, key := range []string{flagName, strings.ReplaceAll(flagName, "-", "_")} {
		if v, ok := values[key]; ok {
			return v
		}
	}

	// "supabase-url" may be written as supabase: {url: ...}
	parts := strings.SplitN(flagName, "-", 2)
	if len(parts) == 2 {
		if nested, ok := values[parts[0]].(map[string]any); ok {
			return lookup(nested, parts[1])
		}
	}
	return nil
}
