package ycsb

import (
	"fmt"
	"strconv"
	"strings"
)

// Properties are the flat key/value settings handed to a binding, e.g. "linekv.hosts"
type Properties map[string]string

// GetString returns the trimmed value of key or def if the key is unset
func (p Properties) GetString(key, def string) string {
	if v, ok := p[key]; ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

// GetInt returns the value of key as int or def if the key is unset
func (p Properties) GetInt(key string, def int) (int, error) {
	v := p.GetString(key, "")
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("property %s: %q is not an integer", key, v)
	}
	return i, nil
}

// GetBool returns the value of key as bool or def if the key is unset
func (p Properties) GetBool(key string, def bool) (bool, error) {
	v := p.GetString(key, "")
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("property %s: %q is not a boolean", key, v)
	}
	return b, nil
}

// ParseProperties parses "key=value" pairs (as given on the command line)
func ParseProperties(pairs []string) (Properties, error) {
	props := Properties{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid property %q, expected key=value", pair)
		}
		props[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return props, nil
}
