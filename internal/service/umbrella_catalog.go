package service

import (
	"sort"
	"strings"
)

// DefaultUmbrellas is the catalog used when none is configured.
var DefaultUmbrellas = []string{
	"Cyber_Security",
	"Criminology",
	"Police_Administration",
	"Military_Law",
	"Forensic_Science",
	"Coastal_Security",
	"Internal_Security",
	"Defence_Studies",
	"Disaster_Management",
	"Strategic_Languages",
}

// UmbrellaCatalog holds the valid umbrella keys and resolves free-text discipline names.
type UmbrellaCatalog struct {
	keys  []string
	index map[string]string
}

// NewUmbrellaCatalog builds a catalog from keys, falling back to DefaultUmbrellas.
func NewUmbrellaCatalog(keys []string) *UmbrellaCatalog {
	if len(keys) == 0 {
		keys = DefaultUmbrellas
	}
	c := &UmbrellaCatalog{index: make(map[string]string, len(keys))}
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		folded := foldUmbrella(key)
		if _, dup := c.index[folded]; dup {
			continue
		}
		c.index[folded] = key
		c.keys = append(c.keys, key)
	}
	sort.Strings(c.keys)
	return c
}

// Normalize maps a discipline name such as "cyber security" or "Cyber-Security" to its catalog key.
func (c *UmbrellaCatalog) Normalize(raw string) (string, bool) {
	if c == nil {
		return "", false
	}
	key, ok := c.index[foldUmbrella(raw)]
	return key, ok
}

// Exists reports whether key is a canonical catalog key.
func (c *UmbrellaCatalog) Exists(key string) bool {
	normalized, ok := c.Normalize(key)
	return ok && normalized == key
}

// List returns the catalog keys in lexical order.
func (c *UmbrellaCatalog) List() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

func foldUmbrella(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	fields := strings.FieldsFunc(lowered, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-' || r == '\t'
	})
	return strings.Join(fields, "_")
}
