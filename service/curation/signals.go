package curation

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed signals.yaml
var defaultSignals []byte

// Signals holds keyword lists and the boost list. It is immutable once loaded.
type Signals struct {
	Positive   []string            `yaml:"positive"`
	Indie      []string            `yaml:"indie"`
	Negative   []string            `yaml:"negative"`
	Boost      map[string][]string `yaml:"boost"`
	BoostScore float64             `yaml:"boostScore"`

	boost map[string]map[string]bool
}

// ParseSignals decodes a YAML signals document.
func ParseSignals(data []byte) (*Signals, error) {
	ret := &Signals{}
	if err := yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to decode signals: %w", err)
	}
	ret.index()
	return ret, nil
}

var loadDefault = sync.OnceValues(func() (*Signals, error) { return ParseSignals(defaultSignals) })

// DefaultSignals returns the embedded signal lists.
func DefaultSignals() *Signals {
	signals, err := loadDefault()
	if err != nil {
		panic(err)
	}
	return signals
}

func (s *Signals) index() {
	lower := func(items []string) []string {
		ret := make([]string, len(items))
		for i, item := range items {
			ret[i] = strings.ToLower(item)
		}
		return ret
	}
	s.Positive, s.Indie, s.Negative = lower(s.Positive), lower(s.Indie), lower(s.Negative)
	s.boost = make(map[string]map[string]bool, len(s.Boost))
	for source, names := range s.Boost {
		set := make(map[string]bool, len(names))
		for _, name := range names {
			set[strings.ToLower(name)] = true
		}
		s.boost[strings.ToLower(source)] = set
	}
}

// IsBoosted reports whether author (or domain) is trusted for source. Case-insensitive.
func (s *Signals) IsBoosted(source, author string) bool {
	if s == nil || author == "" {
		return false
	}
	return s.boost[strings.ToLower(source)][strings.ToLower(author)]
}
