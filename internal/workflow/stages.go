package workflow

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/alexanderramin/jess/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed stages.yaml
var defaultStagesYAML []byte

// Field is one free-text input owned by a stage.
type Field struct {
	Key       string `yaml:"key"`
	Prompt    string `yaml:"prompt"`
	Help      string `yaml:"help"`
	Label     string `yaml:"label"`
	Multiline bool   `yaml:"multiline"`
	Required  bool   `yaml:"required"`
}

// ReportLabel is the name the field carries in the notes sent for report
// generation. It defaults to the key in title case ("child_name" becomes
// "Child Name").
func (f Field) ReportLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return titleKey(f.Key)
}

// Stage is one step of the wizard.
type Stage struct {
	Key    string  `yaml:"key"`
	Title  string  `yaml:"title"`
	Intro  string  `yaml:"intro"`
	Fields []Field `yaml:"fields"`
}

// Owns reports whether key is one of the stage's fields.
func (s Stage) Owns(key string) bool {
	for _, f := range s.Fields {
		if f.Key == key {
			return true
		}
	}
	return false
}

// Keys returns the stage's field keys in display order.
func (s Stage) Keys() []string {
	keys := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		keys[i] = f.Key
	}
	return keys
}

// StageSet is the ordered stage table for one record kind.
type StageSet struct {
	Kind   domain.RecordKind `yaml:"kind"`
	Stages []Stage           `yaml:"stages"`

	fieldIndex map[string]Field
}

// Count returns the number of stages.
func (s *StageSet) Count() int { return len(s.Stages) }

// Last returns the index of the final stage.
func (s *StageSet) Last() int { return len(s.Stages) - 1 }

// At returns stage i. It panics when i is out of range.
func (s *StageSet) At(i int) Stage { return s.Stages[i] }

// Field looks up a field by key across all stages.
func (s *StageSet) Field(key string) (Field, bool) {
	f, ok := s.fieldIndex[key]
	return f, ok
}

// ParseStages decodes and checks a YAML stage table.
func ParseStages(data []byte) (*StageSet, error) {
	var set StageSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("decoding stages: %w", err)
	}
	if err := set.index(); err != nil {
		return nil, err
	}
	return &set, nil
}

func (s *StageSet) index() error {
	if !s.Kind.IsValid() {
		return fmt.Errorf("stages: unknown record kind %q", s.Kind)
	}
	if len(s.Stages) == 0 {
		return fmt.Errorf("stages: no stages defined")
	}
	s.fieldIndex = make(map[string]Field)
	stageKeys := make(map[string]bool)
	for i, st := range s.Stages {
		if st.Key == "" || st.Title == "" {
			return fmt.Errorf("stages[%d]: key and title are required", i)
		}
		if stageKeys[st.Key] {
			return fmt.Errorf("stages[%d]: duplicate stage key %q", i, st.Key)
		}
		stageKeys[st.Key] = true
		if len(st.Fields) == 0 {
			return fmt.Errorf("stage %q: no fields", st.Key)
		}
		for _, f := range st.Fields {
			if f.Key == "" {
				return fmt.Errorf("stage %q: field without key", st.Key)
			}
			// Stages own disjoint keys so merging is a plain union.
			if _, dup := s.fieldIndex[f.Key]; dup {
				return fmt.Errorf("stage %q: field %q already owned by another stage", st.Key, f.Key)
			}
			s.fieldIndex[f.Key] = f
		}
	}
	return nil
}

var defaultStages = sync.OnceValues(func() (*StageSet, error) {
	return ParseStages(defaultStagesYAML)
})

// DefaultStages returns the built-in EHC assessment stage table.
func DefaultStages() *StageSet {
	set, err := defaultStages()
	if err != nil {
		panic(fmt.Sprintf("embedded stages.yaml: %v", err))
	}
	return set
}

func titleKey(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
