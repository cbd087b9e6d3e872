package policy

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	sharedErrors "github.com/khanhnv2901/seca-headers/internal/shared/errors"
	"gopkg.in/yaml.v3"
)

// DefaultProfile is used when no profile is selected.
const DefaultProfile = "default"

//go:embed profiles.yaml
var builtinProfilesYAML []byte

type profileFile struct {
	Profiles []profileDoc `yaml:"profiles"`
}

type profileDoc struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Rules       []ruleDoc `yaml:"rules"`
	Deprecated  []string  `yaml:"deprecated"`
	Dangerous   []string  `yaml:"dangerous"`
}

type ruleDoc struct {
	Header      string    `yaml:"header"`
	Required    bool      `yaml:"required"`
	Severity    string    `yaml:"severity"`
	Description string    `yaml:"description"`
	Recommended string    `yaml:"recommended"`
	Expect      expectDoc `yaml:"expect"`
}

type expectDoc struct {
	Exact    *string  `yaml:"exact"`
	OneOf    []string `yaml:"one_of"`
	Semantic string   `yaml:"semantic"`
}

func (d expectDoc) toExpectation() (Expectation, error) {
	set := 0
	var exp Expectation = NoConstraint{}
	if d.Exact != nil {
		set++
		exp = ExactValue{Value: *d.Exact}
	}
	if len(d.OneOf) > 0 {
		set++
		exp = OneOf{Values: d.OneOf}
	}
	if d.Semantic != "" {
		set++
		exp = CustomSemantic{Kind: SemanticKind(strings.ToLower(d.Semantic))}
	}
	if set > 1 {
		return nil, errors.New("expect must set only one of exact, one_of or semantic")
	}
	return exp, nil
}

func (d profileDoc) definition() (Definition, error) {
	def := Definition{
		Name:        d.Name,
		Description: d.Description,
		Rules:       make([]Rule, 0, len(d.Rules)),
		Deprecated:  d.Deprecated,
		Dangerous:   d.Dangerous,
	}
	for i, r := range d.Rules {
		sev, err := ParseSeverity(r.Severity)
		if err != nil {
			return Definition{}, fmt.Errorf("rule %d (%s): %w", i+1, r.Header, err)
		}
		exp, err := r.Expect.toExpectation()
		if err != nil {
			return Definition{}, fmt.Errorf("rule %d (%s): %w", i+1, r.Header, err)
		}
		def.Rules = append(def.Rules, Rule{
			Header:      r.Header,
			Required:    r.Required,
			Expectation: exp,
			Description: r.Description,
			Severity:    sev,
			Recommended: r.Recommended,
		})
	}
	return def, nil
}

// Registry holds named policy profiles.
type Registry struct {
	profiles []*Policy
	byName   map[string]*Policy
}

// LoadRegistry parses a profiles document and validates every profile in it.
func LoadRegistry(data []byte) (*Registry, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc profileFile
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: parse profiles: %w", sharedErrors.ErrInvalidPolicy, err)
	}
	if len(doc.Profiles) == 0 {
		return nil, fmt.Errorf("%w: no profiles defined", sharedErrors.ErrInvalidPolicy)
	}

	reg := &Registry{byName: make(map[string]*Policy, len(doc.Profiles))}
	for _, pd := range doc.Profiles {
		def, err := pd.definition()
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", sharedErrors.ErrInvalidPolicy, pd.Name, err)
		}
		p, err := New(def)
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(p.Name())
		if _, dup := reg.byName[key]; dup {
			return nil, fmt.Errorf("%w: profile %q defined twice", sharedErrors.ErrInvalidPolicy, p.Name())
		}
		reg.byName[key] = p
		reg.profiles = append(reg.profiles, p)
	}
	return reg, nil
}

var (
	builtinOnce sync.Once
	builtinReg  *Registry
	builtinErr  error
)

// Builtin returns the embedded profiles, parsed and validated on first use.
func Builtin() (*Registry, error) {
	builtinOnce.Do(func() {
		builtinReg, builtinErr = LoadRegistry(builtinProfilesYAML)
	})
	return builtinReg, builtinErr
}

// Lookup returns the profile called name, ignoring case.
func (r *Registry) Lookup(name string) (*Policy, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultProfile
	}
	p, ok := r.byName[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %s)", sharedErrors.ErrUnknownProfile, name, strings.Join(r.Names(), ", "))
	}
	return p, nil
}

// Profiles returns every profile in definition order.
func (r *Registry) Profiles() []*Policy {
	return append([]*Policy(nil), r.profiles...)
}

// Names returns the sorted profile names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.profiles))
	for _, p := range r.profiles {
		names = append(names, p.Name())
	}
	sort.Strings(names)
	return names
}
