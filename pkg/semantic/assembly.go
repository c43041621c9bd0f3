package semantic

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mamaar/csrefactor/pkg/parser"
	"github.com/mamaar/csrefactor/pkg/types"
)

// Assembly is the public surface of a referenced assembly, as declared in a
// metadata file.
type Assembly struct {
	Name       string          `yaml:"name"`
	Namespaces []NamespaceSpec `yaml:"namespaces"`
}

type NamespaceSpec struct {
	Name  string     `yaml:"name"`
	Types []TypeSpec `yaml:"types"`
}

type TypeSpec struct {
	Name    string       `yaml:"name"`
	Kind    string       `yaml:"kind"`
	Members []MemberSpec `yaml:"members"`
}

// MemberSpec declares a field, property or method. Type is C# type syntax;
// for methods it is the return type.
type MemberSpec struct {
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
	Type   string `yaml:"type"`
	Static bool   `yaml:"static"`
}

var memberKinds = map[string]SymbolKind{
	"field":    SymbolField,
	"property": SymbolProperty,
	"method":   SymbolMethod,
	"const":    SymbolField,
}

// CoreLibraryName is the assembly every compilation references implicitly.
const CoreLibraryName = "System.Runtime"

//go:embed corelib.yaml
var corelibYAML []byte

var coreLibrary = sync.OnceValue(func() *Assembly {
	a, err := ParseAssembly("corelib.yaml", corelibYAML)
	if err != nil {
		panic(fmt.Sprintf("semantic: embedded core library: %v", err))
	}
	return a
})

// CoreLibrary returns the embedded System.* surface.
func CoreLibrary() *Assembly { return coreLibrary() }

// LoadAssemblyFile reads reference metadata from a YAML file.
func LoadAssemblyFile(path string) (*Assembly, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &types.RefactorError{
			Type:    types.FileSystemError,
			Message: fmt.Sprintf("reading reference assembly: %v", err),
			File:    path,
			Cause:   err,
		}
	}
	return ParseAssembly(path, data)
}

// ParseAssembly decodes and validates reference metadata. path is only used
// in error messages.
func ParseAssembly(path string, data []byte) (*Assembly, error) {
	var a Assembly
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, &types.RefactorError{
			Type:    types.ConfigError,
			Message: fmt.Sprintf("unmarshaling reference assembly: %v", err),
			File:    path,
			Cause:   err,
		}
	}
	if err := a.validate(path); err != nil {
		return nil, err
	}
	return &a, nil
}

func (a *Assembly) validate(path string) error {
	var issues []types.Issue
	add := func(format string, args ...any) {
		issues = append(issues, types.Issue{
			Type:        types.IssueReference,
			Description: fmt.Sprintf(format, args...),
			File:        path,
			Severity:    types.Error,
		})
	}
	if a.Name == "" {
		add("assembly has no name")
	}
	for i, ns := range a.Namespaces {
		if ns.Name == "" {
			add("namespace at index %d has no name", i)
		}
		for _, t := range ns.Types {
			if t.Name == "" {
				add("type without a name in namespace %s", ns.Name)
				continue
			}
			if _, ok := typeKindNames[t.Kind]; !ok {
				add("type %s.%s has unknown kind %q", ns.Name, t.Name, t.Kind)
			}
			for _, m := range t.Members {
				if _, ok := memberKinds[m.Kind]; !ok {
					add("member %s.%s.%s has unknown kind %q", ns.Name, t.Name, m.Name, m.Kind)
				}
				if _, err := parser.ParseType(m.Type); err != nil {
					add("member %s.%s.%s: %v", ns.Name, t.Name, m.Name, err)
				}
			}
		}
	}
	if len(issues) > 0 {
		return &types.ValidationError{Issues: issues}
	}
	return nil
}
