// Package semantic answers type and symbol questions about syntax trees.
//
// A Compilation groups the trees of one assembly with the reference
// assemblies they build against. It binds declarations eagerly and is
// immutable afterwards; expression facts are computed lazily per tree by a
// Model and memoized there.
package semantic

import (
	"slices"
	"strings"
)

type TypeKind int

const (
	TypeUnknown TypeKind = iota
	TypeClass
	TypeStruct
	TypeInterface
	TypeEnum
	TypeDelegate
	// TypeNullable is Nullable<T> for a value type T held in Elem.
	TypeNullable
	// TypeArray holds its element type in Elem.
	TypeArray
	// TypeNull is the type of the null literal.
	TypeNull
)

var typeKindNames = map[string]TypeKind{
	"class":     TypeClass,
	"struct":    TypeStruct,
	"interface": TypeInterface,
	"enum":      TypeEnum,
	"delegate":  TypeDelegate,
}

func (k TypeKind) String() string {
	switch k {
	case TypeClass:
		return "class"
	case TypeStruct:
		return "struct"
	case TypeInterface:
		return "interface"
	case TypeEnum:
		return "enum"
	case TypeDelegate:
		return "delegate"
	case TypeNullable:
		return "nullable"
	case TypeArray:
		return "array"
	case TypeNull:
		return "null"
	}
	return "unknown"
}

// Type is a named type, or a nullable or array type built over one.
type Type struct {
	Name      string
	Namespace string
	Kind      TypeKind
	Assembly  string
	Elem      *Type

	members map[string]*Symbol
}

// FullName is the namespace qualified name, with ? and [] for derived types.
func (t *Type) FullName() string {
	switch t.Kind {
	case TypeNullable:
		return t.Elem.FullName() + "?"
	case TypeArray:
		return t.Elem.FullName() + "[]"
	case TypeNull:
		return "null"
	}
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

func (t *Type) String() string { return t.FullName() }

func (t *Type) IsReferenceType() bool {
	switch t.Kind {
	case TypeClass, TypeInterface, TypeDelegate, TypeArray:
		return true
	}
	return false
}

func (t *Type) IsValueType() bool {
	return t.Kind == TypeStruct || t.Kind == TypeEnum || t.Kind == TypeNullable
}

func (t *Type) IsNullableValueType() bool { return t.Kind == TypeNullable }

// Is reports whether t and o denote the same type.
func (t *Type) Is(o *Type) bool {
	if t == nil || o == nil {
		return false
	}
	return t == o || t.FullName() == o.FullName()
}

// Member returns the declared member called name, or nil.
func (t *Type) Member(name string) *Symbol { return t.members[name] }

// Members returns the declared members ordered by name.
func (t *Type) Members() []*Symbol {
	out := make([]*Symbol, 0, len(t.members))
	for _, m := range t.members {
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b *Symbol) int { return strings.Compare(a.Name, b.Name) })
	return out
}

func (t *Type) addMember(s *Symbol) {
	if t.members == nil {
		t.members = make(map[string]*Symbol)
	}
	// The first overload wins; bindings ignore argument lists.
	if _, ok := t.members[s.Name]; !ok {
		t.members[s.Name] = s
	}
}

type SymbolKind int

const (
	SymbolNone SymbolKind = iota
	SymbolNamespace
	SymbolType
	SymbolField
	SymbolProperty
	SymbolMethod
	SymbolEnumMember
	SymbolLocal
	SymbolParameter
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolNamespace:
		return "namespace"
	case SymbolType:
		return "type"
	case SymbolField:
		return "field"
	case SymbolProperty:
		return "property"
	case SymbolMethod:
		return "method"
	case SymbolEnumMember:
		return "enum member"
	case SymbolLocal:
		return "local"
	case SymbolParameter:
		return "parameter"
	}
	return "none"
}

// Symbol is what a name binds to. Type is the symbol's declared type: the
// type itself for SymbolType, the return type for methods.
type Symbol struct {
	Kind      SymbolKind
	Name      string
	Type      *Type
	Namespace *Namespace
	Container *Type
	Assembly  string
	Static    bool
}

func (s *Symbol) String() string {
	switch {
	case s.Kind == SymbolNamespace:
		return "namespace " + s.Namespace.FullName
	case s.Kind == SymbolType:
		return "type " + s.Type.FullName()
	case s.Container != nil:
		return s.Kind.String() + " " + s.Container.FullName() + "." + s.Name
	}
	return s.Kind.String() + " " + s.Name
}

// Namespace merges every declaration of one namespace name across the
// compilation and its references.
type Namespace struct {
	FullName string

	assemblies []string
	types      map[string]*Type
	children   map[string]*Namespace
}

func newNamespace(name string) *Namespace {
	return &Namespace{
		FullName: name,
		types:    make(map[string]*Type),
		children: make(map[string]*Namespace),
	}
}

// Assemblies lists the assemblies contributing to the namespace.
func (n *Namespace) Assemblies() []string { return n.assemblies }

// Type returns the type called name declared directly in n.
func (n *Namespace) Type(name string) *Type { return n.types[name] }

// Child returns the nested namespace called name.
func (n *Namespace) Child(name string) *Namespace { return n.children[name] }

func (n *Namespace) addAssembly(a string) {
	if i, found := slices.BinarySearch(n.assemblies, a); !found {
		n.assemblies = slices.Insert(n.assemblies, i, a)
	}
}

// Fact is everything known about one expression or name.
type Fact struct {
	Symbol *Symbol
	// Type is the natural type of the expression.
	Type *Type
	// ConvertedType is the type after the implicit conversion its context
	// applies, such as a conditional branch converting to the type of the
	// whole conditional.
	ConvertedType *Type

	IsReferenceType      bool
	IsNullableValueType  bool
	FromOtherCompilation bool
}
