package semantic

import (
	"slices"
	"strings"
	"sync"

	"github.com/mamaar/csrefactor/pkg/parser"
	"github.com/mamaar/csrefactor/pkg/syntax"
)

// Compilation is one assembly: its syntax trees plus the assemblies it
// references. Declarations are bound when the compilation is created.
type Compilation struct {
	assembly string
	trees    []*syntax.Tree
	refs     []*Assembly

	global    *Namespace
	typeDecls map[*syntax.Node]*Type

	mu      sync.Mutex
	models  map[*syntax.Tree]*Model
	derived map[string]*Type
}

// NewCompilation binds the declarations of trees under the assembly name.
// The core library is always referenced.
func NewCompilation(assembly string, trees []*syntax.Tree, refs ...*Assembly) *Compilation {
	c := &Compilation{
		assembly:  assembly,
		trees:     slices.Clone(trees),
		global:    newNamespace(""),
		typeDecls: make(map[*syntax.Node]*Type),
		models:    make(map[*syntax.Tree]*Model),
		derived:   make(map[string]*Type),
	}
	seen := map[string]bool{}
	for _, r := range append([]*Assembly{CoreLibrary()}, refs...) {
		if r == nil || seen[r.Name] {
			continue
		}
		seen[r.Name] = true
		c.refs = append(c.refs, r)
	}
	c.bind()
	return c
}

// AssemblyName is the name of the assembly being compiled.
func (c *Compilation) AssemblyName() string { return c.assembly }

func (c *Compilation) SyntaxTrees() []*syntax.Tree { return c.trees }

// References lists the referenced assemblies, core library first.
func (c *Compilation) References() []*Assembly { return c.refs }

// ReplaceSyntaxTree returns a compilation in which old is swapped for
// updated. When old is not part of c the tree is added.
func (c *Compilation) ReplaceSyntaxTree(old, updated *syntax.Tree) *Compilation {
	trees := slices.Clone(c.trees)
	if i := slices.Index(trees, old); i >= 0 {
		trees[i] = updated
	} else {
		trees = append(trees, updated)
	}
	return NewCompilation(c.assembly, trees, c.refs[1:]...)
}

// Model returns the semantic model of t, creating it on first use.
func (c *Compilation) Model(t *syntax.Tree) *Model {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.models[t]; ok {
		return m
	}
	m := &Model{comp: c, tree: t, facts: make(map[*syntax.Node]*Fact)}
	c.models[t] = m
	return m
}

// LookupNamespace finds a namespace by its full name.
func (c *Compilation) LookupNamespace(name string) *Namespace {
	n := c.global
	if name == "" {
		return n
	}
	for part := range strings.SplitSeq(name, ".") {
		if n = n.children[part]; n == nil {
			return nil
		}
	}
	return n
}

// LookupType finds a named type by its namespace qualified name.
func (c *Compilation) LookupType(fullName string) *Type {
	ns, name := "", fullName
	if i := strings.LastIndexByte(fullName, '.'); i >= 0 {
		ns, name = fullName[:i], fullName[i+1:]
	}
	if n := c.LookupNamespace(ns); n != nil {
		return n.types[name]
	}
	return nil
}

func (c *Compilation) declareNamespace(full, assembly string) *Namespace {
	n := c.global
	if full == "" {
		return n
	}
	for part := range strings.SplitSeq(full, ".") {
		child, ok := n.children[part]
		if !ok {
			prefix := part
			if n.FullName != "" {
				prefix = n.FullName + "." + part
			}
			child = newNamespace(prefix)
			n.children[part] = child
		}
		child.addAssembly(assembly)
		n = child
	}
	return n
}

func (c *Compilation) declareType(ns *Namespace, t *Type) *Type {
	if existing, ok := ns.types[t.Name]; ok {
		// partial declarations and duplicates share the first type
		return existing
	}
	ns.types[t.Name] = t
	return t
}

type sourceMember struct {
	owner *Type
	decl  *syntax.Node
}

// bind declares every namespace and type first, then resolves member types
// once all type names are known.
func (c *Compilation) bind() {
	type refMember struct {
		owner *Type
		spec  MemberSpec
	}
	var refMembers []refMember
	for _, a := range c.refs {
		for _, nsSpec := range a.Namespaces {
			ns := c.declareNamespace(nsSpec.Name, a.Name)
			for _, ts := range nsSpec.Types {
				t := c.declareType(ns, &Type{Name: ts.Name, Namespace: ns.FullName, Kind: typeKindNames[ts.Kind], Assembly: a.Name})
				for _, m := range ts.Members {
					refMembers = append(refMembers, refMember{t, m})
				}
			}
		}
	}

	var members []sourceMember
	for _, tree := range c.trees {
		members = c.declareSource(tree.Root(), "", members)
	}

	for _, rm := range refMembers {
		var typ *Type
		if g, err := parser.ParseType(rm.spec.Type); err == nil {
			sc := &scope{namespaces: []string{rm.owner.Namespace, ""}, usings: []string{"System"}}
			typ = c.resolveType(syntax.NewTree("", g).Root(), sc)
		}
		rm.owner.addMember(&Symbol{
			Kind:      memberKinds[rm.spec.Kind],
			Name:      rm.spec.Name,
			Type:      typ,
			Container: rm.owner,
			Assembly:  rm.owner.Assembly,
			Static:    rm.spec.Static,
		})
	}
	for _, sm := range members {
		c.bindSourceMember(sm)
	}
}

func (c *Compilation) declareSource(n *syntax.Node, ns string, members []sourceMember) []sourceMember {
	switch n.Kind() {
	case syntax.NamespaceDeclaration, syntax.FileScopedNamespaceDeclaration:
		full := nameText(n.Slot(1))
		if ns != "" {
			full = ns + "." + full
		}
		c.declareNamespace(full, c.assembly)
		ns = full
	case syntax.ClassDeclaration, syntax.StructDeclaration, syntax.InterfaceDeclaration, syntax.EnumDeclaration:
		name := declaredName(n)
		if name == "" {
			break
		}
		t := c.declareType(c.declareNamespace(ns, c.assembly), &Type{
			Name:      name,
			Namespace: ns,
			Kind:      declKinds[n.Kind()],
			Assembly:  c.assembly,
		})
		c.typeDecls[n] = t
		for _, m := range n.ChildNodes() {
			switch m.Kind() {
			case syntax.FieldDeclaration, syntax.PropertyDeclaration, syntax.MethodDeclaration, syntax.EnumMemberDeclaration:
				members = append(members, sourceMember{t, m})
			}
		}
	case syntax.CompilationUnit:
	default:
		return members
	}
	for _, child := range n.ChildNodes() {
		members = c.declareSource(child, ns, members)
	}
	return members
}

var declKinds = map[syntax.Kind]TypeKind{
	syntax.ClassDeclaration:     TypeClass,
	syntax.StructDeclaration:    TypeStruct,
	syntax.InterfaceDeclaration: TypeInterface,
	syntax.EnumDeclaration:      TypeEnum,
}

func (c *Compilation) bindSourceMember(sm sourceMember) {
	sc := c.scopeOf(sm.decl)
	static := sm.decl.FirstChild(syntax.StaticKeyword) != nil || sm.decl.FirstChild(syntax.ConstKeyword) != nil
	add := func(kind SymbolKind, name string, typ *Type) {
		if name == "" {
			return
		}
		sm.owner.addMember(&Symbol{Kind: kind, Name: name, Type: typ, Container: sm.owner, Assembly: c.assembly, Static: static})
	}
	switch sm.decl.Kind() {
	case syntax.EnumMemberDeclaration:
		add(SymbolEnumMember, declaredName(sm.decl), sm.owner)
	case syntax.FieldDeclaration:
		decl := sm.decl.FirstChild(syntax.VariableDeclaration)
		if decl == nil {
			return
		}
		typ := c.resolveType(decl.Slot(0), sc)
		for _, d := range decl.ChildNodes() {
			if d.Kind() == syntax.VariableDeclarator {
				add(SymbolField, declaredName(d), typ)
			}
		}
	case syntax.PropertyDeclaration:
		add(SymbolProperty, declaredName(sm.decl), c.resolveType(typeChild(sm.decl), sc))
	case syntax.MethodDeclaration:
		add(SymbolMethod, declaredName(sm.decl), c.resolveType(typeChild(sm.decl), sc))
	}
}

// scope is the lookup context of a position: enclosing namespaces
// (innermost first, ending with the global namespace) and the using
// directives in effect.
type scope struct {
	namespaces []string
	usings     []string
	aliases    map[string]*syntax.Node
}

func (c *Compilation) scopeOf(n *syntax.Node) *scope {
	sc := &scope{}
	var names []string
	for a := n; a != nil; a = a.Parent() {
		switch a.Kind() {
		case syntax.NamespaceDeclaration, syntax.FileScopedNamespaceDeclaration, syntax.CompilationUnit:
			if a.Kind() != syntax.CompilationUnit {
				names = append(names, nameText(a.Slot(1)))
			}
			directives := a.ChildNodes()
			if a.Kind() == syntax.CompilationUnit {
				directives = append(directives, c.globalUsings(a.Tree())...)
			}
			for _, u := range directives {
				if u.Kind() != syntax.UsingDirective {
					continue
				}
				v := syntax.As(u).(syntax.UsingDirectiveSyntax)
				if alias, ok := v.AliasName(); ok {
					if sc.aliases == nil {
						sc.aliases = make(map[string]*syntax.Node)
					}
					if _, dup := sc.aliases[alias]; !dup {
						sc.aliases[alias] = v.Name()
					}
					continue
				}
				if v.StaticKeyword() == nil {
					sc.usings = append(sc.usings, nameText(v.Name()))
				}
			}
		}
	}
	slices.Reverse(names)
	for i := len(names); i > 0; i-- {
		sc.namespaces = append(sc.namespaces, strings.Join(names[:i], "."))
	}
	sc.namespaces = append(sc.namespaces, "")
	return sc
}

// globalUsings returns the global using directives of every tree but
// except. They apply to each file of the compilation.
func (c *Compilation) globalUsings(except *syntax.Tree) []*syntax.Node {
	var out []*syntax.Node
	for _, t := range c.trees {
		if t == except {
			continue
		}
		for _, u := range t.Root().ChildNodes() {
			if u.Kind() == syntax.UsingDirective && syntax.As(u).(syntax.UsingDirectiveSyntax).IsGlobal() {
				out = append(out, u)
			}
		}
	}
	return out
}

// resolveNamespaceName looks name up relative to each enclosing namespace,
// innermost first.
func (c *Compilation) resolveNamespaceName(name string, sc *scope) *Namespace {
	for _, ns := range sc.namespaces {
		full := name
		if ns != "" {
			full = ns + "." + name
		}
		if n := c.LookupNamespace(full); n != nil {
			return n
		}
	}
	return nil
}

// lookupTypeName resolves a simple type name through enclosing namespaces,
// then using directives.
func (c *Compilation) lookupTypeName(name string, sc *scope) *Type {
	for _, ns := range sc.namespaces {
		if n := c.LookupNamespace(ns); n != nil {
			if t := n.types[name]; t != nil {
				return t
			}
		}
	}
	for _, u := range sc.usings {
		if n := c.resolveNamespaceName(u, sc); n != nil {
			if t := n.types[name]; t != nil {
				return t
			}
		}
	}
	return nil
}

// resolveName binds a type or namespace name syntax.
func (c *Compilation) resolveName(n *syntax.Node, sc *scope) *Symbol {
	if n == nil {
		return nil
	}
	switch n.Kind() {
	case syntax.PredefinedType, syntax.NullableType, syntax.ArrayType:
		if t := c.resolveType(n, sc); t != nil {
			return &Symbol{Kind: SymbolType, Name: t.Name, Type: t, Assembly: t.Assembly}
		}
		return nil
	case syntax.IdentifierName, syntax.GenericName:
		name := n.Slot(0).ValueText()
		if target, ok := sc.aliases[name]; ok {
			return c.resolveName(target, &scope{namespaces: []string{""}})
		}
		if t := c.lookupTypeName(name, sc); t != nil {
			return &Symbol{Kind: SymbolType, Name: t.Name, Type: t, Assembly: t.Assembly}
		}
		if ns := c.resolveNamespaceName(name, sc); ns != nil {
			return &Symbol{Kind: SymbolNamespace, Name: name, Namespace: ns}
		}
	case syntax.QualifiedName:
		left := c.resolveName(n.Slot(0), sc)
		return c.memberName(left, n.Slot(2))
	case syntax.AliasQualifiedName:
		left := n.Slot(0).Slot(0).ValueText()
		if left == "global" {
			return c.resolveName(n.Slot(2), &scope{namespaces: []string{""}})
		}
		if target, ok := sc.aliases[left]; ok {
			return c.memberName(c.resolveName(target, &scope{namespaces: []string{""}}), n.Slot(2))
		}
	}
	return nil
}

// memberName binds right in the namespace or type bound to left.
func (c *Compilation) memberName(left *Symbol, right *syntax.Node) *Symbol {
	if left == nil || right == nil {
		return nil
	}
	name := right.Slot(0).ValueText()
	switch left.Kind {
	case SymbolNamespace:
		if t := left.Namespace.types[name]; t != nil {
			return &Symbol{Kind: SymbolType, Name: t.Name, Type: t, Assembly: t.Assembly}
		}
		if ns := left.Namespace.children[name]; ns != nil {
			return &Symbol{Kind: SymbolNamespace, Name: name, Namespace: ns}
		}
	case SymbolType:
		return c.member(left.Type, name)
	}
	return nil
}

// resolveType binds type syntax to a type, or nil when it does not bind.
func (c *Compilation) resolveType(n *syntax.Node, sc *scope) *Type {
	if n == nil {
		return nil
	}
	switch n.Kind() {
	case syntax.PredefinedType:
		return c.LookupType(predefinedTypes[n.Slot(0).Kind()])
	case syntax.NullableType:
		elem := c.resolveType(n.Slot(0), sc)
		if elem == nil || !elem.IsValueType() {
			// string? is an annotation on a reference type
			return elem
		}
		return c.nullableOf(elem)
	case syntax.ArrayType:
		if elem := c.resolveType(n.Slot(0), sc); elem != nil {
			return c.arrayOf(elem)
		}
		return nil
	}
	if s := c.resolveName(n, sc); s != nil && s.Kind == SymbolType {
		return s.Type
	}
	return nil
}

var predefinedTypes = map[syntax.Kind]string{
	syntax.BoolKeyword:    "System.Boolean",
	syntax.ByteKeyword:    "System.Byte",
	syntax.ShortKeyword:   "System.Int16",
	syntax.IntKeyword:     "System.Int32",
	syntax.LongKeyword:    "System.Int64",
	syntax.FloatKeyword:   "System.Single",
	syntax.DoubleKeyword:  "System.Double",
	syntax.DecimalKeyword: "System.Decimal",
	syntax.CharKeyword:    "System.Char",
	syntax.StringKeyword:  "System.String",
	syntax.ObjectKeyword:  "System.Object",
	syntax.VoidKeyword:    "System.Void",
}

func (c *Compilation) nullableOf(elem *Type) *Type {
	if elem.Kind == TypeNullable {
		return elem
	}
	return c.derive(elem.FullName()+"?", func() *Type {
		return &Type{Name: elem.Name + "?", Namespace: elem.Namespace, Kind: TypeNullable, Assembly: CoreLibraryName, Elem: elem}
	})
}

func (c *Compilation) arrayOf(elem *Type) *Type {
	return c.derive(elem.FullName()+"[]", func() *Type {
		return &Type{Name: elem.Name + "[]", Namespace: elem.Namespace, Kind: TypeArray, Assembly: elem.Assembly, Elem: elem}
	})
}

var nullType = &Type{Name: "null", Kind: TypeNull}

func (c *Compilation) derive(key string, build func() *Type) *Type {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.derived[key]; ok {
		return t
	}
	t := build()
	c.derived[key] = t
	return t
}

// member looks name up on t, including the members every type inherits
// from System.Object and the synthesized members of nullable and array
// types.
func (c *Compilation) member(t *Type, name string) *Symbol {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case TypeNullable:
		switch name {
		case "Value":
			return &Symbol{Kind: SymbolProperty, Name: name, Type: t.Elem, Container: t, Assembly: CoreLibraryName}
		case "HasValue":
			return &Symbol{Kind: SymbolProperty, Name: name, Type: c.LookupType("System.Boolean"), Container: t, Assembly: CoreLibraryName}
		case "GetValueOrDefault":
			return &Symbol{Kind: SymbolMethod, Name: name, Type: t.Elem, Container: t, Assembly: CoreLibraryName}
		}
	case TypeArray:
		if name == "Length" {
			return &Symbol{Kind: SymbolProperty, Name: name, Type: c.LookupType("System.Int32"), Container: t, Assembly: CoreLibraryName}
		}
	}
	if s := t.Member(name); s != nil {
		return s
	}
	if obj := c.LookupType("System.Object"); obj != nil && obj != t {
		return obj.Member(name)
	}
	return nil
}

// declaredName is the identifier a declaration introduces: the first
// identifier token after the declaration keyword or type. Contextual
// modifiers such as async are identifiers too and come before either.
func declaredName(n *syntax.Node) string {
	children := n.Children()
	from := 0
	for i, c := range children {
		switch k := c.Kind(); {
		case k == syntax.ClassKeyword, k == syntax.StructKeyword, k == syntax.InterfaceKeyword, k == syntax.EnumKeyword, isTypeSyntax(k):
			from = i + 1
		}
		if from > 0 {
			break
		}
	}
	for _, c := range children[from:] {
		if c.Kind() == syntax.IdentifierToken {
			return c.ValueText()
		}
	}
	return ""
}

// typeChild returns the type syntax of a property, method or parameter.
func typeChild(n *syntax.Node) *syntax.Node {
	for _, c := range n.ChildNodes() {
		if isTypeSyntax(c.Kind()) {
			return c
		}
	}
	return nil
}

func isTypeSyntax(k syntax.Kind) bool {
	switch k {
	case syntax.PredefinedType, syntax.IdentifierName, syntax.QualifiedName, syntax.AliasQualifiedName,
		syntax.GenericName, syntax.NullableType, syntax.ArrayType:
		return true
	}
	return false
}

// nameText renders a name without trivia or type arguments.
func nameText(n *syntax.Node) string {
	if n == nil {
		return ""
	}
	switch n.Kind() {
	case syntax.IdentifierName, syntax.GenericName:
		return n.Slot(0).ValueText()
	case syntax.QualifiedName:
		return nameText(n.Slot(0)) + "." + nameText(n.Slot(2))
	case syntax.AliasQualifiedName:
		if n.Slot(0).Slot(0).ValueText() == "global" {
			return nameText(n.Slot(2))
		}
		return nameText(n.Slot(0)) + "::" + nameText(n.Slot(2))
	}
	return n.Text()
}
