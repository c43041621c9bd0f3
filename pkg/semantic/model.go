package semantic

import (
	"context"
	"math"
	"strings"
	"sync"

	"github.com/mamaar/csrefactor/pkg/syntax"
	"github.com/mamaar/csrefactor/pkg/types"
)

// Model answers questions about the nodes of one tree in the context of
// one compilation. Facts are computed on demand and memoized; a Fact is
// never changed once returned.
type Model struct {
	comp *Compilation
	tree *syntax.Tree

	mu    sync.Mutex
	facts map[*syntax.Node]*Fact
}

func (m *Model) Tree() *syntax.Tree { return m.tree }

func (m *Model) Compilation() *Compilation { return m.comp }

// Facts returns the symbol and type information for an expression or name.
// Nodes that bind to nothing produce an empty Fact, not an error. The only
// errors are cancellation and nodes from another tree.
func (m *Model) Facts(ctx context.Context, n *syntax.Node) (*Fact, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.CancelledError(err)
	}
	if n == nil || n.Tree() != m.tree {
		return nil, types.NewError(types.InvalidOperation, "facts: node is not part of the model's tree")
	}
	m.mu.Lock()
	f, ok := m.facts[n]
	m.mu.Unlock()
	if ok {
		return f, nil
	}

	b := &binder{ctx: ctx, comp: m.comp, bound: make(map[*syntax.Node]bound)}
	f = b.fact(n)
	if b.err != nil {
		return nil, b.err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.facts[n]; ok {
		return prev, nil
	}
	m.facts[n] = f
	return f, nil
}

type bound struct {
	sym *Symbol
	typ *Type
}

// binder computes facts for one request. It memoizes within the request and
// stops at the first cancellation.
type binder struct {
	ctx   context.Context
	comp  *Compilation
	bound map[*syntax.Node]bound
	err   error
}

func (b *binder) fact(n *syntax.Node) *Fact {
	r := b.bind(n)
	f := &Fact{Symbol: r.sym, Type: r.typ, ConvertedType: b.convertedType(n, r.typ)}
	if t := f.ConvertedType; t != nil {
		f.IsReferenceType = t.IsReferenceType()
		f.IsNullableValueType = t.IsNullableValueType()
	}
	f.FromOtherCompilation = b.foreign(r.sym)
	return f
}

// foreign reports whether sym comes from an assembly other than the one
// being compiled. A namespace is foreign when any assembly other than the
// current one contributes to it.
func (b *binder) foreign(sym *Symbol) bool {
	if sym == nil {
		return false
	}
	if sym.Kind == SymbolNamespace {
		for _, a := range sym.Namespace.Assemblies() {
			if a != b.comp.assembly {
				return true
			}
		}
		return false
	}
	return sym.Assembly != "" && sym.Assembly != b.comp.assembly
}

func (b *binder) cancelled() bool {
	if b.err != nil {
		return true
	}
	if err := b.ctx.Err(); err != nil {
		b.err = types.CancelledError(err)
		return true
	}
	return false
}

func (b *binder) bind(n *syntax.Node) bound {
	if n == nil || b.cancelled() {
		return bound{}
	}
	if r, ok := b.bound[n]; ok {
		return r
	}
	// Placeholder to cut cycles such as var x = x.
	b.bound[n] = bound{}
	r := b.bindNode(n)
	b.bound[n] = r
	return r
}

func (b *binder) typeOf(n *syntax.Node) *Type { return b.bind(n).typ }

func (b *binder) named(full string) *Type { return b.comp.LookupType(full) }

func (b *binder) boolean() *Type { return b.named("System.Boolean") }

func typeSymbol(t *Type) *Symbol {
	if t == nil {
		return nil
	}
	return &Symbol{Kind: SymbolType, Name: t.Name, Type: t, Assembly: t.Assembly}
}

func (b *binder) bindNode(n *syntax.Node) bound {
	k := n.Kind()
	switch {
	case k == syntax.TrueLiteralExpression, k == syntax.FalseLiteralExpression:
		return bound{typ: b.boolean()}
	case k == syntax.NullLiteralExpression:
		return bound{typ: nullType}
	case k == syntax.StringLiteralExpression:
		return bound{typ: b.named("System.String")}
	case k == syntax.CharacterLiteralExpression:
		return bound{typ: b.named("System.Char")}
	case k == syntax.NumericLiteralExpression:
		return bound{typ: b.named(numericLiteralType(n.Slot(0)))}
	case k == syntax.ParenthesizedExpression:
		return bound{typ: b.typeOf(n.Slot(1))}
	case k == syntax.IdentifierName:
		return b.bindIdentifier(n)
	case k == syntax.GenericName, k == syntax.QualifiedName, k == syntax.AliasQualifiedName,
		k == syntax.PredefinedType, k == syntax.NullableType, k == syntax.ArrayType:
		sym := b.comp.resolveName(n, b.comp.scopeOf(n))
		if sym == nil {
			return bound{}
		}
		return bound{sym: sym, typ: sym.Type}
	case k == syntax.ThisExpression:
		t := b.enclosingType(n)
		return bound{typ: t}
	case k == syntax.MemberAccessExpression:
		return b.bindMemberAccess(n)
	case k == syntax.InvocationExpression:
		r := b.bind(n.Slot(0))
		if r.sym != nil && r.sym.Kind == SymbolMethod {
			return bound{sym: r.sym, typ: r.sym.Type}
		}
		if id := n.Slot(0); id.Kind() == syntax.IdentifierName && id.Slot(0).ValueText() == "nameof" {
			return bound{typ: b.named("System.String")}
		}
		return bound{}
	case k == syntax.ObjectCreationExpression:
		if t := n.Slot(1); t != nil && isTypeSyntax(t.Kind()) {
			return bound{typ: b.comp.resolveType(t, b.comp.scopeOf(n))}
		}
		return bound{}
	case k == syntax.CastExpression:
		return bound{typ: b.comp.resolveType(n.Slot(1), b.comp.scopeOf(n))}
	case k == syntax.AsExpression:
		return bound{typ: b.comp.resolveType(n.Slot(2), b.comp.scopeOf(n))}
	case k == syntax.IsExpression, k == syntax.LogicalNotExpression:
		return bound{typ: b.boolean()}
	case k == syntax.ElementAccessExpression:
		switch t := b.typeOf(n.Slot(0)); {
		case t == nil:
		case t.Kind == TypeArray:
			return bound{typ: t.Elem}
		case t.FullName() == "System.String":
			return bound{typ: b.named("System.Char")}
		}
		return bound{}
	case k == syntax.PostfixUnaryExpression:
		return bound{typ: b.typeOf(n.Slot(0))}
	case syntax.IsPrefixUnaryExpression(k):
		return bound{typ: b.typeOf(n.Slot(1))}
	case k == syntax.SimpleAssignmentExpression:
		return bound{typ: b.typeOf(n.Slot(0))}
	case k == syntax.ConditionalExpression:
		return bound{typ: b.conditionalType(n)}
	case k == syntax.CoalesceExpression:
		return bound{typ: b.coalesceType(b.typeOf(n.Slot(0)), b.typeOf(n.Slot(2)))}
	case syntax.IsComparison(k), k == syntax.LogicalAndExpression, k == syntax.LogicalOrExpression:
		return bound{typ: b.boolean()}
	case syntax.IsBinaryExpression(k):
		return bound{typ: b.binaryType(k, b.typeOf(n.Slot(0)), b.typeOf(n.Slot(2)))}
	}
	return bound{}
}

// numericLiteralType applies the C# literal typing rules by suffix and
// magnitude. Unsigned types are approximated by their signed counterparts.
func numericLiteralType(tok *syntax.Node) string {
	text := strings.ToLower(tok.TokenText())
	hex := strings.HasPrefix(text, "0x")
	switch {
	case strings.HasSuffix(text, "m"):
		return "System.Decimal"
	case !hex && strings.HasSuffix(text, "f"):
		return "System.Single"
	case !hex && strings.HasSuffix(text, "d"):
		return "System.Double"
	case strings.HasSuffix(text, "l"):
		return "System.Int64"
	case !hex && strings.ContainsAny(text, ".e"):
		return "System.Double"
	}
	if v, ok := tok.Value().(int64); ok && (v > math.MaxInt32 || v < math.MinInt32) {
		return "System.Int64"
	}
	return "System.Int32"
}

func (b *binder) bindMemberAccess(n *syntax.Node) bound {
	left := b.bind(n.Slot(0))
	name := n.Slot(2)
	if name == nil || name.Slot(0) == nil {
		return bound{}
	}
	var sym *Symbol
	if left.sym != nil && (left.sym.Kind == SymbolNamespace || left.sym.Kind == SymbolType) {
		sym = b.comp.memberName(left.sym, name)
	} else {
		sym = b.comp.member(left.typ, name.Slot(0).ValueText())
	}
	if sym == nil {
		return bound{}
	}
	return bound{sym: sym, typ: sym.Type}
}

// bindIdentifier looks a simple name up in the order C# does: locals and
// parameters, members of the enclosing types, then types and namespaces.
func (b *binder) bindIdentifier(n *syntax.Node) bound {
	name := n.Slot(0).ValueText()
	if name == "" {
		return bound{}
	}
	// The member name of a member access is bound by the access itself.
	if p := n.Parent(); p != nil && p.Kind() == syntax.MemberAccessExpression && n.Index() == 2 {
		return b.bind(p)
	}
	if r, ok := b.lookupLocal(n, name); ok {
		return r
	}
	for a := n.Parent(); a != nil; a = a.Parent() {
		if t, ok := b.comp.typeDecls[a]; ok {
			if s := b.comp.member(t, name); s != nil {
				return bound{sym: s, typ: s.Type}
			}
		}
	}
	sym := b.comp.resolveName(n, b.comp.scopeOf(n))
	if sym == nil {
		return bound{}
	}
	return bound{sym: sym, typ: sym.Type}
}

// lookupLocal finds the nearest declaration of name visible at n: lambda
// and member parameters, locals declared earlier in an enclosing block, and
// pattern designations.
func (b *binder) lookupLocal(n *syntax.Node, name string) (bound, bool) {
	var member *syntax.Node
	for a := n.Parent(); a != nil && member == nil; a = a.Parent() {
		switch a.Kind() {
		case syntax.LambdaExpression:
			if lambdaDeclares(a.Slot(0), name) {
				return bound{sym: &Symbol{Kind: SymbolParameter, Name: name}}, true
			}
		case syntax.MethodDeclaration, syntax.ConstructorDeclaration, syntax.PropertyDeclaration, syntax.FieldDeclaration:
			member = a
		}
	}
	if member == nil {
		return bound{}, false
	}

	start := n.Span().Start
	var best *syntax.Node
	for d := range member.DescendantNodes() {
		if b.cancelled() {
			return bound{}, false
		}
		switch d.Kind() {
		case syntax.VariableDeclarator:
			if member.Kind() == syntax.FieldDeclaration {
				continue
			}
		case syntax.SkippedTokens:
			// type designation in a pattern: Type name
			if p := d.Parent(); p == nil || p.Kind() != syntax.IsExpression || !isTypeSyntax(d.Slot(0).Kind()) {
				continue
			}
		default:
			continue
		}
		if declaredName(d) != name || d.Span().Start >= start || d.Span().Contains(n.Span()) {
			continue
		}
		if blk := d.FirstAncestorOrSelf(syntax.Block); blk != nil && !blk.Span().Contains(n.Span()) {
			continue
		}
		best = d
	}
	if best != nil {
		sym := &Symbol{Kind: SymbolLocal, Name: name, Type: b.declaredLocalType(best)}
		return bound{sym: sym, typ: sym.Type}, true
	}

	if params := member.FirstChild(syntax.ParameterList); params != nil {
		for _, p := range params.ChildNodes() {
			if p.Kind() == syntax.Parameter && declaredName(p) == name {
				sym := &Symbol{Kind: SymbolParameter, Name: name, Type: b.comp.resolveType(typeChild(p), b.comp.scopeOf(p))}
				return bound{sym: sym, typ: sym.Type}, true
			}
		}
	}
	if member.Kind() == syntax.PropertyDeclaration && name == "value" {
		t := b.comp.resolveType(typeChild(member), b.comp.scopeOf(member))
		return bound{sym: &Symbol{Kind: SymbolParameter, Name: name, Type: t}, typ: t}, true
	}
	return bound{}, false
}

func lambdaDeclares(params *syntax.Node, name string) bool {
	if params == nil {
		return false
	}
	for tok := range params.DescendantTokens() {
		if tok.Kind() == syntax.IdentifierToken && tok.ValueText() == name {
			return true
		}
	}
	return false
}

func (b *binder) declaredLocalType(d *syntax.Node) *Type {
	if d.Kind() == syntax.SkippedTokens {
		return b.comp.resolveType(d.Slot(0), b.comp.scopeOf(d))
	}
	decl := d.Parent()
	if decl == nil || decl.Kind() != syntax.VariableDeclaration {
		return nil
	}
	typ := decl.Slot(0)
	if typ.Kind() == syntax.IdentifierName && typ.Slot(0).ValueText() == "var" {
		if init := d.FirstChild(syntax.EqualsValueClause); init != nil {
			t := b.typeOf(init.Slot(1))
			if t == nullType {
				return nil
			}
			return t
		}
		return nil
	}
	return b.comp.resolveType(typ, b.comp.scopeOf(d))
}

func (b *binder) enclosingType(n *syntax.Node) *Type {
	for a := n.Parent(); a != nil; a = a.Parent() {
		if t, ok := b.comp.typeDecls[a]; ok {
			return t
		}
	}
	return nil
}

// convertedType is the type n converts to in its context, or natural when
// the context imposes no conversion this package models.
func (b *binder) convertedType(n *syntax.Node, natural *Type) *Type {
	target := b.targetType(n)
	if target == nil {
		return natural
	}
	return target
}

func (b *binder) targetType(n *syntax.Node) *Type {
	p := n.Parent()
	if p == nil {
		return nil
	}
	switch p.Kind() {
	case syntax.ParenthesizedExpression:
		return b.targetType(p)
	case syntax.ConditionalExpression:
		if n.Index() == 2 || n.Index() == 4 {
			return b.conditionalType(p)
		}
	case syntax.SimpleAssignmentExpression:
		if n.Index() == 2 {
			return b.typeOf(p.Slot(0))
		}
	case syntax.EqualsValueClause:
		switch owner := p.Parent(); owner.Kind() {
		case syntax.VariableDeclarator:
			decl := owner.Parent()
			if decl == nil || decl.Kind() != syntax.VariableDeclaration {
				return nil
			}
			if t := decl.Slot(0); t.Kind() == syntax.IdentifierName && t.Slot(0).ValueText() == "var" {
				return nil
			}
			return b.comp.resolveType(decl.Slot(0), b.comp.scopeOf(decl))
		case syntax.Parameter, syntax.PropertyDeclaration:
			return b.comp.resolveType(typeChild(owner), b.comp.scopeOf(owner))
		}
	case syntax.ReturnStatement, syntax.ArrowExpressionClause:
		return b.returnType(p)
	}
	return nil
}

// returnType is the declared type of the method or property whose body
// contains n. Lambdas are not typed, so a return inside one has none.
func (b *binder) returnType(n *syntax.Node) *Type {
	for a := n.Parent(); a != nil; a = a.Parent() {
		switch a.Kind() {
		case syntax.LambdaExpression:
			return nil
		case syntax.MethodDeclaration, syntax.PropertyDeclaration:
			t := b.comp.resolveType(typeChild(a), b.comp.scopeOf(a))
			if t != nil && t.FullName() == "System.Void" {
				return nil
			}
			return t
		case syntax.ConstructorDeclaration, syntax.ClassDeclaration, syntax.StructDeclaration:
			return nil
		}
	}
	return nil
}

// conditionalType is the natural type of c ? x : y. It is nil when neither
// branch converts to the other.
func (b *binder) conditionalType(n *syntax.Node) *Type {
	x, y := b.typeOf(n.Slot(2)), b.typeOf(n.Slot(4))
	switch {
	case x == nil && y == nil:
		return nil
	case x == nil:
		return nonNull(y)
	case y == nil:
		return nonNull(x)
	case x.Is(y):
		return x
	case x == nullType:
		return b.lift(y)
	case y == nullType:
		return b.lift(x)
	case x.IsNullableValueType() && x.Elem.Is(y):
		return x
	case y.IsNullableValueType() && y.Elem.Is(x):
		return y
	}
	if w := b.wider(x, y); w != nil {
		return w
	}
	if obj := b.named("System.Object"); x.Is(obj) || y.Is(obj) {
		return obj
	}
	return nil
}

func nonNull(t *Type) *Type {
	if t == nullType {
		return nil
	}
	return t
}

// lift is the type that can hold both t and null.
func (b *binder) lift(t *Type) *Type {
	if t.IsValueType() {
		return b.comp.nullableOf(t)
	}
	return t
}

func (b *binder) coalesceType(left, right *Type) *Type {
	switch {
	case left == nil:
		return nonNull(right)
	case left.IsNullableValueType() && right != nil && right.Is(left.Elem):
		return left.Elem
	}
	return left
}

// binaryType types arithmetic and bitwise operators, lifting over nullable
// operands.
func (b *binder) binaryType(k syntax.Kind, x, y *Type) *Type {
	if x == nil || y == nil {
		return nil
	}
	if k == syntax.AddExpression {
		if s := b.named("System.String"); x.Is(s) || y.Is(s) {
			return s
		}
	}
	lifted := false
	if x.IsNullableValueType() {
		x, lifted = x.Elem, true
	}
	if y.IsNullableValueType() {
		y, lifted = y.Elem, true
	}
	var t *Type
	switch k {
	case syntax.BitwiseAndExpression, syntax.BitwiseOrExpression, syntax.ExclusiveOrExpression:
		if bl := b.boolean(); x.Is(bl) && y.Is(bl) {
			t = bl
			break
		}
		fallthrough
	default:
		t = b.wider(x, y)
		if t != nil && numericRanks[t.FullName()] < numericRanks["System.Int32"] {
			t = b.named("System.Int32")
		}
	}
	if t != nil && lifted {
		return b.comp.nullableOf(t)
	}
	return t
}

var numericRanks = map[string]int{
	"System.Char":    1,
	"System.Byte":    1,
	"System.Int16":   2,
	"System.Int32":   3,
	"System.Int64":   4,
	"System.Single":  5,
	"System.Double":  6,
	"System.Decimal": 7,
}

// wider returns the numeric type both operands promote to, or nil when
// either is not numeric. decimal mixes only with integral types.
func (b *binder) wider(x, y *Type) *Type {
	rx, okx := numericRanks[x.FullName()]
	ry, oky := numericRanks[y.FullName()]
	if !okx || !oky {
		return nil
	}
	floating := func(r int) bool { return r == 5 || r == 6 }
	if (rx == 7 && floating(ry)) || (ry == 7 && floating(rx)) {
		return nil
	}
	if rx >= ry {
		return x
	}
	return y
}
