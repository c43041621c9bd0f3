package syntax

import "strconv"

// Kind tags every trivia, token and node in a tree.
type Kind uint16

const (
	None Kind = iota

	WhitespaceTrivia
	EndOfLineTrivia
	SingleLineCommentTrivia
	MultiLineCommentTrivia
	PreprocessorTrivia

	firstToken
	EndOfFileToken
	IdentifierToken
	NumericLiteralToken
	StringLiteralToken
	CharacterLiteralToken
	BadToken

	OpenBraceToken
	CloseBraceToken
	OpenParenToken
	CloseParenToken
	OpenBracketToken
	CloseBracketToken
	SemicolonToken
	CommaToken
	DotToken
	ColonToken
	ColonColonToken
	QuestionToken
	QuestionQuestionToken
	EqualsToken
	EqualsEqualsToken
	ExclamationToken
	ExclamationEqualsToken
	LessThanToken
	LessThanEqualsToken
	GreaterThanToken
	GreaterThanEqualsToken
	AmpersandAmpersandToken
	BarBarToken
	AmpersandToken
	BarToken
	CaretToken
	TildeToken
	PlusToken
	MinusToken
	AsteriskToken
	SlashToken
	PercentToken
	PlusPlusToken
	MinusMinusToken
	EqualsGreaterThanToken
	PlusEqualsToken
	MinusEqualsToken
	QuestionQuestionEqualsToken

	firstKeyword
	UsingKeyword
	NamespaceKeyword
	StaticKeyword
	ClassKeyword
	StructKeyword
	InterfaceKeyword
	EnumKeyword
	PublicKeyword
	PrivateKeyword
	ProtectedKeyword
	InternalKeyword
	ReadOnlyKeyword
	ConstKeyword
	SealedKeyword
	AbstractKeyword
	VirtualKeyword
	OverrideKeyword
	PartialKeyword
	ReturnKeyword
	IfKeyword
	ElseKeyword
	NewKeyword
	ThisKeyword
	TrueKeyword
	FalseKeyword
	NullKeyword
	BoolKeyword
	ByteKeyword
	ShortKeyword
	IntKeyword
	LongKeyword
	FloatKeyword
	DoubleKeyword
	DecimalKeyword
	CharKeyword
	StringKeyword
	ObjectKeyword
	VoidKeyword
	lastKeyword
	lastToken

	CompilationUnit
	NamespaceDeclaration
	FileScopedNamespaceDeclaration
	UsingDirective
	NameEquals
	IdentifierName
	QualifiedName
	AliasQualifiedName
	PredefinedType
	NullableType
	GenericName
	TypeArgumentList
	ArrayType

	ClassDeclaration
	StructDeclaration
	InterfaceDeclaration
	EnumDeclaration
	EnumMemberDeclaration
	FieldDeclaration
	PropertyDeclaration
	MethodDeclaration
	ConstructorDeclaration
	AccessorList
	ParameterList
	Parameter
	VariableDeclaration
	VariableDeclarator
	EqualsValueClause
	ArrowExpressionClause

	Block
	LocalDeclarationStatement
	ExpressionStatement
	ReturnStatement
	IfStatement
	ElseClause

	ParenthesizedExpression
	CastExpression
	ConditionalExpression
	MemberAccessExpression
	InvocationExpression
	ArgumentList
	Argument
	ObjectCreationExpression
	ThisExpression
	ElementAccessExpression
	BracketedArgumentList
	PostfixUnaryExpression
	LambdaExpression
	IsExpression
	AsExpression

	TrueLiteralExpression
	FalseLiteralExpression
	NullLiteralExpression
	NumericLiteralExpression
	StringLiteralExpression
	CharacterLiteralExpression

	LogicalNotExpression
	UnaryMinusExpression
	UnaryPlusExpression
	BitwiseNotExpression

	CoalesceExpression
	LogicalOrExpression
	LogicalAndExpression
	BitwiseOrExpression
	ExclusiveOrExpression
	BitwiseAndExpression
	EqualsExpression
	NotEqualsExpression
	LessThanExpression
	LessThanOrEqualExpression
	GreaterThanExpression
	GreaterThanOrEqualExpression
	AddExpression
	SubtractExpression
	MultiplyExpression
	DivideExpression
	ModuloExpression
	SimpleAssignmentExpression

	SkippedTokens
	kindCount
)

var kindNames = [kindCount]string{
	None:                           "None",
	WhitespaceTrivia:               "WhitespaceTrivia",
	EndOfLineTrivia:                "EndOfLineTrivia",
	SingleLineCommentTrivia:        "SingleLineCommentTrivia",
	MultiLineCommentTrivia:         "MultiLineCommentTrivia",
	PreprocessorTrivia:             "PreprocessorTrivia",
	EndOfFileToken:                 "EndOfFileToken",
	IdentifierToken:                "IdentifierToken",
	NumericLiteralToken:            "NumericLiteralToken",
	StringLiteralToken:             "StringLiteralToken",
	CharacterLiteralToken:          "CharacterLiteralToken",
	BadToken:                       "BadToken",
	OpenBraceToken:                 "OpenBraceToken",
	CloseBraceToken:                "CloseBraceToken",
	OpenParenToken:                 "OpenParenToken",
	CloseParenToken:                "CloseParenToken",
	OpenBracketToken:               "OpenBracketToken",
	CloseBracketToken:              "CloseBracketToken",
	SemicolonToken:                 "SemicolonToken",
	CommaToken:                     "CommaToken",
	DotToken:                       "DotToken",
	ColonToken:                     "ColonToken",
	ColonColonToken:                "ColonColonToken",
	QuestionToken:                  "QuestionToken",
	QuestionQuestionToken:          "QuestionQuestionToken",
	EqualsToken:                    "EqualsToken",
	EqualsEqualsToken:              "EqualsEqualsToken",
	ExclamationToken:               "ExclamationToken",
	ExclamationEqualsToken:         "ExclamationEqualsToken",
	LessThanToken:                  "LessThanToken",
	LessThanEqualsToken:            "LessThanEqualsToken",
	GreaterThanToken:               "GreaterThanToken",
	GreaterThanEqualsToken:         "GreaterThanEqualsToken",
	AmpersandAmpersandToken:        "AmpersandAmpersandToken",
	BarBarToken:                    "BarBarToken",
	AmpersandToken:                 "AmpersandToken",
	BarToken:                       "BarToken",
	CaretToken:                     "CaretToken",
	TildeToken:                     "TildeToken",
	PlusToken:                      "PlusToken",
	MinusToken:                     "MinusToken",
	AsteriskToken:                  "AsteriskToken",
	SlashToken:                     "SlashToken",
	PercentToken:                   "PercentToken",
	PlusPlusToken:                  "PlusPlusToken",
	MinusMinusToken:                "MinusMinusToken",
	EqualsGreaterThanToken:         "EqualsGreaterThanToken",
	PlusEqualsToken:                "PlusEqualsToken",
	MinusEqualsToken:               "MinusEqualsToken",
	QuestionQuestionEqualsToken:    "QuestionQuestionEqualsToken",
	UsingKeyword:                   "UsingKeyword",
	NamespaceKeyword:               "NamespaceKeyword",
	StaticKeyword:                  "StaticKeyword",
	ClassKeyword:                   "ClassKeyword",
	StructKeyword:                  "StructKeyword",
	InterfaceKeyword:               "InterfaceKeyword",
	EnumKeyword:                    "EnumKeyword",
	PublicKeyword:                  "PublicKeyword",
	PrivateKeyword:                 "PrivateKeyword",
	ProtectedKeyword:               "ProtectedKeyword",
	InternalKeyword:                "InternalKeyword",
	ReadOnlyKeyword:                "ReadOnlyKeyword",
	ConstKeyword:                   "ConstKeyword",
	SealedKeyword:                  "SealedKeyword",
	AbstractKeyword:                "AbstractKeyword",
	VirtualKeyword:                 "VirtualKeyword",
	OverrideKeyword:                "OverrideKeyword",
	PartialKeyword:                 "PartialKeyword",
	ReturnKeyword:                  "ReturnKeyword",
	IfKeyword:                      "IfKeyword",
	ElseKeyword:                    "ElseKeyword",
	NewKeyword:                     "NewKeyword",
	ThisKeyword:                    "ThisKeyword",
	TrueKeyword:                    "TrueKeyword",
	FalseKeyword:                   "FalseKeyword",
	NullKeyword:                    "NullKeyword",
	BoolKeyword:                    "BoolKeyword",
	ByteKeyword:                    "ByteKeyword",
	ShortKeyword:                   "ShortKeyword",
	IntKeyword:                     "IntKeyword",
	LongKeyword:                    "LongKeyword",
	FloatKeyword:                   "FloatKeyword",
	DoubleKeyword:                  "DoubleKeyword",
	DecimalKeyword:                 "DecimalKeyword",
	CharKeyword:                    "CharKeyword",
	StringKeyword:                  "StringKeyword",
	ObjectKeyword:                  "ObjectKeyword",
	VoidKeyword:                    "VoidKeyword",
	CompilationUnit:                "CompilationUnit",
	NamespaceDeclaration:           "NamespaceDeclaration",
	FileScopedNamespaceDeclaration: "FileScopedNamespaceDeclaration",
	UsingDirective:                 "UsingDirective",
	NameEquals:                     "NameEquals",
	IdentifierName:                 "IdentifierName",
	QualifiedName:                  "QualifiedName",
	AliasQualifiedName:             "AliasQualifiedName",
	PredefinedType:                 "PredefinedType",
	NullableType:                   "NullableType",
	GenericName:                    "GenericName",
	TypeArgumentList:               "TypeArgumentList",
	ArrayType:                      "ArrayType",
	ClassDeclaration:               "ClassDeclaration",
	StructDeclaration:              "StructDeclaration",
	InterfaceDeclaration:           "InterfaceDeclaration",
	EnumDeclaration:                "EnumDeclaration",
	EnumMemberDeclaration:          "EnumMemberDeclaration",
	FieldDeclaration:               "FieldDeclaration",
	PropertyDeclaration:            "PropertyDeclaration",
	MethodDeclaration:              "MethodDeclaration",
	ConstructorDeclaration:         "ConstructorDeclaration",
	AccessorList:                   "AccessorList",
	ParameterList:                  "ParameterList",
	Parameter:                      "Parameter",
	VariableDeclaration:            "VariableDeclaration",
	VariableDeclarator:             "VariableDeclarator",
	EqualsValueClause:              "EqualsValueClause",
	ArrowExpressionClause:          "ArrowExpressionClause",
	Block:                          "Block",
	LocalDeclarationStatement:      "LocalDeclarationStatement",
	ExpressionStatement:            "ExpressionStatement",
	ReturnStatement:                "ReturnStatement",
	IfStatement:                    "IfStatement",
	ElseClause:                     "ElseClause",
	ParenthesizedExpression:        "ParenthesizedExpression",
	CastExpression:                 "CastExpression",
	ConditionalExpression:          "ConditionalExpression",
	MemberAccessExpression:         "MemberAccessExpression",
	InvocationExpression:           "InvocationExpression",
	ArgumentList:                   "ArgumentList",
	Argument:                       "Argument",
	ObjectCreationExpression:       "ObjectCreationExpression",
	ThisExpression:                 "ThisExpression",
	ElementAccessExpression:        "ElementAccessExpression",
	BracketedArgumentList:          "BracketedArgumentList",
	PostfixUnaryExpression:         "PostfixUnaryExpression",
	LambdaExpression:               "LambdaExpression",
	IsExpression:                   "IsExpression",
	AsExpression:                   "AsExpression",
	TrueLiteralExpression:          "TrueLiteralExpression",
	FalseLiteralExpression:         "FalseLiteralExpression",
	NullLiteralExpression:          "NullLiteralExpression",
	NumericLiteralExpression:       "NumericLiteralExpression",
	StringLiteralExpression:        "StringLiteralExpression",
	CharacterLiteralExpression:     "CharacterLiteralExpression",
	LogicalNotExpression:           "LogicalNotExpression",
	UnaryMinusExpression:           "UnaryMinusExpression",
	UnaryPlusExpression:            "UnaryPlusExpression",
	BitwiseNotExpression:           "BitwiseNotExpression",
	CoalesceExpression:             "CoalesceExpression",
	LogicalOrExpression:            "LogicalOrExpression",
	LogicalAndExpression:           "LogicalAndExpression",
	BitwiseOrExpression:            "BitwiseOrExpression",
	ExclusiveOrExpression:          "ExclusiveOrExpression",
	BitwiseAndExpression:           "BitwiseAndExpression",
	EqualsExpression:               "EqualsExpression",
	NotEqualsExpression:            "NotEqualsExpression",
	LessThanExpression:             "LessThanExpression",
	LessThanOrEqualExpression:      "LessThanOrEqualExpression",
	GreaterThanExpression:          "GreaterThanExpression",
	GreaterThanOrEqualExpression:   "GreaterThanOrEqualExpression",
	AddExpression:                  "AddExpression",
	SubtractExpression:             "SubtractExpression",
	MultiplyExpression:             "MultiplyExpression",
	DivideExpression:               "DivideExpression",
	ModuloExpression:               "ModuloExpression",
	SimpleAssignmentExpression:     "SimpleAssignmentExpression",
	SkippedTokens:                  "SkippedTokens",
}

func (k Kind) String() string {
	if k < kindCount && kindNames[k] != "" {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

func (k Kind) IsTrivia() bool { return k >= WhitespaceTrivia && k <= PreprocessorTrivia }

func (k Kind) IsToken() bool { return k > firstToken && k < lastToken }

func (k Kind) IsKeyword() bool { return k > firstKeyword && k < lastKeyword }

// IsComment reports whether k is a comment trivia kind.
func (k Kind) IsComment() bool {
	return k == SingleLineCommentTrivia || k == MultiLineCommentTrivia
}

var tokenTexts = map[Kind]string{
	OpenBraceToken:              "{",
	CloseBraceToken:             "}",
	OpenParenToken:              "(",
	CloseParenToken:             ")",
	OpenBracketToken:            "[",
	CloseBracketToken:           "]",
	SemicolonToken:              ";",
	CommaToken:                  ",",
	DotToken:                    ".",
	ColonToken:                  ":",
	ColonColonToken:             "::",
	QuestionToken:               "?",
	QuestionQuestionToken:       "??",
	EqualsToken:                 "=",
	EqualsEqualsToken:           "==",
	ExclamationToken:            "!",
	ExclamationEqualsToken:      "!=",
	LessThanToken:               "<",
	LessThanEqualsToken:         "<=",
	GreaterThanToken:            ">",
	GreaterThanEqualsToken:      ">=",
	AmpersandAmpersandToken:     "&&",
	BarBarToken:                 "||",
	AmpersandToken:              "&",
	BarToken:                    "|",
	CaretToken:                  "^",
	TildeToken:                  "~",
	PlusToken:                   "+",
	MinusToken:                  "-",
	AsteriskToken:               "*",
	SlashToken:                  "/",
	PercentToken:                "%",
	PlusPlusToken:               "++",
	MinusMinusToken:             "--",
	EqualsGreaterThanToken:      "=>",
	PlusEqualsToken:             "+=",
	MinusEqualsToken:            "-=",
	QuestionQuestionEqualsToken: "??=",
	UsingKeyword:                "using",
	NamespaceKeyword:            "namespace",
	StaticKeyword:               "static",
	ClassKeyword:                "class",
	StructKeyword:               "struct",
	InterfaceKeyword:            "interface",
	EnumKeyword:                 "enum",
	PublicKeyword:               "public",
	PrivateKeyword:              "private",
	ProtectedKeyword:            "protected",
	InternalKeyword:             "internal",
	ReadOnlyKeyword:             "readonly",
	ConstKeyword:                "const",
	SealedKeyword:               "sealed",
	AbstractKeyword:             "abstract",
	VirtualKeyword:              "virtual",
	OverrideKeyword:             "override",
	PartialKeyword:              "partial",
	ReturnKeyword:               "return",
	IfKeyword:                   "if",
	ElseKeyword:                 "else",
	NewKeyword:                  "new",
	ThisKeyword:                 "this",
	TrueKeyword:                 "true",
	FalseKeyword:                "false",
	NullKeyword:                 "null",
	BoolKeyword:                 "bool",
	ByteKeyword:                 "byte",
	ShortKeyword:                "short",
	IntKeyword:                  "int",
	LongKeyword:                 "long",
	FloatKeyword:                "float",
	DoubleKeyword:               "double",
	DecimalKeyword:              "decimal",
	CharKeyword:                 "char",
	StringKeyword:               "string",
	ObjectKeyword:               "object",
	VoidKeyword:                 "void",
}

var (
	keywords     = map[string]Kind{}
	punctuations = map[string]Kind{}
)

func init() {
	for k, text := range tokenTexts {
		if k.IsKeyword() {
			keywords[text] = k
		} else {
			punctuations[text] = k
		}
	}
}

// TokenText returns the fixed spelling of a punctuation or keyword kind.
func TokenText(k Kind) string { return tokenTexts[k] }

// KeywordKind maps reserved words to their kind.
func KeywordKind(text string) (Kind, bool) {
	k, ok := keywords[text]
	return k, ok
}

// PunctuationKind maps operator and punctuation spellings to their kind.
func PunctuationKind(text string) (Kind, bool) {
	k, ok := punctuations[text]
	return k, ok
}

// IsPredefinedTypeKeyword reports whether k names a built-in type.
func IsPredefinedTypeKeyword(k Kind) bool {
	return k >= BoolKeyword && k <= VoidKeyword
}

// IsModifier reports whether k is a declaration modifier keyword.
func IsModifier(k Kind) bool {
	switch k {
	case PublicKeyword, PrivateKeyword, ProtectedKeyword, InternalKeyword, StaticKeyword,
		ReadOnlyKeyword, ConstKeyword, SealedKeyword, AbstractKeyword, VirtualKeyword,
		OverrideKeyword, PartialKeyword, NewKeyword:
		return true
	}
	return false
}

var binaryOperators = map[Kind]Kind{
	CoalesceExpression:           QuestionQuestionToken,
	LogicalOrExpression:          BarBarToken,
	LogicalAndExpression:         AmpersandAmpersandToken,
	BitwiseOrExpression:          BarToken,
	ExclusiveOrExpression:        CaretToken,
	BitwiseAndExpression:         AmpersandToken,
	EqualsExpression:             EqualsEqualsToken,
	NotEqualsExpression:          ExclamationEqualsToken,
	LessThanExpression:           LessThanToken,
	LessThanOrEqualExpression:    LessThanEqualsToken,
	GreaterThanExpression:        GreaterThanToken,
	GreaterThanOrEqualExpression: GreaterThanEqualsToken,
	AddExpression:                PlusToken,
	SubtractExpression:           MinusToken,
	MultiplyExpression:           AsteriskToken,
	DivideExpression:             SlashToken,
	ModuloExpression:             PercentToken,
	SimpleAssignmentExpression:   EqualsToken,
}

var binaryExpressions = map[Kind]Kind{}

var prefixOperators = map[Kind]Kind{
	LogicalNotExpression: ExclamationToken,
	UnaryMinusExpression: MinusToken,
	UnaryPlusExpression:  PlusToken,
	BitwiseNotExpression: TildeToken,
}

var prefixExpressions = map[Kind]Kind{}

func init() {
	for expr, op := range binaryOperators {
		binaryExpressions[op] = expr
	}
	for expr, op := range prefixOperators {
		prefixExpressions[op] = expr
	}
}

// IsBinaryExpression reports whether k is a binary operator node kind.
func IsBinaryExpression(k Kind) bool {
	_, ok := binaryOperators[k]
	return ok
}

// IsPrefixUnaryExpression reports whether k is a prefix operator node kind.
func IsPrefixUnaryExpression(k Kind) bool {
	_, ok := prefixOperators[k]
	return ok
}

// IsLiteralExpression reports whether k is a literal expression kind.
func IsLiteralExpression(k Kind) bool {
	return k >= TrueLiteralExpression && k <= CharacterLiteralExpression
}

// IsComparison reports whether k is an equality or relational expression.
func IsComparison(k Kind) bool {
	return k >= EqualsExpression && k <= GreaterThanOrEqualExpression
}

// BinaryOperatorToken returns the operator token kind of a binary expression kind.
func BinaryOperatorToken(expr Kind) Kind { return binaryOperators[expr] }

// BinaryExpressionKind returns the binary expression kind for an operator token.
func BinaryExpressionKind(op Kind) (Kind, bool) {
	k, ok := binaryExpressions[op]
	return k, ok
}

// PrefixOperatorToken returns the operator token kind of a prefix expression kind.
func PrefixOperatorToken(expr Kind) Kind { return prefixOperators[expr] }

// PrefixExpressionKind returns the prefix expression kind for an operator token.
func PrefixExpressionKind(op Kind) (Kind, bool) {
	k, ok := prefixExpressions[op]
	return k, ok
}

// Operator precedence levels, lowest first.
const (
	PrecedenceAssignment = iota + 1
	PrecedenceConditional
	PrecedenceCoalesce
	PrecedenceLogicalOr
	PrecedenceLogicalAnd
	PrecedenceBitwiseOr
	PrecedenceExclusiveOr
	PrecedenceBitwiseAnd
	PrecedenceEquality
	PrecedenceRelational
	PrecedenceAdditive
	PrecedenceMultiplicative
	PrecedenceUnary
	PrecedencePrimary
)

// Precedence returns the binding strength of an expression kind. Kinds that
// are not expressions report PrecedencePrimary.
func Precedence(k Kind) int {
	switch k {
	case SimpleAssignmentExpression, LambdaExpression:
		return PrecedenceAssignment
	case ConditionalExpression:
		return PrecedenceConditional
	case CoalesceExpression:
		return PrecedenceCoalesce
	case LogicalOrExpression:
		return PrecedenceLogicalOr
	case LogicalAndExpression:
		return PrecedenceLogicalAnd
	case BitwiseOrExpression:
		return PrecedenceBitwiseOr
	case ExclusiveOrExpression:
		return PrecedenceExclusiveOr
	case BitwiseAndExpression:
		return PrecedenceBitwiseAnd
	case EqualsExpression, NotEqualsExpression:
		return PrecedenceEquality
	case LessThanExpression, LessThanOrEqualExpression, GreaterThanExpression, GreaterThanOrEqualExpression,
		IsExpression, AsExpression:
		return PrecedenceRelational
	case AddExpression, SubtractExpression:
		return PrecedenceAdditive
	case MultiplyExpression, DivideExpression, ModuloExpression:
		return PrecedenceMultiplicative
	case LogicalNotExpression, UnaryMinusExpression, UnaryPlusExpression, BitwiseNotExpression, CastExpression:
		return PrecedenceUnary
	}
	return PrecedencePrimary
}

// IsRightAssociative reports whether chains of k group to the right.
func IsRightAssociative(k Kind) bool {
	return k == CoalesceExpression || k == ConditionalExpression || k == SimpleAssignmentExpression
}
