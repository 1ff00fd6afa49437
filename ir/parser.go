package ir

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Parser reads the textual form of types, attributes and modules.
// Dialects extend it through [Dialect.ParseType] and [Dialect.ParseAttribute],
// using the exported methods to consume the body of their types and attributes.
// Every parsed type and attribute is verified and uniqued in the context.
type Parser struct {
	ctx *Context
	lex lexer
	tok token
}

// NewParser returns a new [Parser] reading src.
func NewParser(ctx *Context, src string) (p *Parser, err error) {
	p = &Parser{ctx: ctx, lex: lexer{src: src}}
	if err = p.advance(); err != nil {
		return nil, err
	}
	return
}

// Context returns the context of the parser.
func (p *Parser) Context() *Context {
	return p.ctx
}

// Errorf returns a [Diagnostic] located at the current token.
func (p *Parser) Errorf(format string, args ...interface{}) error {
	line, col := p.lex.lineCol(p.tok.pos)
	return &Diagnostic{Subject: fmt.Sprintf("%d:%d", line, col), Message: fmt.Sprintf(format, args...)}
}

func (p *Parser) advance() (err error) {
	var tok token
	if tok, err = p.lex.next(); err != nil {
		p.tok = tok
		p.tok.pos = p.lex.pos
		return p.Errorf("%s", err)
	}
	p.tok = tok
	return
}

// AtEOF returns true if the whole input was consumed.
func (p *Parser) AtEOF() bool {
	return p.tok.kind == tokEOF
}

// AtPunct returns true if the current token is the given punctuation.
func (p *Parser) AtPunct(punct string) bool {
	return p.tok.kind == tokPunct && p.tok.text == punct
}

// AtKeyword returns true if the current token is the given bare identifier.
func (p *Parser) AtKeyword(kw string) bool {
	return p.tok.kind == tokIdent && p.tok.text == kw
}

// AtInteger returns true if the current token is an integer literal.
func (p *Parser) AtInteger() bool {
	return p.tok.kind == tokInt
}

// Consume consumes the given punctuation if it is the current token and reports whether it did.
func (p *Parser) Consume(punct string) (bool, error) {
	if !p.AtPunct(punct) {
		return false, nil
	}
	return true, p.advance()
}

// ConsumeKeyword consumes the given bare identifier if it is the current token and reports whether it did.
func (p *Parser) ConsumeKeyword(kw string) (bool, error) {
	if !p.AtKeyword(kw) {
		return false, nil
	}
	return true, p.advance()
}

// Expect consumes the given punctuation or fails.
func (p *Parser) Expect(punct string) error {
	if !p.AtPunct(punct) {
		return p.Errorf("expected '%s', but found %s", punct, p.tok)
	}
	return p.advance()
}

// ParseKeyword consumes the given bare identifier or fails.
func (p *Parser) ParseKeyword(kw string) error {
	if !p.AtKeyword(kw) {
		return p.Errorf("expected '%s', but found %s", kw, p.tok)
	}
	return p.advance()
}

// ParseIdent consumes a bare identifier and returns it.
func (p *Parser) ParseIdent() (string, error) {
	if p.tok.kind != tokIdent {
		return "", p.Errorf("expected identifier, but found %s", p.tok)
	}
	s := p.tok.text
	return s, p.advance()
}

// ParseString consumes a quoted string and returns its value.
func (p *Parser) ParseString() (string, error) {
	if p.tok.kind != tokString {
		return "", p.Errorf("expected string, but found %s", p.tok)
	}
	s := p.tok.text
	return s, p.advance()
}

// ParseInteger consumes an optionally negated integer literal.
func (p *Parser) ParseInteger() (*big.Int, error) {
	neg, err := p.Consume("-")
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokInt {
		return nil, p.Errorf("expected integer, but found %s", p.tok)
	}
	v, ok := new(big.Int).SetString(p.tok.text, 10)
	if !ok {
		return nil, p.Errorf("invalid integer literal %s", p.tok)
	}
	if neg {
		v.Neg(v)
	}
	return v, p.advance()
}

// ParseInt consumes an integer literal that fits an int.
func (p *Parser) ParseInt() (int, error) {
	v, err := p.ParseInteger()
	if err != nil {
		return 0, err
	}
	if !v.IsInt64() || int64(int(v.Int64())) != v.Int64() {
		return 0, p.Errorf("integer %s is out of range", v)
	}
	return int(v.Int64()), nil
}

// ParseParams consumes a parameter list "<key = value, ...>". For each key, parse is
// called with the parser positioned on the value, which it must consume. Keys must be
// distinct and every key in required must be present.
func (p *Parser) ParseParams(parse func(key string) error, required ...string) (err error) {

	if err = p.Expect("<"); err != nil {
		return
	}

	seen := map[string]bool{}

	var closed bool
	if closed, err = p.Consume(">"); err != nil || closed {
		return p.checkRequired(seen, required, err)
	}

	for {
		var key string
		if key, err = p.ParseIdent(); err != nil {
			return
		}
		if seen[key] {
			return p.Errorf("duplicate parameter '%s'", key)
		}
		seen[key] = true

		if err = p.Expect("="); err != nil {
			return
		}
		if err = parse(key); err != nil {
			return
		}

		var more bool
		if more, err = p.Consume(","); err != nil {
			return
		}
		if !more {
			break
		}
	}

	if err = p.Expect(">"); err != nil {
		return
	}

	return p.checkRequired(seen, required, nil)
}

func (p *Parser) checkRequired(seen map[string]bool, required []string, err error) error {
	if err != nil {
		return err
	}
	for _, k := range required {
		if !seen[k] {
			return p.Errorf("missing parameter '%s'", k)
		}
	}
	return nil
}

// UnknownParam returns the error reported for a parameter key that a type or attribute does not define.
func (p *Parser) UnknownParam(owner, key string) error {
	return p.Errorf("unknown parameter '%s' for %s", key, owner)
}

// ParseType consumes a type.
func (p *Parser) ParseType() (t Type, err error) {

	switch p.tok.kind {
	case tokIdent:
		t, err = p.parseBuiltinType()
	case tokType:
		t, err = p.parseDialectType()
	case tokPunct:
		if p.AtPunct("(") {
			t, err = p.parseFunctionType()
			break
		}
		fallthrough
	default:
		return nil, p.Errorf("expected type, but found %s", p.tok)
	}

	if err != nil {
		return nil, err
	}

	if err = VerifyType(t); err != nil {
		return nil, err
	}

	return p.ctx.UniqueType(t), nil
}

func parseWidth(s, prefix string) (int, bool) {
	if !strings.HasPrefix(s, prefix) || len(s) == len(prefix) {
		return 0, false
	}
	w, err := strconv.Atoi(s[len(prefix):])
	if err != nil || w < 0 || s[len(prefix)] == '+' {
		return 0, false
	}
	return w, true
}

func (p *Parser) parseBuiltinType() (Type, error) {

	name := p.tok.text

	switch name {
	case "index":
		return IndexType{}, p.advance()
	case "tensor":
		return p.parseTensorType()
	}

	if w, ok := parseWidth(name, "si"); ok {
		return IntegerType{Width: w, Signedness: Signed}, p.advance()
	}
	if w, ok := parseWidth(name, "ui"); ok {
		return IntegerType{Width: w, Signedness: Unsigned}, p.advance()
	}
	if w, ok := parseWidth(name, "i"); ok {
		return I(w), p.advance()
	}
	if w, ok := parseWidth(name, "f"); ok {
		return F(w), p.advance()
	}

	return nil, p.Errorf("unknown type '%s'", name)
}

func (p *Parser) parseTensorType() (t Type, err error) {

	if err = p.advance(); err != nil {
		return
	}

	// The shape is not tokenized: "4x8xi16" is scanned directly from the source.
	if !p.AtPunct("<") {
		return nil, p.Errorf("expected '<', but found %s", p.tok)
	}

	var dims []int64
	var end int
	if dims, end, err = p.lex.scanDimensions(p.tok.pos + 1); err != nil {
		return nil, p.Errorf("%s", err)
	}
	p.lex.pos = end
	if err = p.advance(); err != nil {
		return
	}

	tt := TensorType{Shape: dims}

	if tt.Element, err = p.ParseType(); err != nil {
		return
	}

	var hasEncoding bool
	if hasEncoding, err = p.Consume(","); err != nil {
		return
	}

	if hasEncoding {
		if tt.Encoding, err = p.ParseAttribute(); err != nil {
			return
		}
	}

	if err = p.Expect(">"); err != nil {
		return
	}

	return tt, nil
}

func (p *Parser) parseTypeList(closing string) (types []Type, err error) {
	types = []Type{}
	var closed bool
	if closed, err = p.Consume(closing); err != nil || closed {
		return
	}
	for {
		var t Type
		if t, err = p.ParseType(); err != nil {
			return
		}
		types = append(types, t)
		var more bool
		if more, err = p.Consume(","); err != nil {
			return
		}
		if !more {
			return types, p.Expect(closing)
		}
	}
}

func (p *Parser) parseFunctionType() (t Type, err error) {

	if err = p.Expect("("); err != nil {
		return
	}

	ft := FunctionType{}

	if ft.Inputs, err = p.parseTypeList(")"); err != nil {
		return
	}

	if err = p.Expect("->"); err != nil {
		return
	}

	var paren bool
	if paren, err = p.Consume("("); err != nil {
		return
	}

	if paren {
		if ft.Results, err = p.parseTypeList(")"); err != nil {
			return
		}
	} else {
		var r Type
		if r, err = p.ParseType(); err != nil {
			return
		}
		ft.Results = []Type{r}
	}

	return ft, nil
}

func (p *Parser) lookupDialect(qualified string) (d *Dialect, mnemonic string, err error) {
	i := strings.IndexByte(qualified, '.')
	if i < 0 {
		return nil, "", p.Errorf("expected 'dialect.mnemonic', but found '%s'", qualified)
	}
	var ok bool
	if d, ok = p.ctx.dialects[qualified[:i]]; !ok {
		return nil, "", p.Errorf("dialect '%s' is not registered in this context", qualified[:i])
	}
	return d, qualified[i+1:], nil
}

func (p *Parser) parseDialectType() (Type, error) {
	d, mnemonic, err := p.lookupDialect(p.tok.text)
	if err != nil {
		return nil, err
	}
	if d.ParseType == nil {
		return nil, p.Errorf("dialect '%s' does not define types", d.Name)
	}
	if err = p.advance(); err != nil {
		return nil, err
	}
	return d.ParseType(p, mnemonic)
}

func (p *Parser) parseDialectAttribute() (Attribute, error) {
	d, mnemonic, err := p.lookupDialect(p.tok.text)
	if err != nil {
		return nil, err
	}
	if d.ParseAttribute == nil {
		return nil, p.Errorf("dialect '%s' does not define attributes", d.Name)
	}
	if err = p.advance(); err != nil {
		return nil, err
	}
	return d.ParseAttribute(p, mnemonic)
}

// ParseAttribute consumes an attribute.
func (p *Parser) ParseAttribute() (a Attribute, err error) {

	switch {
	case p.tok.kind == tokAttr:
		a, err = p.parseDialectAttribute()
	case p.tok.kind == tokString:
		var s string
		s, err = p.ParseString()
		a = StringAttr(s)
	case p.tok.kind == tokInt, p.tok.kind == tokFloat, p.AtPunct("-"):
		a, err = p.parseNumberAttribute()
	case p.AtPunct("["):
		a, err = p.parseArrayAttribute()
	case p.AtKeyword("unit"):
		a, err = UnitAttr{}, p.advance()
	default:
		var t Type
		if t, err = p.ParseType(); err == nil {
			a = TypeAttr{Value: t}
		}
	}

	if err != nil {
		return nil, err
	}

	if err = VerifyAttribute(a); err != nil {
		return nil, err
	}

	return p.ctx.UniqueAttribute(a), nil
}

func (p *Parser) parseNumberAttribute() (a Attribute, err error) {

	var neg bool
	if neg, err = p.Consume("-"); err != nil {
		return
	}

	if p.tok.kind == tokFloat {
		var f float64
		if f, err = strconv.ParseFloat(p.tok.text, 64); err != nil {
			return nil, p.Errorf("invalid float literal %s", p.tok)
		}
		if neg {
			f = -f
		}
		if err = p.advance(); err != nil {
			return
		}
		if err = p.Expect(":"); err != nil {
			return
		}
		var t Type
		if t, err = p.ParseType(); err != nil {
			return
		}
		ft, ok := t.(FloatType)
		if !ok {
			return nil, p.Errorf("float attribute must have a float type, but found %s", t)
		}
		return FloatAttr{Value: f, Type: ft}, nil
	}

	if p.tok.kind != tokInt {
		return nil, p.Errorf("expected number, but found %s", p.tok)
	}

	v, ok := new(big.Int).SetString(p.tok.text, 10)
	if !ok {
		return nil, p.Errorf("invalid integer literal %s", p.tok)
	}
	if neg {
		v.Neg(v)
	}
	if err = p.advance(); err != nil {
		return
	}

	ia := IntegerAttr{Value: v}

	var typed bool
	if typed, err = p.Consume(":"); err != nil {
		return
	}
	if typed {
		if ia.Type, err = p.ParseType(); err != nil {
			return
		}
	}

	return ia, nil
}

func (p *Parser) parseArrayAttribute() (a Attribute, err error) {

	if err = p.Expect("["); err != nil {
		return
	}

	arr := ArrayAttr{}

	var closed bool
	if closed, err = p.Consume("]"); err != nil || closed {
		return arr, err
	}

	for {
		var e Attribute
		if e, err = p.ParseAttribute(); err != nil {
			return
		}
		arr = append(arr, e)
		var more bool
		if more, err = p.Consume(","); err != nil {
			return
		}
		if !more {
			return arr, p.Expect("]")
		}
	}
}

// ParseType parses the textual form of a type.
func ParseType(ctx *Context, src string) (Type, error) {
	p, err := NewParser(ctx, src)
	if err != nil {
		return nil, err
	}
	t, err := p.ParseType()
	if err != nil {
		return nil, err
	}
	if !p.AtEOF() {
		return nil, p.Errorf("unexpected %s after type", p.tok)
	}
	return t, nil
}

// ParseAttribute parses the textual form of an attribute.
func ParseAttribute(ctx *Context, src string) (Attribute, error) {
	p, err := NewParser(ctx, src)
	if err != nil {
		return nil, err
	}
	a, err := p.ParseAttribute()
	if err != nil {
		return nil, err
	}
	if !p.AtEOF() {
		return nil, p.Errorf("unexpected %s after attribute", p.tok)
	}
	return a, nil
}

// ParseModule parses the textual form of a module, as written by [Print].
// Every operation is verified as it is parsed.
func ParseModule(ctx *Context, src string) (m *Module, err error) {

	var p *Parser
	if p, err = NewParser(ctx, src); err != nil {
		return
	}

	m = NewModule()

	for !p.AtEOF() {
		var f *Func
		if f, err = p.parseFunc(); err != nil {
			return nil, err
		}
		if err = m.AddFunc(f); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (p *Parser) parseFunc() (f *Func, err error) {

	if err = p.ParseKeyword("func.func"); err != nil {
		return
	}

	if p.tok.kind != tokSymbol {
		return nil, p.Errorf("expected function name, but found %s", p.tok)
	}
	name := p.tok.text
	if err = p.advance(); err != nil {
		return
	}

	if err = p.Expect("("); err != nil {
		return
	}

	var argNames []string
	var argTypes []Type

	var closed bool
	if closed, err = p.Consume(")"); err != nil {
		return
	}

	for !closed {
		if p.tok.kind != tokValue {
			return nil, p.Errorf("expected argument name, but found %s", p.tok)
		}
		argNames = append(argNames, p.tok.text)
		if err = p.advance(); err != nil {
			return
		}
		if err = p.Expect(":"); err != nil {
			return
		}
		var t Type
		if t, err = p.ParseType(); err != nil {
			return
		}
		argTypes = append(argTypes, t)

		var more bool
		if more, err = p.Consume(","); err != nil {
			return
		}
		if !more {
			if err = p.Expect(")"); err != nil {
				return
			}
			closed = true
		}
	}

	results := []Type{}
	var arrow bool
	if arrow, err = p.Consume("->"); err != nil {
		return
	}
	if arrow {
		var paren bool
		if paren, err = p.Consume("("); err != nil {
			return
		}
		if paren {
			if results, err = p.parseTypeList(")"); err != nil {
				return
			}
		} else {
			var t Type
			if t, err = p.ParseType(); err != nil {
				return
			}
			results = []Type{t}
		}
	}

	f = NewFunc(name, argTypes, results)

	values := map[string]*Value{}
	for i, n := range argNames {
		if _, ok := values[n]; ok {
			return nil, p.Errorf("redefinition of value %%%s", n)
		}
		values[n] = f.body.args[i]
	}

	if err = p.Expect("{"); err != nil {
		return
	}

	for {
		if closed, err = p.Consume("}"); err != nil {
			return
		}
		if closed {
			break
		}
		if err = p.parseOperation(f, values); err != nil {
			return nil, fmt.Errorf("in function @%s: %w", name, err)
		}
	}

	return f, nil
}

func (p *Parser) parseValueList(values map[string]*Value, closing string) (list []*Value, err error) {
	var closed bool
	if closed, err = p.Consume(closing); err != nil || closed {
		return
	}
	for {
		if p.tok.kind != tokValue {
			return nil, p.Errorf("expected value, but found %s", p.tok)
		}
		v, ok := values[p.tok.text]
		if !ok {
			return nil, p.Errorf("use of undefined value %%%s", p.tok.text)
		}
		list = append(list, v)
		if err = p.advance(); err != nil {
			return
		}
		var more bool
		if more, err = p.Consume(","); err != nil {
			return
		}
		if !more {
			return list, p.Expect(closing)
		}
	}
}

func (p *Parser) parseOperation(f *Func, values map[string]*Value) (err error) {

	var resultNames []string
	for p.tok.kind == tokValue {
		resultNames = append(resultNames, p.tok.text)
		if err = p.advance(); err != nil {
			return
		}
		var more bool
		if more, err = p.Consume(","); err != nil {
			return
		}
		if !more {
			if err = p.Expect("="); err != nil {
				return
			}
			break
		}
	}

	var name string
	if name, err = p.ParseString(); err != nil {
		return
	}

	if err = p.Expect("("); err != nil {
		return
	}

	var operands []*Value
	if operands, err = p.parseValueList(values, ")"); err != nil {
		return
	}

	var attrs []NamedAttribute
	var hasAttrs bool
	if hasAttrs, err = p.Consume("{"); err != nil {
		return
	}
	if hasAttrs {
		if attrs, err = p.parseAttributeDict(); err != nil {
			return
		}
	}

	if err = p.Expect(":"); err != nil {
		return
	}

	sigPos := p.tok.pos

	var sig Type
	if sig, err = p.ParseType(); err != nil {
		return
	}

	ft, ok := sig.(FunctionType)
	if !ok {
		return p.Errorf("expected operation signature, but found %s", sig)
	}

	if len(ft.Inputs) != len(operands) {
		return p.errorAt(sigPos, "'%s' has %d operands but its signature lists %d", name, len(operands), len(ft.Inputs))
	}
	for i, v := range operands {
		if !TypesEqual(v.typ, ft.Inputs[i]) {
			return p.errorAt(sigPos, "type of operand #%d of '%s' is %s, but its signature lists %s", i, name, v.typ, ft.Inputs[i])
		}
	}
	if len(ft.Results) != len(resultNames) {
		return p.errorAt(sigPos, "'%s' defines %d values but its signature lists %d results", name, len(resultNames), len(ft.Results))
	}

	var op *Operation
	if op, err = p.ctx.build(f.body, name, operands, ft.Results, attrs); err != nil {
		return
	}
	f.body.insert(-1, op)

	for i, n := range resultNames {
		if _, ok := values[n]; ok {
			return p.errorAt(sigPos, "redefinition of value %%%s", n)
		}
		values[n] = op.results[i]
	}

	return nil
}

func (p *Parser) parseAttributeDict() (attrs []NamedAttribute, err error) {
	var closed bool
	if closed, err = p.Consume("}"); err != nil || closed {
		return
	}
	for {
		var name string
		if name, err = p.ParseIdent(); err != nil {
			return
		}

		var value Attribute = UnitAttr{}

		var hasValue bool
		if hasValue, err = p.Consume("="); err != nil {
			return
		}
		if hasValue {
			if value, err = p.ParseAttribute(); err != nil {
				return
			}
		}

		attrs = append(attrs, NamedAttribute{Name: name, Value: value})

		var more bool
		if more, err = p.Consume(","); err != nil {
			return
		}
		if !more {
			return attrs, p.Expect("}")
		}
	}
}

func (p *Parser) errorAt(pos int, format string, args ...interface{}) error {
	line, col := p.lex.lineCol(pos)
	return &Diagnostic{Subject: fmt.Sprintf("%d:%d", line, col), Message: fmt.Sprintf(format, args...)}
}
