// Package compiler implements a single-pass recursive-descent parser that
// emits bytecode directly from tokens using Pratt-style precedence
// climbing. There is no intermediate AST: the scanner and the emitter
// share one forward cursor over the source.
package compiler

import (
	"strconv"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"loxvm/bytecode"
	"loxvm/token"
)

// precedence levels, ascending. Every level is left-associative except
// assignment and unary, which are right-associative.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < <= > >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precPrimary
)

type parseFn func(canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

// Compiler compiles one Lox source string into one Chunk. It is not
// reentrant and not reusable across sources — construct a fresh one per
// compile.
type Compiler struct {
	scanner *scanner
	chunk   *bytecode.Chunk
	logger  *logrus.Logger

	current  token.Token
	previous token.Token

	errs      *multierror.Error
	panicking bool
	hadError  bool

	rules map[token.Type]parseRule
}

// New returns a Compiler ready to compile source. A nil logger falls
// back to logrus's standard logger.
func New(source string, logger *logrus.Logger) *Compiler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	c := &Compiler{
		scanner: newScanner(source),
		chunk:   bytecode.NewChunk(),
		logger:  logger,
	}
	c.rules = c.buildRules()
	return c
}

// Compile runs the compiler to completion and returns the resulting
// chunk. A non-nil error means the chunk must not be executed — it may
// be incomplete or semantically invalid, even though it is always a
// well-formed byte sequence that cannot crash the VM.
func (c *Compiler) Compile() (*bytecode.Chunk, error) {
	c.advance()
	for !c.check(token.EOF) {
		c.declaration()
	}
	c.emitByte(byte(bytecode.OpReturn))
	if c.hadError {
		return c.chunk, c.errs.ErrorOrNil()
	}
	return c.chunk, nil
}

// ---------------------------------------------------------------------
// Token stream
// ---------------------------------------------------------------------

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.scanner.next()
		if c.current.Type != token.ILLEGAL {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(t token.Type) bool { return c.current.Type == t }

func (c *Compiler) match(t token.Type) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(t token.Type, message string) {
	if c.current.Type == t {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

// ---------------------------------------------------------------------
// Error reporting and panic-mode synchronization
// ---------------------------------------------------------------------

func (c *Compiler) errorAtCurrent(message string) { c.errorAt(c.current, message) }
func (c *Compiler) errorAtPrevious(message string) { c.errorAt(c.previous, message) }

func (c *Compiler) errorAt(tok token.Token, message string) {
	if c.panicking {
		return
	}
	c.panicking = true
	c.hadError = true

	where := tok.Lexeme
	if tok.Type == token.EOF {
		where = "end"
	}
	err := &CompileError{Line: tok.Line, Where: where, Message: message}
	c.errs = multierror.Append(c.errs, err)
	c.logger.WithField("line", tok.Line).Warn(err.Error())
}

// synchronize discards tokens until a likely statement boundary so that
// one compile can surface more than one error.
func (c *Compiler) synchronize() {
	c.panicking = false
	for c.current.Type != token.EOF {
		if c.previous.Type == token.SEMICOLON {
			return
		}
		switch c.current.Type {
		case token.VAR, token.PRINT, token.RETURN:
			return
		}
		c.advance()
	}
}

// ---------------------------------------------------------------------
// Declarations and statements
// ---------------------------------------------------------------------

func (c *Compiler) declaration() {
	switch {
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.statement()
	}
	if c.panicking {
		c.synchronize()
	}
}

func (c *Compiler) varDeclaration() {
	line := c.previous.Line
	c.consume(token.IDENT, "expected variable name")
	name := c.previous.Lexeme

	if c.match(token.EQUAL) {
		c.expression()
		c.consume(token.SEMICOLON, "expected ';' after variable declaration")
		c.defineGlobal(name, line, false)
		return
	}
	c.consume(token.SEMICOLON, "expected ';' after variable declaration")
	c.defineGlobal(name, line, true)
}

// defineGlobal emits NDF_GLOBAL (withNil true: no initializer, leaves the
// global bound to nil without touching the stack) or DEF_GLOBAL (pops
// the initializer value just compiled).
func (c *Compiler) defineGlobal(name string, line int, withNil bool) {
	idx, err := c.chunk.AddConstant(bytecode.NewString(name))
	if err != nil {
		c.errorAtPrevious(err.Error())
		return
	}
	base := bytecode.OpDefGlobal8
	if withNil {
		base = bytecode.OpNdfGlobal8
	}
	if err := c.chunk.WriteConstantOp(base, idx, line); err != nil {
		c.errorAtPrevious(err.Error())
	}
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.RETURN):
		c.returnStatement()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) printStatement() {
	line := c.previous.Line
	c.expression()
	c.consume(token.SEMICOLON, "expected ';' after value")
	c.emitLine(byte(bytecode.OpPrint), line)
}

func (c *Compiler) returnStatement() {
	line := c.previous.Line
	c.consume(token.SEMICOLON, "expected ';' after return")
	c.emitLine(byte(bytecode.OpReturn), line)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "expected ';' after expression")
	c.emitLine(byte(bytecode.OpPop), c.previous.Line)
}

// ---------------------------------------------------------------------
// Expressions (Pratt precedence climbing)
// ---------------------------------------------------------------------

func (c *Compiler) expression() {
	c.parsePrecedence(precAssignment)
}

func (c *Compiler) parsePrecedence(prec precedence) {
	c.advance()
	rule := c.rules[c.previous.Type]
	if rule.prefix == nil {
		c.errorAtPrevious("expected expression")
		return
	}
	canAssign := prec <= precAssignment
	rule.prefix(canAssign)

	for prec <= c.rules[c.current.Type].precedence {
		c.advance()
		infix := c.rules[c.previous.Type].infix
		infix(canAssign)
	}

	if canAssign && c.match(token.EQUAL) {
		c.errorAtPrevious("invalid assignment target")
		// Resume as if the '=' were never there: compile its right-hand
		// side so we stay synchronized with the token stream, matching
		// the spec's "parsing resumes as a comparison/term" directive.
		c.parsePrecedence(precAssignment)
	}
}

func (c *Compiler) number(canAssign bool) {
	line := c.previous.Line
	f, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil {
		c.errorAtPrevious("invalid number literal")
		return
	}
	c.emitConstant(bytecode.NewNumber(f), line)
}

func (c *Compiler) stringLiteral(canAssign bool) {
	c.emitConstant(bytecode.NewString(c.previous.Lexeme), c.previous.Line)
}

func (c *Compiler) literal(canAssign bool) {
	line := c.previous.Line
	switch c.previous.Type {
	case token.NIL:
		c.emitLine(byte(bytecode.OpNil), line)
	case token.TRUE:
		c.emitLine(byte(bytecode.OpTrue), line)
	case token.FALSE:
		c.emitLine(byte(bytecode.OpFalse), line)
	}
}

func (c *Compiler) grouping(canAssign bool) {
	c.expression()
	c.consume(token.RIGHT_PAREN, "expected ')' after expression")
}

func (c *Compiler) unary(canAssign bool) {
	opType := c.previous.Type
	line := c.previous.Line
	c.parsePrecedence(precUnary)
	switch opType {
	case token.MINUS:
		c.emitLine(byte(bytecode.OpNegate), line)
	case token.BANG:
		c.emitLine(byte(bytecode.OpNot), line)
	}
}

func (c *Compiler) binary(canAssign bool) {
	opType := c.previous.Type
	line := c.previous.Line
	rule := c.rules[opType]
	c.parsePrecedence(rule.precedence + 1)

	switch opType {
	case token.PLUS:
		c.emitLine(byte(bytecode.OpAdd), line)
	case token.MINUS:
		c.emitLine(byte(bytecode.OpSubtract), line)
	case token.STAR:
		c.emitLine(byte(bytecode.OpMultiply), line)
	case token.SLASH:
		c.emitLine(byte(bytecode.OpDivide), line)
	case token.BANG_EQUAL:
		c.emitLine(byte(bytecode.OpNotEqual), line)
	case token.EQUAL_EQUAL:
		c.emitLine(byte(bytecode.OpEqual), line)
	case token.GREATER:
		c.emitLine(byte(bytecode.OpGreater), line)
	case token.GREATER_EQUAL:
		c.emitLine(byte(bytecode.OpGreaterEqual), line)
	case token.LESS:
		c.emitLine(byte(bytecode.OpLess), line)
	case token.LESS_EQUAL:
		c.emitLine(byte(bytecode.OpLessEqual), line)
	}
}

func (c *Compiler) and_(canAssign bool) {
	line := c.previous.Line
	endJump := c.emitJump(bytecode.OpJumpIfFalse, line)
	c.emitLine(byte(bytecode.OpPop), line)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or_(canAssign bool) {
	line := c.previous.Line
	elseJump := c.emitJump(bytecode.OpJumpIfFalse, line)
	endJump := c.emitJump(bytecode.OpJump, line)
	c.patchJump(elseJump)
	c.emitLine(byte(bytecode.OpPop), line)
	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func (c *Compiler) variable(canAssign bool) {
	name := c.previous.Lexeme
	line := c.previous.Line

	idx, err := c.chunk.AddConstant(bytecode.NewString(name))
	if err != nil {
		c.errorAtPrevious(err.Error())
		return
	}

	if canAssign && c.match(token.EQUAL) {
		c.expression()
		if err := c.chunk.WriteConstantOp(bytecode.OpSetGlobal8, idx, line); err != nil {
			c.errorAtPrevious(err.Error())
		}
		return
	}
	if err := c.chunk.WriteConstantOp(bytecode.OpGetGlobal8, idx, line); err != nil {
		c.errorAtPrevious(err.Error())
	}
}

// ---------------------------------------------------------------------
// Emission helpers
// ---------------------------------------------------------------------

func (c *Compiler) emitLine(b byte, line int) { c.chunk.WriteByte(b, line) }
func (c *Compiler) emitByte(b byte)           { c.emitLine(b, c.previous.Line) }

func (c *Compiler) emitConstant(v bytecode.Value, line int) {
	idx, err := c.chunk.AddConstant(v)
	if err != nil {
		c.errorAtPrevious(err.Error())
		return
	}
	if err := c.chunk.WriteConstantOp(bytecode.OpConstant8, idx, line); err != nil {
		c.errorAtPrevious(err.Error())
	}
}

// emitJump writes op followed by a 2-byte placeholder operand and
// returns the offset of that placeholder, to be back-patched once the
// jump distance is known.
func (c *Compiler) emitJump(op bytecode.Opcode, line int) int {
	c.chunk.WriteOp(op, line)
	c.chunk.WriteByte(0xff, line)
	c.chunk.WriteByte(0xff, line)
	return len(c.chunk.Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := len(c.chunk.Code) - offset - 2
	if jump < 0 || jump > 0xffff {
		c.errorAtPrevious("jump target too far to encode")
		return
	}
	c.chunk.PatchUint16(offset, uint16(jump))
}

func (c *Compiler) buildRules() map[token.Type]parseRule {
	return map[token.Type]parseRule{
		token.LEFT_PAREN:    {prefix: c.grouping},
		token.MINUS:         {prefix: c.unary, infix: c.binary, precedence: precTerm},
		token.PLUS:          {infix: c.binary, precedence: precTerm},
		token.SLASH:         {infix: c.binary, precedence: precFactor},
		token.STAR:          {infix: c.binary, precedence: precFactor},
		token.BANG:          {prefix: c.unary},
		token.BANG_EQUAL:    {infix: c.binary, precedence: precEquality},
		token.EQUAL_EQUAL:   {infix: c.binary, precedence: precEquality},
		token.GREATER:       {infix: c.binary, precedence: precComparison},
		token.GREATER_EQUAL: {infix: c.binary, precedence: precComparison},
		token.LESS:          {infix: c.binary, precedence: precComparison},
		token.LESS_EQUAL:    {infix: c.binary, precedence: precComparison},
		token.IDENT:         {prefix: c.variable},
		token.STRING:        {prefix: c.stringLiteral},
		token.NUMBER:        {prefix: c.number},
		token.NIL:           {prefix: c.literal},
		token.TRUE:          {prefix: c.literal},
		token.FALSE:         {prefix: c.literal},
		token.AND:           {infix: c.and_, precedence: precAnd},
		token.OR:            {infix: c.or_, precedence: precOr},
	}
}
