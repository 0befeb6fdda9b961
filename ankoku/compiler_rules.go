package ankoku

import "strconv"

type Precedence int

const (
	precNone Precedence = iota
	precAssignment // =
	precOr         // or
	precAnd        // and
	precBitOr      // |
	precBitAnd     // &
	precEquality   // == !=
	precComparison // < > <= >=
	precTerm       // + -
	precFactor     // * /
	precUnary      // ! -
	precCall       // . ()
	precPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

var rules [TokenEOF + 1]parseRule

func init() {
	rules = [TokenEOF + 1]parseRule{
		TokenLeftParen:    {(*Compiler).grouping, (*Compiler).call, precCall},
		TokenLeftBrace:    {(*Compiler).objectLiteral, nil, precNone},
		TokenDot:          {nil, (*Compiler).dot, precCall},
		TokenMinus:        {(*Compiler).unary, (*Compiler).binary, precTerm},
		TokenPlus:         {nil, (*Compiler).binary, precTerm},
		TokenSlash:        {nil, (*Compiler).binary, precFactor},
		TokenStar:         {nil, (*Compiler).binary, precFactor},
		TokenAmpersand:    {nil, (*Compiler).binary, precBitAnd},
		TokenPipe:         {nil, (*Compiler).binary, precBitOr},
		TokenBang:         {(*Compiler).unary, nil, precNone},
		TokenBangEqual:    {nil, (*Compiler).binary, precEquality},
		TokenEqualEqual:   {nil, (*Compiler).binary, precEquality},
		TokenGreater:      {nil, (*Compiler).binary, precComparison},
		TokenGreaterEqual: {nil, (*Compiler).binary, precComparison},
		TokenLess:         {nil, (*Compiler).binary, precComparison},
		TokenLessEqual:    {nil, (*Compiler).binary, precComparison},
		TokenIdentifier:   {(*Compiler).variable, nil, precNone},
		TokenString:       {(*Compiler).stringLiteral, nil, precNone},
		TokenNumber:       {(*Compiler).number, nil, precNone},
		TokenAnd:          {nil, (*Compiler).and, precAnd},
		TokenOr:           {nil, (*Compiler).or, precOr},
		TokenFalse:        {(*Compiler).literal, nil, precNone},
		TokenNull:         {(*Compiler).literal, nil, precNone},
		TokenTrue:         {(*Compiler).literal, nil, precNone},
		TokenSuper:        {(*Compiler).super, nil, precNone},
		TokenThis:         {(*Compiler).this, nil, precNone},
	}
}

func getRule(kind TokenType) *parseRule {
	return &rules[kind]
}

func (c *Compiler) expression() {
	c.parsePrecedence(precAssignment)
}

func (c *Compiler) parsePrecedence(prec Precedence) {
	c.advance()
	prefix := getRule(c.previous.Type).prefix
	if prefix == nil {
		c.error("Expect expression.")
		return
	}

	canAssign := prec <= precAssignment
	prefix(c, canAssign)

	for prec <= getRule(c.current.Type).precedence {
		c.advance()
		getRule(c.previous.Type).infix(c, canAssign)
	}

	if canAssign && c.match(TokenEqual) {
		c.error("Invalid assignment target.")
	}
}

func (c *Compiler) grouping(bool) {
	c.expression()
	c.consume(TokenRightParen, "Expect ')' after expression.")
}

func (c *Compiler) number(bool) {
	n, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil {
		c.error("Invalid number literal.")
		return
	}
	c.emitConstant(NumberVal(n))
}

func (c *Compiler) stringLiteral(bool) {
	lexeme := c.previous.Lexeme
	c.emitConstant(ObjVal(c.vm.CopyString(lexeme[1 : len(lexeme)-1])))
}

func (c *Compiler) literal(bool) {
	switch c.previous.Type {
	case TokenFalse:
		c.emitOp(OpFalse)
	case TokenNull:
		c.emitOp(OpNull)
	case TokenTrue:
		c.emitOp(OpTrue)
	}
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.previous, canAssign)
}

func (c *Compiler) unary(bool) {
	op := c.previous.Type
	c.parsePrecedence(precUnary)
	switch op {
	case TokenBang:
		c.emitOp(OpNot)
	case TokenMinus:
		c.emitOp(OpNegate)
	}
}

var binaryOps = map[TokenType][]OpCode{
	TokenBangEqual:    {OpEqual, OpNot},
	TokenEqualEqual:   {OpEqual},
	TokenGreater:      {OpGreater},
	TokenGreaterEqual: {OpGreaterEqual},
	TokenLess:         {OpLess},
	TokenLessEqual:    {OpLessEqual},
	TokenPlus:         {OpAdd},
	TokenMinus:        {OpSubtract},
	TokenStar:         {OpMultiply},
	TokenSlash:        {OpDivide},
	TokenAmpersand:    {OpBitAnd},
	TokenPipe:         {OpBitOr},
}

func (c *Compiler) binary(bool) {
	op := c.previous.Type
	rule := getRule(op)
	c.parsePrecedence(rule.precedence + 1)
	for _, code := range binaryOps[op] {
		c.emitOp(code)
	}
}

func (c *Compiler) and(bool) {
	endJump := c.emitJump(OpJumpIfFalse)
	c.emitOp(OpPop)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or(bool) {
	elseJump := c.emitJump(OpJumpIfFalse)
	endJump := c.emitJump(OpJump)
	c.patchJump(elseJump)
	c.emitOp(OpPop)
	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func (c *Compiler) argumentList() byte {
	argCount := 0
	if !c.check(TokenRightParen) {
		for {
			c.expression()
			if argCount == maxArgs {
				c.error("Can't have more than 255 arguments.")
			}
			argCount++
			if !c.match(TokenComma) {
				break
			}
		}
	}
	c.consume(TokenRightParen, "Expect ')' after arguments.")
	return byte(argCount)
}

func (c *Compiler) call(bool) {
	argCount := c.argumentList()
	c.emitBytes(byte(OpCall), argCount)
}

func (c *Compiler) dot(canAssign bool) {
	c.consume(TokenIdentifier, "Expect property name after '.'.")
	name := c.identifierConstant(c.previous)

	switch {
	case canAssign && c.match(TokenEqual):
		c.expression()
		c.emitOpShort(OpSetProperty, name)
	case c.match(TokenLeftParen):
		argCount := c.argumentList()
		c.emitOpShort(OpInvoke, name)
		c.emitByte(argCount)
	default:
		c.emitOpShort(OpGetProperty, name)
	}
}

// objectLiteral compiles { name = value, ... } into a fresh instance of the
// built-in object class. A leading brace in statement position is a block,
// so literals only appear where an expression is expected.
func (c *Compiler) objectLiteral(bool) {
	c.emitOp(OpNewObject)
	for !c.check(TokenRightBrace) && !c.check(TokenEOF) {
		c.consume(TokenIdentifier, "Expect field name in object literal.")
		name := c.identifierConstant(c.previous)
		c.consume(TokenEqual, "Expect '=' after field name.")
		c.expression()
		c.emitOpShort(OpInitField, name)
		if !c.match(TokenComma) {
			break
		}
	}
	c.consume(TokenRightBrace, "Expect '}' after object literal.")
}

func (c *Compiler) this(bool) {
	if c.cc == nil {
		c.error("Can't use 'this' outside of a class.")
		return
	}
	c.variable(false)
}

func (c *Compiler) super(bool) {
	if c.cc == nil {
		c.error("Can't use 'super' outside of a class.")
	} else if !c.cc.hasSuperclass {
		c.error("Can't use 'super' in a class with no superclass.")
	}

	c.consume(TokenDot, "Expect '.' after 'super'.")
	c.consume(TokenIdentifier, "Expect superclass method name.")
	name := c.identifierConstant(c.previous)

	c.namedVariable(syntheticToken("this"), false)
	if c.match(TokenLeftParen) {
		argCount := c.argumentList()
		c.namedVariable(syntheticToken("super"), false)
		c.emitOpShort(OpSuperInvoke, name)
		c.emitByte(argCount)
	} else {
		c.namedVariable(syntheticToken("super"), false)
		c.emitOpShort(OpGetSuper, name)
	}
}
