package compiler

import (
	"fmt"

	"asteria/internal/avmc"
	"asteria/internal/lexer"
	"asteria/internal/reference"
	"asteria/internal/value"
)

// expression parses a full expression (including assignment, the lowest
// precedence production) and appends it to q, leaving exactly one
// Reference on the stack at runtime.
func (c *Compiler) expression(q *avmc.Queue) error {
	return c.assignment(q)
}

func (c *Compiler) assignment(q *avmc.Queue) error {
	loc := c.loc()
	if err := c.coalesce(q); err != nil {
		return err
	}
	if c.at(lexer.TokAssign) {
		c.advance()
		if err := c.assignment(q); err != nil {
			return err
		}
		avmc.EmitAssign(q, loc)
	}
	return nil
}

// coalesce handles `??`, the lowest-precedence short-circuit operator.
func (c *Compiler) coalesce(q *avmc.Queue) error {
	if err := c.logicalOr(q); err != nil {
		return err
	}
	for c.at(lexer.TokCoalesce) {
		loc := c.advance().Loc
		rhs := avmc.NewQueue()
		if err := c.logicalOr(rhs); err != nil {
			return err
		}
		avmc.EmitShortCircuit(q, loc, false, true, rhs)
	}
	return nil
}

func (c *Compiler) logicalOr(q *avmc.Queue) error {
	if err := c.logicalAnd(q); err != nil {
		return err
	}
	for c.at(lexer.TokOr) {
		loc := c.advance().Loc
		rhs := avmc.NewQueue()
		if err := c.logicalAnd(rhs); err != nil {
			return err
		}
		// `a || b` only evaluates b when a is falsy.
		avmc.EmitShortCircuit(q, loc, false, false, rhs)
	}
	return nil
}

func (c *Compiler) logicalAnd(q *avmc.Queue) error {
	if err := c.equality(q); err != nil {
		return err
	}
	for c.at(lexer.TokAnd) {
		loc := c.advance().Loc
		rhs := avmc.NewQueue()
		if err := c.equality(rhs); err != nil {
			return err
		}
		// `a && b` only evaluates b when a is truthy.
		avmc.EmitShortCircuit(q, loc, true, false, rhs)
	}
	return nil
}

var equalityOps = map[lexer.TokenKind]avmc.BinaryOp{
	lexer.TokEq: avmc.OpEq, lexer.TokNe: avmc.OpNe,
}
var relationalOps = map[lexer.TokenKind]avmc.BinaryOp{
	lexer.TokLt: avmc.OpLt, lexer.TokLe: avmc.OpLe,
	lexer.TokGt: avmc.OpGt, lexer.TokGe: avmc.OpGe, lexer.TokCmp: avmc.OpCmp,
}
var bitOrOps = map[lexer.TokenKind]avmc.BinaryOp{lexer.TokBitOr: avmc.OpOr}
var bitXorOps = map[lexer.TokenKind]avmc.BinaryOp{lexer.TokBitXor: avmc.OpXor}
var bitAndOps = map[lexer.TokenKind]avmc.BinaryOp{lexer.TokBitAnd: avmc.OpAnd}
var shiftOps = map[lexer.TokenKind]avmc.BinaryOp{
	lexer.TokShl: avmc.OpShl, lexer.TokShr: avmc.OpShr,
	lexer.TokRol: avmc.OpRol, lexer.TokRor: avmc.OpRor,
}
var addOps = map[lexer.TokenKind]avmc.BinaryOp{lexer.TokPlus: avmc.OpAdd, lexer.TokMinus: avmc.OpSub}
var mulOps = map[lexer.TokenKind]avmc.BinaryOp{
	lexer.TokStar: avmc.OpMul, lexer.TokSlash: avmc.OpDiv, lexer.TokPercent: avmc.OpMod,
}

// leftAssocBinary is the shared precedence-climbing body for every
// strictly-left-associative binary level: parse next-tighter, then while
// the lookahead matches one of ops, consume it, parse the rhs operand,
// and emit the binary node.
func (c *Compiler) leftAssocBinary(q *avmc.Queue, ops map[lexer.TokenKind]avmc.BinaryOp, next func(*avmc.Queue) error) error {
	if err := next(q); err != nil {
		return err
	}
	for {
		op, ok := ops[c.cur().Kind]
		if !ok {
			return nil
		}
		loc := c.advance().Loc
		if err := next(q); err != nil {
			return err
		}
		avmc.EmitBinary(q, loc, op)
	}
}

func (c *Compiler) equality(q *avmc.Queue) error {
	return c.leftAssocBinary(q, equalityOps, c.relational)
}
func (c *Compiler) relational(q *avmc.Queue) error {
	return c.leftAssocBinary(q, relationalOps, c.bitOr)
}
func (c *Compiler) bitOr(q *avmc.Queue) error {
	return c.leftAssocBinary(q, bitOrOps, c.bitXor)
}
func (c *Compiler) bitXor(q *avmc.Queue) error {
	return c.leftAssocBinary(q, bitXorOps, c.bitAnd)
}
func (c *Compiler) bitAnd(q *avmc.Queue) error {
	return c.leftAssocBinary(q, bitAndOps, c.shift)
}
func (c *Compiler) shift(q *avmc.Queue) error {
	return c.leftAssocBinary(q, shiftOps, c.additive)
}
func (c *Compiler) additive(q *avmc.Queue) error {
	return c.leftAssocBinary(q, addOps, c.multiplicative)
}
func (c *Compiler) multiplicative(q *avmc.Queue) error {
	return c.leftAssocBinary(q, mulOps, c.unary)
}

func (c *Compiler) unary(q *avmc.Queue) error {
	switch c.cur().Kind {
	case lexer.TokMinus:
		loc := c.advance().Loc
		if err := c.unary(q); err != nil {
			return err
		}
		avmc.EmitUnary(q, loc, avmc.OpNeg)
		return nil
	case lexer.TokPlus:
		c.advance()
		return c.unary(q)
	case lexer.TokNot:
		loc := c.advance().Loc
		if err := c.unary(q); err != nil {
			return err
		}
		avmc.EmitUnary(q, loc, avmc.OpNot)
		return nil
	case lexer.TokBitNot:
		loc := c.advance().Loc
		if err := c.unary(q); err != nil {
			return err
		}
		avmc.EmitUnary(q, loc, avmc.OpBitNot)
		return nil
	case lexer.TokInc:
		loc := c.advance().Loc
		if err := c.unary(q); err != nil {
			return err
		}
		avmc.EmitIncDec(q, loc, 1, false)
		return nil
	case lexer.TokDec:
		loc := c.advance().Loc
		if err := c.unary(q); err != nil {
			return err
		}
		avmc.EmitIncDec(q, loc, -1, false)
		return nil
	default:
		return c.postfix(q)
	}
}

func (c *Compiler) postfix(q *avmc.Queue) error {
	if err := c.primary(q); err != nil {
		return err
	}
	for {
		switch c.cur().Kind {
		case lexer.TokLParen:
			loc := c.advance().Loc
			argc, err := c.argList(q)
			if err != nil {
				return err
			}
			avmc.EmitCall(q, loc, argc)
		case lexer.TokLBracket:
			loc := c.advance().Loc
			if err := c.expression(q); err != nil {
				return err
			}
			if _, err := c.expect(lexer.TokRBracket); err != nil {
				return err
			}
			avmc.EmitZoomIndexExpr(q, loc)
		case lexer.TokDot:
			loc := c.advance().Loc
			name, err := c.expect(lexer.TokIdent)
			if err != nil {
				return err
			}
			avmc.EmitZoom(q, loc, reference.Modifier{Kind: reference.ModKey, Key: name.Text})
		case lexer.TokInc:
			loc := c.advance().Loc
			avmc.EmitIncDec(q, loc, 1, true)
		case lexer.TokDec:
			loc := c.advance().Loc
			avmc.EmitIncDec(q, loc, -1, true)
		default:
			return nil
		}
	}
}

func (c *Compiler) primary(q *avmc.Queue) error {
	tok := c.cur()
	switch tok.Kind {
	case lexer.TokInt:
		c.advance()
		n, err := lexer.ParseIntLiteral(tok.Text)
		if err != nil {
			return err
		}
		avmc.EmitConstant(q, tok.Loc, value.Int(n))
		return nil
	case lexer.TokReal:
		c.advance()
		r, err := lexer.ParseRealLiteral(tok.Text)
		if err != nil {
			return err
		}
		avmc.EmitConstant(q, tok.Loc, value.Real(r))
		return nil
	case lexer.TokString:
		c.advance()
		avmc.EmitConstant(q, tok.Loc, value.Str(tok.Text))
		return nil
	case lexer.TokTrue:
		c.advance()
		avmc.EmitConstant(q, tok.Loc, value.Bool(true))
		return nil
	case lexer.TokFalse:
		c.advance()
		avmc.EmitConstant(q, tok.Loc, value.Bool(false))
		return nil
	case lexer.TokNull:
		c.advance()
		avmc.EmitConstant(q, tok.Loc, value.Null())
		return nil
	case lexer.TokIdent:
		c.advance()
		avmc.EmitGetName(q, tok.Loc, tok.Text)
		return nil
	case lexer.TokUnset:
		c.advance()
		if err := c.unary(q); err != nil {
			return err
		}
		avmc.EmitUnset(q, tok.Loc)
		return nil
	case lexer.TokFunc:
		return c.funcLiteral(q)
	case lexer.TokLParen:
		c.advance()
		if err := c.expression(q); err != nil {
			return err
		}
		_, err := c.expect(lexer.TokRParen)
		return err
	case lexer.TokLBracket:
		return c.arrayLiteral(q)
	case lexer.TokLBrace:
		return c.objectLiteral(q)
	default:
		return fmt.Errorf("unexpected token %s %q at %s", tok.Kind, tok.Text, tok.Loc)
	}
}

func (c *Compiler) arrayLiteral(q *avmc.Queue) error {
	loc := c.advance().Loc
	n := 0
	for !c.at(lexer.TokRBracket) {
		if err := c.expression(q); err != nil {
			return err
		}
		n++
		if c.at(lexer.TokComma) {
			c.advance()
		}
	}
	if _, err := c.expect(lexer.TokRBracket); err != nil {
		return err
	}
	avmc.EmitArrayLiteral(q, loc, n)
	return nil
}

func (c *Compiler) objectLiteral(q *avmc.Queue) error {
	loc := c.advance().Loc
	var keys []string
	for !c.at(lexer.TokRBrace) {
		var key string
		switch c.cur().Kind {
		case lexer.TokString:
			key = c.advance().Text
		case lexer.TokIdent:
			key = c.advance().Text
		default:
			return fmt.Errorf("expected object key at %s", c.loc())
		}
		if _, err := c.expect(lexer.TokColon); err != nil {
			return err
		}
		if err := c.expression(q); err != nil {
			return err
		}
		keys = append(keys, key)
		if c.at(lexer.TokComma) {
			c.advance()
		}
	}
	if _, err := c.expect(lexer.TokRBrace); err != nil {
		return err
	}
	avmc.EmitObjectLiteral(q, loc, keys)
	return nil
}

func (c *Compiler) funcLiteral(q *avmc.Queue) error {
	loc := c.advance().Loc
	name := ""
	if c.at(lexer.TokIdent) {
		name = c.advance().Text
	}
	params, variadic, err := c.paramList()
	if err != nil {
		return err
	}
	body, err := c.parseBlockQueue()
	if err != nil {
		return err
	}
	avmc.EmitFuncLiteral(q, loc, name, params, variadic, body)
	return nil
}
