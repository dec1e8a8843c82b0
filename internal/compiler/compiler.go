// Package compiler is a minimal recursive-descent parser that lowers
// source text directly into an *avmc.Queue, skipping a separate AST
// stage — source parsing and semantic lowering are explicitly out of
// scope for this distillation, so this compiler exists only to drive the
// integration tests and the REPL, and deliberately covers a trimmed
// grammar subset (no for/do-while/switch/each — see DESIGN.md). Grounded
// in the shape of the teacher's internal/parser package (a Parser struct
// walking a token slice with peek/expect helpers) adapted to emit AVMC
// nodes in place of an intermediate AST.
package compiler

import (
	"fmt"

	"asteria/internal/avmc"
	"asteria/internal/executive"
	"asteria/internal/lexer"
	"asteria/internal/srcloc"
)

type Compiler struct {
	toks []lexer.Token
	pos  int
}

// Compile tokenizes and parses src as a sequence of statements, returning
// a top-level Queue ready for engine.ExecuteTop.
func Compile(file, src string) (*avmc.Queue, error) {
	lx := lexer.New(file, src)
	toks, err := lx.Tokenize()
	if err != nil {
		return nil, err
	}
	c := &Compiler{toks: toks}
	q := avmc.NewQueue()
	for !c.at(lexer.TokEOF) {
		if err := c.statement(q); err != nil {
			return nil, err
		}
	}
	return q, nil
}

func (c *Compiler) cur() lexer.Token  { return c.toks[c.pos] }
func (c *Compiler) at(k lexer.TokenKind) bool { return c.cur().Kind == k }

func (c *Compiler) advance() lexer.Token {
	t := c.toks[c.pos]
	if c.pos < len(c.toks)-1 {
		c.pos++
	}
	return t
}

func (c *Compiler) expect(k lexer.TokenKind) (lexer.Token, error) {
	if !c.at(k) {
		return lexer.Token{}, fmt.Errorf("expected %s at %s, got %s %q", k, c.cur().Loc, c.cur().Kind, c.cur().Text)
	}
	return c.advance(), nil
}

func (c *Compiler) loc() srcloc.Location { return c.cur().Loc }

// statement parses one statement and appends it to q.
func (c *Compiler) statement(q *avmc.Queue) error {
	switch c.cur().Kind {
	case lexer.TokVar, lexer.TokConst:
		return c.varDecl(q)
	case lexer.TokFunc:
		return c.funcDecl(q)
	case lexer.TokIf:
		return c.ifStmt(q)
	case lexer.TokWhile:
		return c.whileStmt(q)
	case lexer.TokLBrace:
		return c.block(q)
	case lexer.TokBreak:
		loc := c.advance().Loc
		if _, err := c.expect(lexer.TokSemi); err != nil {
			return err
		}
		avmc.EmitBreak(q, loc, avmc.LoopWhile)
		return nil
	case lexer.TokContinue:
		loc := c.advance().Loc
		if _, err := c.expect(lexer.TokSemi); err != nil {
			return err
		}
		avmc.EmitContinue(q, loc, avmc.LoopWhile)
		return nil
	case lexer.TokReturn:
		return c.returnStmt(q)
	case lexer.TokThrow:
		loc := c.advance().Loc
		if err := c.expression(q); err != nil {
			return err
		}
		if _, err := c.expect(lexer.TokSemi); err != nil {
			return err
		}
		avmc.EmitThrow(q, loc)
		return nil
	case lexer.TokTry:
		return c.tryStmt(q)
	case lexer.TokAssert:
		return c.assertStmt(q)
	case lexer.TokDefer:
		return c.deferStmt(q)
	case lexer.TokSemi:
		c.advance()
		return nil
	default:
		loc := c.loc()
		if err := c.expression(q); err != nil {
			return err
		}
		if _, err := c.expect(lexer.TokSemi); err != nil {
			return err
		}
		avmc.EmitPop(q, loc)
		return nil
	}
}

func (c *Compiler) varDecl(q *avmc.Queue) error {
	constant := c.at(lexer.TokConst)
	loc := c.advance().Loc
	name, err := c.expect(lexer.TokIdent)
	if err != nil {
		return err
	}
	hasInit := false
	if c.at(lexer.TokAssign) {
		c.advance()
		hasInit = true
		if err := c.expression(q); err != nil {
			return err
		}
	}
	if _, err := c.expect(lexer.TokSemi); err != nil {
		return err
	}
	avmc.EmitDeclare(q, loc, name.Text, constant, hasInit)
	avmc.EmitPop(q, loc)
	return nil
}

func (c *Compiler) block(q *avmc.Queue) error {
	loc := c.loc()
	inner, err := c.parseBlockQueue()
	if err != nil {
		return err
	}
	avmc.EmitBlock(q, loc, executive.FlagPlainBlock, inner)
	return nil
}

func (c *Compiler) parseBlockQueue() (*avmc.Queue, error) {
	if _, err := c.expect(lexer.TokLBrace); err != nil {
		return nil, err
	}
	inner := avmc.NewQueue()
	for !c.at(lexer.TokRBrace) && !c.at(lexer.TokEOF) {
		if err := c.statement(inner); err != nil {
			return nil, err
		}
	}
	if _, err := c.expect(lexer.TokRBrace); err != nil {
		return nil, err
	}
	return inner, nil
}

func (c *Compiler) ifStmt(q *avmc.Queue) error {
	loc := c.advance().Loc
	if _, err := c.expect(lexer.TokLParen); err != nil {
		return err
	}
	cond := avmc.NewQueue()
	if err := c.expression(cond); err != nil {
		return err
	}
	if _, err := c.expect(lexer.TokRParen); err != nil {
		return err
	}
	// cond is evaluated inline, right before EmitIf consumes its result,
	// so splice it directly into q rather than nesting it — EmitIf itself
	// only needs the then/else branches as sub-queues.
	thenQ, err := c.parseBlockQueue()
	if err != nil {
		return err
	}
	var elseQ *avmc.Queue
	if c.at(lexer.TokElse) {
		c.advance()
		if c.at(lexer.TokIf) {
			elseQ = avmc.NewQueue()
			if err := c.ifStmt(elseQ); err != nil {
				return err
			}
		} else {
			elseQ, err = c.parseBlockQueue()
			if err != nil {
				return err
			}
		}
	}
	spliceInto(q, cond)
	avmc.EmitIf(q, loc, thenQ, elseQ)
	return nil
}

// spliceInto appends every node of a Queue built standalone (e.g. a
// condition expression parsed into its own Queue so its Destroy/enum
// hooks stay scoped to it) into dst by replaying it through a single
// wrapping executor; cheaper alternatives exist, but this keeps every
// Emit* helper free of needing a raw node-copy primitive.
func spliceInto(dst, src *avmc.Queue) {
	avmc.EmitSubQueue(dst, src)
}

func (c *Compiler) whileStmt(q *avmc.Queue) error {
	loc := c.advance().Loc
	if _, err := c.expect(lexer.TokLParen); err != nil {
		return err
	}
	cond := avmc.NewQueue()
	if err := c.expression(cond); err != nil {
		return err
	}
	if _, err := c.expect(lexer.TokRParen); err != nil {
		return err
	}
	body, err := c.parseBlockQueue()
	if err != nil {
		return err
	}
	avmc.EmitWhile(q, loc, cond, body)
	return nil
}

func (c *Compiler) returnStmt(q *avmc.Queue) error {
	loc := c.advance().Loc
	if c.at(lexer.TokSemi) {
		c.advance()
		avmc.EmitReturn(q, loc, false)
		return nil
	}
	// Tail-call detection: `return ident(args);` with nothing following
	// but the semicolon is a tail position call (§4.7). The callee must
	// be pushed before its arguments, matching EmitCall/EmitReturnCall's
	// pop order (args popped first, callee popped last).
	if c.at(lexer.TokIdent) && c.toks[c.pos+1].Kind == lexer.TokLParen {
		save := c.pos
		tail := avmc.NewQueue()
		nameTok := c.advance()
		c.advance() // (
		avmc.EmitGetName(tail, nameTok.Loc, nameTok.Text)
		argc, err := c.argList(tail)
		if err == nil && c.at(lexer.TokSemi) {
			c.advance()
			spliceInto(q, tail)
			avmc.EmitReturnCall(q, loc, argc)
			return nil
		}
		c.pos = save
	}
	if err := c.expression(q); err != nil {
		return err
	}
	if _, err := c.expect(lexer.TokSemi); err != nil {
		return err
	}
	avmc.EmitReturn(q, loc, true)
	return nil
}

func (c *Compiler) tryStmt(q *avmc.Queue) error {
	loc := c.advance().Loc
	tryQ, err := c.parseBlockQueue()
	if err != nil {
		return err
	}
	if _, err := c.expect(lexer.TokCatch); err != nil {
		return err
	}
	if _, err := c.expect(lexer.TokLParen); err != nil {
		return err
	}
	name, err := c.expect(lexer.TokIdent)
	if err != nil {
		return err
	}
	if _, err := c.expect(lexer.TokRParen); err != nil {
		return err
	}
	catchQ, err := c.parseBlockQueue()
	if err != nil {
		return err
	}
	avmc.EmitTry(q, loc, tryQ, name.Text, catchQ)
	return nil
}

func (c *Compiler) assertStmt(q *avmc.Queue) error {
	loc := c.advance().Loc
	if _, err := c.expect(lexer.TokLParen); err != nil {
		return err
	}
	cond := avmc.NewQueue()
	if err := c.expression(cond); err != nil {
		return err
	}
	message := ""
	if c.at(lexer.TokComma) {
		c.advance()
		msgTok, err := c.expect(lexer.TokString)
		if err != nil {
			return err
		}
		message = msgTok.Text
	}
	if _, err := c.expect(lexer.TokRParen); err != nil {
		return err
	}
	if _, err := c.expect(lexer.TokSemi); err != nil {
		return err
	}
	spliceInto(q, cond)
	avmc.EmitAssert(q, loc, message)
	return nil
}

func (c *Compiler) deferStmt(q *avmc.Queue) error {
	loc := c.advance().Loc
	body := avmc.NewQueue()
	if c.at(lexer.TokLBrace) {
		inner, err := c.parseBlockQueue()
		if err != nil {
			return err
		}
		body = inner
	} else {
		if err := c.expression(body); err != nil {
			return err
		}
		avmc.EmitPop(body, loc)
		if _, err := c.expect(lexer.TokSemi); err != nil {
			return err
		}
	}
	avmc.EmitDefer(q, loc, body)
	return nil
}

func (c *Compiler) funcDecl(q *avmc.Queue) error {
	loc := c.advance().Loc
	name, err := c.expect(lexer.TokIdent)
	if err != nil {
		return err
	}
	params, variadic, err := c.paramList()
	if err != nil {
		return err
	}
	body, err := c.parseBlockQueue()
	if err != nil {
		return err
	}
	avmc.EmitFuncLiteral(q, loc, name.Text, params, variadic, body)
	avmc.EmitDeclare(q, loc, name.Text, true, true)
	avmc.EmitPop(q, loc)
	return nil
}

func (c *Compiler) paramList() ([]string, bool, error) {
	if _, err := c.expect(lexer.TokLParen); err != nil {
		return nil, false, err
	}
	var params []string
	variadic := false
	for !c.at(lexer.TokRParen) {
		if c.at(lexer.TokDot) && c.toks[c.pos+1].Kind == lexer.TokDot && c.toks[c.pos+2].Kind == lexer.TokDot {
			c.advance()
			c.advance()
			c.advance()
			rest, err := c.expect(lexer.TokIdent)
			if err != nil {
				return nil, false, err
			}
			params = append(params, rest.Text)
			variadic = true
			break
		}
		tok, err := c.expect(lexer.TokIdent)
		if err != nil {
			return nil, false, err
		}
		params = append(params, tok.Text)
		if c.at(lexer.TokComma) {
			c.advance()
		}
	}
	if _, err := c.expect(lexer.TokRParen); err != nil {
		return nil, false, err
	}
	return params, variadic, nil
}

// argList parses a parenthesized, already-opened ( argument list,
// pushing each onto q and returning the count.
func (c *Compiler) argList(q *avmc.Queue) (int, error) {
	argc := 0
	for !c.at(lexer.TokRParen) {
		if err := c.expression(q); err != nil {
			return 0, err
		}
		argc++
		if c.at(lexer.TokComma) {
			c.advance()
		}
	}
	if _, err := c.expect(lexer.TokRParen); err != nil {
		return 0, err
	}
	return argc, nil
}

