package types

import (
	"fmt"

	"github.com/funvibe/rulejitc/internal/lexer"
	"github.com/funvibe/rulejitc/internal/token"
)

// ParseError reports a malformed type expression.
type ParseError struct {
	Pos token.Position
	Msg string
}

func (e *ParseError) Error() string { return fmt.Sprintf("type parse error at %s: %s", e.Pos, e.Msg) }

// Parse reads one Type from l, per the grammar of spec.md §4.B:
//
//	type := ('[' ']' | '*' | 'const')*
//	        ( ident
//	        | 'func' '(' typelist? ')' (':' type)?
//	        | ('struct'|'class'|'dynamic') '{' (ident type ';')* '}' )
func Parse(l *lexer.Lexer) (Type, error) {
	var info Type
	for {
		top, err := l.Top(lexer.IgnoreBreak)
		if err != nil {
			return Type{}, err
		}
		if top.Text == "[" {
			l.Pop(lexer.IgnoreBreak)
			close, err := l.Pop(lexer.IgnoreBreak)
			if err != nil {
				return Type{}, err
			}
			if close.Text != "]" {
				return Type{}, &ParseError{Pos: top.Pos, Msg: "mismatched \"[\" in slice type"}
			}
			info.Idents = append(info.Idents, "[]")
			continue
		}
		if top.Text == "*" || top.Text == "const" {
			l.Pop(lexer.IgnoreBreak)
			info.Idents = append(info.Idents, top.Text)
			continue
		}
		break
	}

	top, err := l.Top(lexer.IgnoreBreak)
	if err != nil {
		return Type{}, err
	}

	switch {
	case top.Tag == token.Ident:
		l.Pop(lexer.IgnoreBreak)
		info.Idents = append(info.Idents, top.Text)
		return info, nil

	case top.Text == "func":
		l.Pop(lexer.IgnoreBreak)
		info.Idents = append(info.Idents, "func")
		open, err := l.Pop(lexer.IgnoreBreak)
		if err != nil {
			return Type{}, err
		}
		if open.Text != "(" {
			return Type{}, &ParseError{Pos: open.Pos, Msg: "expected \"(\", found " + open.Text}
		}
		for {
			next, err := l.Top(lexer.IgnoreBreak)
			if err != nil {
				return Type{}, err
			}
			if next.Text == ")" {
				break
			}
			param, err := Parse(l)
			if err != nil {
				return Type{}, err
			}
			info.SubTypes = append(info.SubTypes, param)
			sep, err := l.Top(lexer.IgnoreBreak)
			if err != nil {
				return Type{}, err
			}
			if sep.Text == "," {
				l.Pop(lexer.IgnoreBreak)
			} else if sep.Text != ")" {
				return Type{}, &ParseError{Pos: sep.Pos, Msg: "mismatched \"(\" in func type"}
			}
		}
		l.Pop(lexer.IgnoreBreak)
		colon, err := l.Top(lexer.IgnoreBreak)
		if err != nil {
			return Type{}, err
		}
		if colon.Text != ":" {
			return info, nil
		}
		l.Pop(lexer.IgnoreBreak)
		info.Idents = append(info.Idents, ":")
		ret, err := Parse(l)
		if err != nil {
			return Type{}, err
		}
		info.SubTypes = append(info.SubTypes, ret)
		return info, nil

	case top.Text == "struct" || top.Text == "class" || top.Text == "dynamic":
		if len(info.Idents) != 0 {
			return Type{}, &ParseError{Pos: top.Pos, Msg: "list of or pointer to unnamed complex type is not allowed"}
		}
		l.Pop(lexer.IgnoreBreak)
		info.Idents = append(info.Idents, top.Text)
		open, err := l.Pop(lexer.IgnoreBreak)
		if err != nil {
			return Type{}, err
		}
		if open.Text != "{" {
			return Type{}, &ParseError{Pos: open.Pos, Msg: "expected \"{\", found " + open.Text}
		}
		for {
			next, err := l.Top(lexer.IgnoreBreak)
			if err != nil {
				return Type{}, err
			}
			if next.Text == "}" {
				break
			}
			if next.Tag != token.Ident {
				return Type{}, &ParseError{Pos: next.Pos, Msg: "expected identifier, found " + next.Text}
			}
			l.Pop(lexer.IgnoreBreak)
			info.Idents = append(info.Idents, next.Text)
			member, err := Parse(l)
			if err != nil {
				return Type{}, err
			}
			info.SubTypes = append(info.SubTypes, member)
			end, err := l.Top(lexer.RespectBreak)
			if err != nil {
				return Type{}, err
			}
			if end.Tag != token.Endline && end.Text != "}" {
				return Type{}, &ParseError{Pos: end.Pos, Msg: "expected end of line or \"}\", found " + end.Text}
			}
			if end.Tag == token.Endline {
				l.Pop(lexer.RespectBreak)
			}
		}
		l.Pop(lexer.IgnoreBreak)
		return info, nil

	default:
		return Type{}, &ParseError{Pos: top.Pos, Msg: "expected type identifier, found " + top.Text}
	}
}

// MakeType is a convenience wrapper parsing a type directly from a
// source string (used by tests and by the translator's pre-defines).
func MakeType(src string) (Type, error) {
	l := lexer.New(src)
	return Parse(l)
}
