package typesystem

import (
	"fmt"
	"strings"
	"unicode"
)

// ParseType reads a textual signature such as "ForAll a: (a, [a]) -> [a]".
// Lowercase identifiers are type variables and uppercase ones are type
// constructors. Variables left free are quantified implicitly.
func ParseType(src string) (Type, error) {
	p := &typeParser{toks: lexType(src), src: src, vars: make(map[string]TVar)}
	t, err := p.parseTop()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, fmt.Errorf("parsing type %q: unexpected %q", src, p.toks[p.pos])
	}
	return t, nil
}

// MustParseType is like ParseType but panics on error. Intended for
// tables of built-in signatures.
func MustParseType(src string) Type {
	t, err := ParseType(src)
	if err != nil {
		panic(err)
	}
	return t
}

type typeParser struct {
	toks []string
	pos  int
	src  string
	vars map[string]TVar
	next int
	// order records variables in order of first appearance.
	order []TVar
}

func lexType(src string) []string {
	var toks []string
	runes := []rune(src)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '-' && i+1 < len(runes) && runes[i+1] == '>':
			toks = append(toks, "->")
			i += 2
		case strings.ContainsRune("()[],:", r):
			toks = append(toks, string(r))
			i++
		default:
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			if i == start {
				toks = append(toks, string(r))
				i++
				continue
			}
			toks = append(toks, string(runes[start:i]))
		}
	}
	return toks
}

func (p *typeParser) peek() string {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return ""
}

func (p *typeParser) expect(tok string) error {
	if p.peek() != tok {
		return fmt.Errorf("parsing type %q: expected %q, got %q", p.src, tok, p.peek())
	}
	p.pos++
	return nil
}

func (p *typeParser) variable(name string) TVar {
	if v, ok := p.vars[name]; ok {
		return v
	}
	// Negative IDs keep parsed variables apart from any inference supply.
	p.next--
	v := TVar{ID: p.next, Name: name}
	p.vars[name] = v
	p.order = append(p.order, v)
	return v
}

func (p *typeParser) parseTop() (Type, error) {
	var declared []TVar
	if p.peek() == "ForAll" {
		p.pos++
		for {
			name := p.peek()
			if !isVarName(name) {
				return nil, fmt.Errorf("parsing type %q: expected type variable, got %q", p.src, name)
			}
			p.pos++
			declared = append(declared, p.variable(name))
			if p.peek() != "," {
				break
			}
			p.pos++
		}
		if err := p.expect(":"); err != nil {
			return nil, err
		}
	}
	body, err := p.parseFn()
	if err != nil {
		return nil, err
	}
	vars := declared
	for _, v := range p.order {
		if !containsVar(vars, v) {
			vars = append(vars, v)
		}
	}
	if len(vars) == 0 {
		return body, nil
	}
	return TForall{Vars: vars, Type: body}, nil
}

func containsVar(vars []TVar, v TVar) bool {
	for _, x := range vars {
		if x.ID == v.ID {
			return true
		}
	}
	return false
}

// parseFn handles the right-associative arrow. A parenthesised group
// directly before an arrow is the parameter list.
func (p *typeParser) parseFn() (Type, error) {
	group, isGroup, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	if p.peek() != "->" {
		if isGroup {
			return Tuple(group...), nil
		}
		return group[0], nil
	}
	p.pos++
	ret, err := p.parseFn()
	if err != nil {
		return nil, err
	}
	return Fn(group, ret), nil
}

func (p *typeParser) parseAtom() ([]Type, bool, error) {
	switch tok := p.peek(); {
	case tok == "(":
		p.pos++
		var elems []Type
		for p.peek() != ")" {
			t, err := p.parseFn()
			if err != nil {
				return nil, false, err
			}
			elems = append(elems, t)
			if p.peek() != "," {
				break
			}
			p.pos++
		}
		if err := p.expect(")"); err != nil {
			return nil, false, err
		}
		return elems, true, nil
	case tok == "[":
		p.pos++
		elem, err := p.parseFn()
		if err != nil {
			return nil, false, err
		}
		if err := p.expect("]"); err != nil {
			return nil, false, err
		}
		return []Type{Seq(elem)}, false, nil
	case isVarName(tok):
		p.pos++
		return []Type{p.variable(tok)}, false, nil
	case tok != "" && unicode.IsUpper([]rune(tok)[0]):
		p.pos++
		return []Type{TCon{Name: tok}}, false, nil
	default:
		return nil, false, fmt.Errorf("parsing type %q: unexpected %q", p.src, tok)
	}
}

func isVarName(tok string) bool {
	return tok != "" && unicode.IsLower([]rune(tok)[0])
}

// ParseTypeList reads comma separated types such as "Long, [Double]", the
// form used for entry point arguments. Commas inside brackets belong to the
// enclosing type. An empty list yields no types.
func ParseTypeList(src string) ([]Type, error) {
	if strings.TrimSpace(src) == "" {
		return nil, nil
	}
	var out []Type
	depth, start := 0, 0
	for i, r := range src {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth > 0 {
				continue
			}
			t, err := ParseType(src[start:i])
			if err != nil {
				return nil, err
			}
			out = append(out, t)
			start = i + 1
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("parsing types %q: unbalanced brackets", src)
	}
	t, err := ParseType(src[start:])
	if err != nil {
		return nil, err
	}
	return append(out, t), nil
}
