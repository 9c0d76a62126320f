package classfile

// sigParser is the recursive-descent core shared by the descriptor and the
// generic signature grammars. generic enables type variables, type
// arguments, nested class segments, type parameters and throws clauses.
type sigParser struct {
	s       string
	pos     int
	generic bool
}

func (p *sigParser) fail() error {
	end := p.pos + 16
	if end > len(p.s) {
		end = len(p.s)
	}
	start := p.pos
	if start > len(p.s) {
		start = len(p.s)
	}
	return &SyntaxError{Input: p.s, Offset: p.pos, Near: p.s[start:end]}
}

func (p *sigParser) peek() byte {
	if p.pos >= len(p.s) {
		return 0
	}
	return p.s[p.pos]
}

func (p *sigParser) expect(c byte) error {
	if p.peek() != c {
		return p.fail()
	}
	p.pos++
	return nil
}

func (p *sigParser) done() error {
	if p.pos != len(p.s) {
		return p.fail()
	}
	return nil
}

// identifier reads up to (not including) one of the stop bytes.
func (p *sigParser) identifier(stops string) (string, error) {
	start := p.pos
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == '[' || c == ';' || c == '<' || c == '>' || c == '.' || c == ':' {
			break
		}
		p.pos++
	}
	if p.pos == start || p.pos >= len(p.s) {
		return "", p.fail()
	}
	for i := 0; i < len(stops); i++ {
		if p.s[p.pos] == stops[i] {
			return p.s[start:p.pos], nil
		}
	}
	return "", p.fail()
}

func (p *sigParser) fieldType() (Type, error) {
	dims := 0
	for p.peek() == '[' {
		dims++
		p.pos++
	}
	var t Type
	switch c := p.peek(); c {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		t = BaseType(c)
		p.pos++
	case 'L':
		ct, err := p.classType()
		if err != nil {
			return nil, err
		}
		t = ct
	case 'T':
		if !p.generic {
			return nil, p.fail()
		}
		tv, err := p.typeVariable()
		if err != nil {
			return nil, err
		}
		t = tv
	default:
		return nil, p.fail()
	}
	if dims > 0 {
		t = &ArrayType{Dims: dims, Elem: t}
	}
	return t, nil
}

func (p *sigParser) referenceType() (Type, error) {
	start := p.pos
	t, err := p.fieldType()
	if err != nil {
		return nil, err
	}
	if _, ok := t.(BaseType); ok {
		p.pos = start
		return nil, p.fail()
	}
	return t, nil
}

func (p *sigParser) classType() (*ClassType, error) {
	if err := p.expect('L'); err != nil {
		return nil, err
	}
	stops := ";"
	if p.generic {
		stops = ";<."
	}
	var ct *ClassType
	for {
		name, err := p.identifier(stops)
		if err != nil {
			return nil, err
		}
		seg := &ClassType{Name: name, Outer: ct}
		if p.generic && p.peek() == '<' {
			args, err := p.typeArguments()
			if err != nil {
				return nil, err
			}
			seg.TypeArgs = args
		}
		ct = seg
		if p.generic && p.peek() == '.' {
			p.pos++
			continue
		}
		break
	}
	if err := p.expect(';'); err != nil {
		return nil, err
	}
	return ct, nil
}

func (p *sigParser) typeArguments() ([]TypeArgument, error) {
	if err := p.expect('<'); err != nil {
		return nil, err
	}
	var args []TypeArgument
	for p.peek() != '>' {
		var arg TypeArgument
		switch p.peek() {
		case 0:
			return nil, p.fail()
		case '*':
			p.pos++
			arg.Wildcard = WildcardUnbounded
			args = append(args, arg)
			continue
		case '+':
			p.pos++
			arg.Wildcard = WildcardExtends
		case '-':
			p.pos++
			arg.Wildcard = WildcardSuper
		}
		t, err := p.referenceType()
		if err != nil {
			return nil, err
		}
		arg.Type = t
		args = append(args, arg)
	}
	if len(args) == 0 {
		return nil, p.fail()
	}
	p.pos++
	return args, nil
}

func (p *sigParser) typeVariable() (*TypeVariable, error) {
	if err := p.expect('T'); err != nil {
		return nil, err
	}
	name, err := p.identifier(";")
	if err != nil {
		return nil, err
	}
	p.pos++
	return &TypeVariable{Name: name}, nil
}

func (p *sigParser) typeParameters() ([]TypeParameter, error) {
	if p.peek() != '<' {
		return nil, nil
	}
	p.pos++
	var params []TypeParameter
	for p.peek() != '>' {
		name, err := p.identifier(":")
		if err != nil {
			return nil, err
		}
		p.pos++
		tp := TypeParameter{Name: name}
		if c := p.peek(); c == 'L' || c == 'T' || c == '[' {
			if tp.ClassBound, err = p.referenceType(); err != nil {
				return nil, err
			}
		}
		for p.peek() == ':' {
			p.pos++
			b, err := p.referenceType()
			if err != nil {
				return nil, err
			}
			tp.InterfaceBounds = append(tp.InterfaceBounds, b)
		}
		params = append(params, tp)
	}
	if len(params) == 0 {
		return nil, p.fail()
	}
	p.pos++
	return params, nil
}

func (p *sigParser) methodType() (*MethodType, error) {
	mt := &MethodType{}
	if p.generic {
		tps, err := p.typeParameters()
		if err != nil {
			return nil, err
		}
		mt.TypeParams = tps
	}
	if err := p.expect('('); err != nil {
		return nil, err
	}
	for p.peek() != ')' {
		t, err := p.fieldType()
		if err != nil {
			return nil, err
		}
		mt.Params = append(mt.Params, t)
		mt.ParamCount++
		if b, ok := t.(BaseType); ok {
			mt.ParamSlots += b.Slots()
		} else {
			mt.ParamSlots++
		}
	}
	p.pos++
	if p.peek() == 'V' {
		p.pos++
		mt.Return = Void
	} else {
		t, err := p.fieldType()
		if err != nil {
			return nil, err
		}
		mt.Return = t
	}
	for p.generic && p.peek() == '^' {
		p.pos++
		var t Type
		var err error
		if p.peek() == 'T' {
			t, err = p.typeVariable()
		} else {
			t, err = p.classType()
		}
		if err != nil {
			return nil, err
		}
		mt.Throws = append(mt.Throws, t)
	}
	if err := p.done(); err != nil {
		return nil, err
	}
	return mt, nil
}

// ParseFieldDescriptor parses a field descriptor such as "[Ljava/lang/String;".
func ParseFieldDescriptor(desc string) (Type, error) {
	p := &sigParser{s: desc}
	t, err := p.fieldType()
	if err != nil {
		return nil, err
	}
	if err := p.done(); err != nil {
		return nil, err
	}
	return t, nil
}

// ParseMethodDescriptor parses a method descriptor such as "(IJ)V".
func ParseMethodDescriptor(desc string) (*MethodType, error) {
	p := &sigParser{s: desc}
	return p.methodType()
}

// ParseFieldSignature parses the Signature attribute of a field or record
// component.
func ParseFieldSignature(sig string) (Type, error) {
	p := &sigParser{s: sig, generic: true}
	t, err := p.referenceType()
	if err != nil {
		return nil, err
	}
	if err := p.done(); err != nil {
		return nil, err
	}
	return t, nil
}

// ParseMethodSignature parses the Signature attribute of a method.
func ParseMethodSignature(sig string) (*MethodType, error) {
	p := &sigParser{s: sig, generic: true}
	return p.methodType()
}

// ParseClassSignature parses the Signature attribute of a class.
func ParseClassSignature(sig string) (*ClassSignature, error) {
	p := &sigParser{s: sig, generic: true}
	tps, err := p.typeParameters()
	if err != nil {
		return nil, err
	}
	cs := &ClassSignature{TypeParams: tps}
	if cs.Super, err = p.classType(); err != nil {
		return nil, err
	}
	for p.pos < len(p.s) {
		iface, err := p.classType()
		if err != nil {
			return nil, err
		}
		cs.Interfaces = append(cs.Interfaces, iface)
	}
	return cs, nil
}
