package gdb

import (
	"fmt"
	"strconv"
	"strings"
)

// RecordKind classifies one line of GDB/MI output.
type RecordKind int

const (
	// TargetOutput is any line that is not an MI record, usually inferior
	// output when no separate terminal is in use.
	TargetOutput RecordKind = iota
	ResultRecord
	ExecAsync
	StatusAsync
	NotifyAsync
	ConsoleStream
	TargetStream
	LogStream
	PromptRecord
)

func (k RecordKind) String() string {
	switch k {
	case TargetOutput:
		return "target-output"
	case ResultRecord:
		return "result"
	case ExecAsync:
		return "exec-async"
	case StatusAsync:
		return "status-async"
	case NotifyAsync:
		return "notify-async"
	case ConsoleStream:
		return "console-stream"
	case TargetStream:
		return "target-stream"
	case LogStream:
		return "log-stream"
	case PromptRecord:
		return "prompt"
	default:
		return "unknown"
	}
}

// Tuple is an MI result tuple. List values are []any; scalar values are
// strings.
type Tuple map[string]any

// String returns the named scalar, or "".
func (t Tuple) String(name string) string {
	s, _ := t[name].(string)
	return s
}

// Strings returns the named list of scalars.
func (t Tuple) Strings(name string) []string {
	list, _ := t[name].([]any)
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Record is one parsed line of MI output.
type Record struct {
	Kind RecordKind

	// Token is the numeric prefix echoed from the command, or -1.
	Token int

	// Class is the result or async class, e.g. "done" or "stopped".
	Class string

	Results Tuple

	// Stream holds the decoded text of stream records and target output.
	Stream string
}

// ParseRecord parses one line of MI output, without its line terminator.
func ParseRecord(line string) (Record, error) {
	line = strings.TrimRight(line, "\r\n")
	rec := Record{Token: -1}

	if strings.TrimSpace(line) == "(gdb)" {
		rec.Kind = PromptRecord
		return rec, nil
	}

	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 {
		token, err := strconv.Atoi(line[:i])
		if err != nil {
			return Record{}, fmt.Errorf("invalid token in %q: %w", line, err)
		}
		rec.Token = token
	}

	if i >= len(line) {
		return Record{Kind: TargetOutput, Token: -1, Stream: line}, nil
	}

	switch line[i] {
	case '^':
		rec.Kind = ResultRecord
	case '*':
		rec.Kind = ExecAsync
	case '+':
		rec.Kind = StatusAsync
	case '=':
		rec.Kind = NotifyAsync
	case '~', '@', '&':
		if rec.Token >= 0 {
			return Record{Kind: TargetOutput, Token: -1, Stream: line}, nil
		}
		p := &parser{s: line, pos: i + 1}
		text, err := p.cstring()
		if err != nil {
			return Record{Kind: TargetOutput, Token: -1, Stream: line}, nil
		}
		rec.Stream = text
		switch line[i] {
		case '~':
			rec.Kind = ConsoleStream
		case '@':
			rec.Kind = TargetStream
		default:
			rec.Kind = LogStream
		}
		return rec, nil
	default:
		return Record{Kind: TargetOutput, Token: -1, Stream: line}, nil
	}

	p := &parser{s: line, pos: i + 1}
	rec.Class = p.class()
	results, err := p.results()
	if err != nil {
		return Record{}, fmt.Errorf("malformed record %q: %w", line, err)
	}
	rec.Results = results
	return rec, nil
}

type parser struct {
	s   string
	pos int
}

func (p *parser) peek() byte {
	if p.pos >= len(p.s) {
		return 0
	}
	return p.s[p.pos]
}

func (p *parser) class() string {
	start := p.pos
	for p.pos < len(p.s) && p.s[p.pos] != ',' {
		p.pos++
	}
	return p.s[start:p.pos]
}

func (p *parser) results() (Tuple, error) {
	results := Tuple{}
	for p.peek() == ',' {
		p.pos++
		name, value, err := p.result()
		if err != nil {
			return nil, err
		}
		results[name] = value
	}
	if p.pos != len(p.s) {
		return nil, fmt.Errorf("unexpected %q at offset %d", p.s[p.pos:], p.pos)
	}
	return results, nil
}

func (p *parser) result() (string, any, error) {
	start := p.pos
	for p.pos < len(p.s) && p.s[p.pos] != '=' {
		p.pos++
	}
	if p.pos >= len(p.s) {
		return "", nil, fmt.Errorf("missing '=' after %q", p.s[start:])
	}
	name := p.s[start:p.pos]
	p.pos++

	value, err := p.value()
	return name, value, err
}

func (p *parser) value() (any, error) {
	switch p.peek() {
	case '"':
		return p.cstring()
	case '{':
		return p.tuple()
	case '[':
		return p.list()
	default:
		return nil, fmt.Errorf("unexpected value at offset %d", p.pos)
	}
}

func (p *parser) tuple() (Tuple, error) {
	p.pos++
	t := Tuple{}
	if p.peek() == '}' {
		p.pos++
		return t, nil
	}
	for {
		name, value, err := p.result()
		if err != nil {
			return nil, err
		}
		t[name] = value

		switch p.peek() {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return t, nil
		default:
			return nil, fmt.Errorf("unterminated tuple at offset %d", p.pos)
		}
	}
}

// list parses both value lists and result lists; each element of a result
// list becomes a single-entry Tuple.
func (p *parser) list() ([]any, error) {
	p.pos++
	items := []any{}
	if p.peek() == ']' {
		p.pos++
		return items, nil
	}
	for {
		var item any
		var err error
		switch p.peek() {
		case '"', '{', '[':
			item, err = p.value()
		default:
			var name string
			var value any
			name, value, err = p.result()
			item = Tuple{name: value}
		}
		if err != nil {
			return nil, err
		}
		items = append(items, item)

		switch p.peek() {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return items, nil
		default:
			return nil, fmt.Errorf("unterminated list at offset %d", p.pos)
		}
	}
}

func (p *parser) cstring() (string, error) {
	if p.peek() != '"' {
		return "", fmt.Errorf("expected string at offset %d", p.pos)
	}
	p.pos++

	var b strings.Builder
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		p.pos++
		switch c {
		case '"':
			return b.String(), nil
		case '\\':
			if p.pos >= len(p.s) {
				return "", fmt.Errorf("dangling escape")
			}
			e := p.s[p.pos]
			p.pos++
			switch e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case 'f':
				b.WriteByte('\f')
			case 'b':
				b.WriteByte('\b')
			case 'a':
				b.WriteByte('\a')
			case 'v':
				b.WriteByte('\v')
			case 'e':
				b.WriteByte(0x1b)
			case '0', '1', '2', '3', '4', '5', '6', '7':
				n := int(e - '0')
				for k := 0; k < 2 && p.pos < len(p.s) && p.s[p.pos] >= '0' && p.s[p.pos] <= '7'; k++ {
					n = n*8 + int(p.s[p.pos]-'0')
					p.pos++
				}
				b.WriteByte(byte(n))
			default:
				b.WriteByte(e)
			}
		default:
			b.WriteByte(c)
		}
	}
	return "", fmt.Errorf("unterminated string")
}

// Quote encodes s as an MI C string.
func Quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
