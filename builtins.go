// builtins.go: the core builtin operations: output, input, string and
// number helpers. Subprocess, file, and socket builtins live in their
// own files.
package minilux

import (
	"bufio"
	"strconv"
	"strings"
)

// callBuiltin dispatches a call by name. The bool reports whether the
// name was a builtin at all; false sends the caller on to the user
// function table.
func (ip *Interpreter) callBuiltin(name string, args []Expr, line int) (Value, bool) {
	switch name {
	case "printf", "print":
		return ip.biPrintf(args), true
	case "read":
		return ip.biRead(args, line), true
	case "len", "strlen":
		return ip.biLen(args), true
	case "number":
		return ip.biNumber(args), true
	case "lower":
		return ip.biCaseFold(args, false), true
	case "upper":
		return ip.biCaseFold(args, true), true
	case "shell":
		return ip.biShell(args, line), true
	case "sleep":
		return ip.biSleep(args), true
	case "fread":
		return ip.biFread(args, line), true
	case "fwrite":
		return ip.biFwrite(args, line), true
	}
	return Nil, false
}

// arg evaluates the i-th argument, Nil when absent.
func (ip *Interpreter) arg(args []Expr, i int) Value {
	if i >= len(args) {
		return Nil
	}
	return ip.evalExpr(args[i])
}

// biPrintf concatenates the textual renderings of all arguments and
// writes them to stdout, appending a newline unless the output already
// ends in one.
func (ip *Interpreter) biPrintf(args []Expr) Value {
	var b strings.Builder
	for _, a := range args {
		b.WriteString(ip.evalExpr(a).Render())
	}
	out := b.String()
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	ip.Stdout.Write([]byte(out))
	return Nil
}

// biRead reads one line from stdin into the given variable, stripping
// the trailing newline (and carriage return). EOF stores the empty
// string.
func (ip *Interpreter) biRead(args []Expr, line int) Value {
	if len(args) != 1 {
		ip.diag(line, "read expects one variable")
		return Nil
	}
	v, ok := args[0].(*VarExpr)
	if !ok {
		ip.diag(line, "read expects a variable to store into")
		return Nil
	}
	if ip.in == nil {
		ip.in = bufio.NewReader(ip.Stdin)
	}
	text, _ := ip.in.ReadString('\n')
	text = strings.TrimSuffix(text, "\n")
	text = strings.TrimSuffix(text, "\r")
	ip.vars[v.Name] = Str(text)
	return Nil
}

// biLen returns the byte length of a Str or the element count of an
// Array; anything else is Nil.
func (ip *Interpreter) biLen(args []Expr) Value {
	v := ip.arg(args, 0)
	switch v.Tag {
	case VTStr:
		return Int(int64(len(v.Data.(string))))
	case VTArray:
		return Int(int64(len(v.Data.([]Value))))
	default:
		return Nil
	}
}

// biNumber parses a Str as a signed decimal integer (0 on failure);
// Int passes through; everything else is 0.
func (ip *Interpreter) biNumber(args []Expr) Value {
	v := ip.arg(args, 0)
	switch v.Tag {
	case VTInt:
		return v
	case VTStr:
		n, err := strconv.ParseInt(strings.TrimSpace(v.Data.(string)), 10, 64)
		if err != nil {
			return Int(0)
		}
		return Int(n)
	default:
		return Int(0)
	}
}

// biCaseFold is lower/upper: an ASCII case fold of a Str operand.
// Other tags yield Nil.
func (ip *Interpreter) biCaseFold(args []Expr, up bool) Value {
	v := ip.arg(args, 0)
	if v.Tag != VTStr {
		return Nil
	}
	s := []byte(v.Data.(string))
	for i, c := range s {
		if up {
			if c >= 'a' && c <= 'z' {
				s[i] = c - ('a' - 'A')
			}
		} else {
			if c >= 'A' && c <= 'Z' {
				s[i] = c + ('a' - 'A')
			}
		}
	}
	return Str(string(s))
}
