package minilux

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"regexp"
)

// Interpreter walks the program tree against one process-wide
// environment. All user storage (variables, functions, sockets) is
// globally addressable; there are no frames and no block-local
// bindings. Execution is sequential, single-threaded, and eager.
type Interpreter struct {
	vars  map[string]Value
	funcs map[string][]Stmt
	socks map[string]net.Conn

	// include stack: current file name and directory for diagnostics
	// and relative include resolution
	files []string
	dirs  []string

	// standard streams; the CLI passes the os ones, tests inject
	// buffers
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	in        *bufio.Reader
	callDepth int
}

// NewInterpreter returns an interpreter with an empty environment
// wired to the process standard streams.
func NewInterpreter() *Interpreter {
	return &Interpreter{
		vars:   map[string]Value{},
		funcs:  map[string][]Stmt{},
		socks:  map[string]net.Conn{},
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Close releases every socket still registered. The CLI defers this so
// OS handles are returned even when a script never calls sockclose.
func (ip *Interpreter) Close() {
	for name, c := range ip.socks {
		c.Close()
		delete(ip.socks, name)
	}
}

// Var reads a global by its sigil-prefixed name; unset reads are Nil.
func (ip *Interpreter) Var(name string) Value {
	if v, ok := ip.vars[name]; ok {
		return v
	}
	return Nil
}

// SetVar stores a global by its sigil-prefixed name.
func (ip *Interpreter) SetVar(name string, v Value) {
	ip.vars[name] = v
}

// RunFile parses and executes the program at path. The returned error
// is fatal (lex, parse, or include failure); runtime trouble only
// prints diagnostics and the script keeps going.
func (ip *Interpreter) RunFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}
	abs := path
	if a, aerr := filepath.Abs(path); aerr == nil {
		abs = a
	}
	stmts, perr := ParseProgram(string(src))
	if perr != nil {
		return WrapErrorWithName(perr, path, string(src))
	}
	ip.pushContext(abs, filepath.Dir(abs))
	defer ip.popContext()
	_, rerr := ip.execBlock(stmts)
	return rerr
}

// RunSource parses and executes source text under the given display
// name (REPL inputs, tests). Relative includes resolve against the
// process working directory.
func (ip *Interpreter) RunSource(src, name string) error {
	stmts, perr := ParseProgram(src)
	if perr != nil {
		return WrapErrorWithName(perr, name, src)
	}
	ip.pushContext(name, "")
	defer ip.popContext()
	_, rerr := ip.execBlock(stmts)
	return rerr
}

func (ip *Interpreter) pushContext(file, dir string) {
	ip.files = append(ip.files, file)
	ip.dirs = append(ip.dirs, dir)
}

func (ip *Interpreter) popContext() {
	if len(ip.files) > 0 {
		ip.files = ip.files[:len(ip.files)-1]
		ip.dirs = ip.dirs[:len(ip.dirs)-1]
	}
}

func (ip *Interpreter) curFile() string {
	if len(ip.files) == 0 {
		return "<source>"
	}
	return ip.files[len(ip.files)-1]
}

func (ip *Interpreter) curDir() string {
	if len(ip.dirs) == 0 {
		return ""
	}
	return ip.dirs[len(ip.dirs)-1]
}

// diag prints a non-fatal runtime diagnostic with the source path and
// line; execution continues at the caller.
func (ip *Interpreter) diag(line int, format string, args ...interface{}) {
	where := ip.curFile()
	if line > 0 {
		fmt.Fprintf(ip.Stderr, "minilux: %s:%d: %s\n", where, line, fmt.Sprintf(format, args...))
	} else {
		fmt.Fprintf(ip.Stderr, "minilux: %s: %s\n", where, fmt.Sprintf(format, args...))
	}
}

// ----- statement execution -----

// execBlock runs statements in order. The bool is the return signal:
// true unwinds enclosing blocks up to the innermost function call.
func (ip *Interpreter) execBlock(stmts []Stmt) (bool, error) {
	for _, s := range stmts {
		ret, err := ip.execStmt(s)
		if err != nil {
			return false, err
		}
		if ret {
			return true, nil
		}
	}
	return false, nil
}

func (ip *Interpreter) execStmt(s Stmt) (bool, error) {
	switch st := s.(type) {
	case *AssignStmt:
		ip.vars[st.Name] = ip.evalExpr(st.Value)

	case *IndexAssignStmt:
		ip.execIndexAssign(st)

	case *IfStmt:
		cond := ip.evalExpr(st.Cond)
		if cond.Truthy() {
			return ip.execBlock(st.Then)
		}
		for _, arm := range st.Elseifs {
			if ip.evalExpr(arm.Cond).Truthy() {
				return ip.execBlock(arm.Body)
			}
		}
		if st.Else != nil {
			return ip.execBlock(st.Else)
		}

	case *WhileStmt:
		for ip.evalExpr(st.Cond).Truthy() {
			ret, err := ip.execBlock(st.Body)
			if err != nil {
				return false, err
			}
			if ret {
				return true, nil
			}
		}

	case *FuncDefStmt:
		ip.funcs[st.Name] = st.Body

	case *ReturnStmt:
		if st.Value != nil {
			ip.evalExpr(st.Value)
		}
		if ip.callDepth == 0 {
			ip.diag(st.Line, "return outside a function has no effect")
			return false, nil
		}
		return true, nil

	case *IncludeStmt:
		return ip.execInclude(st)

	case *CallStmt:
		ip.call(st.Name, st.Args, st.Line)

	case *IncDecStmt:
		cur := ip.Var(st.Name)
		v := ip.evalExpr(st.Value)
		if st.Dec {
			ip.vars[st.Name] = cur.Sub(v)
		} else {
			ip.vars[st.Name] = cur.Add(v)
		}

	case *PushStmt:
		v := ip.evalExpr(st.Value)
		if arr := ip.Var(st.Array); arr.Tag == VTArray {
			xs := arr.Data.([]Value)
			ip.vars[st.Array] = Arr(append(xs[:len(xs):len(xs)], v))
		} else {
			ip.vars[st.Array] = Arr([]Value{v})
		}

	case *UnshiftStmt:
		v := ip.evalExpr(st.Value)
		if arr := ip.Var(st.Array); arr.Tag == VTArray {
			xs := arr.Data.([]Value)
			out := make([]Value, 0, len(xs)+1)
			out = append(out, v)
			out = append(out, xs...)
			ip.vars[st.Array] = Arr(out)
		} else {
			ip.vars[st.Array] = Arr([]Value{v})
		}

	case *PopStmt:
		if arr := ip.Var(st.Array); arr.Tag == VTArray {
			if xs := arr.Data.([]Value); len(xs) > 0 {
				ip.vars[st.Array] = Arr(xs[:len(xs)-1])
			}
		}

	case *ShiftStmt:
		if arr := ip.Var(st.Array); arr.Tag == VTArray {
			if xs := arr.Data.([]Value); len(xs) > 0 {
				ip.vars[st.Array] = Arr(xs[1:])
			}
		}

	case *SockOpenStmt:
		ip.sockOpen(st)
	case *SockWriteStmt:
		ip.sockWrite(st)
	case *SockReadStmt:
		ip.sockRead(st)
	case *SockCloseStmt:
		ip.sockClose(st)
	}
	return false, nil
}

func (ip *Interpreter) execIndexAssign(st *IndexAssignStmt) {
	target := ip.Var(st.Name)
	if target.Tag != VTArray {
		ip.diag(st.Line, "%s does not hold an array", st.Name)
		return
	}
	idx := ip.evalExpr(st.Index).ToInt()
	xs := target.Data.([]Value)
	if idx < 0 || idx >= int64(len(xs)) {
		ip.diag(st.Line, "index %d out of range for %s (len %d)", idx, st.Name, len(xs))
		return
	}
	xs = append([]Value(nil), xs...)
	xs[idx] = ip.evalExpr(st.Value)
	ip.vars[st.Name] = Arr(xs)
}

func (ip *Interpreter) execInclude(st *IncludeStmt) (bool, error) {
	resolved := ip.resolveInclude(st.Path)
	src, err := os.ReadFile(resolved)
	if err != nil {
		return false, fmt.Errorf("cannot include %s: %w", st.Path, err)
	}
	stmts, perr := ParseProgram(string(src))
	if perr != nil {
		return false, WrapErrorWithName(perr, resolved, string(src))
	}
	ip.pushContext(resolved, filepath.Dir(resolved))
	defer ip.popContext()
	return ip.execBlock(stmts)
}

// resolveInclude maps an include path to a file: absolute paths pass
// through, relative ones try the including file's directory first and
// fall back to the process working directory.
func (ip *Interpreter) resolveInclude(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if d := ip.curDir(); d != "" {
		cand := filepath.Join(d, path)
		if _, err := os.Stat(cand); err == nil {
			return cand
		}
	}
	if cwd, err := os.Getwd(); err == nil {
		return filepath.Join(cwd, path)
	}
	return path
}

// call resolves a name used as a statement or call expression: builtin
// first, then user function, else a diagnostic and Nil. User functions
// run in the same global environment; there is no argument binding.
func (ip *Interpreter) call(name string, args []Expr, line int) Value {
	if v, handled := ip.callBuiltin(name, args, line); handled {
		return v
	}
	body, ok := ip.funcs[name]
	if !ok {
		ip.diag(line, "unknown function %q", name)
		return Nil
	}
	ip.callDepth++
	_, err := ip.execBlock(body)
	ip.callDepth--
	if err != nil {
		// An include failure inside a function body ends that call: the
		// error is printed to stderr and the call yields Nil. Unlike a
		// top-level include failure it does not stop the program;
		// execution continues after the call.
		fmt.Fprintln(ip.Stderr, err.Error())
	}
	return Nil
}

// ----- expression evaluation -----

// interpVar matches the interpolation pattern inside double-quoted
// strings: a sigil followed by an identifier.
var interpVar = regexp.MustCompile(`\$[A-Za-z_][A-Za-z0-9_]*`)

// interpolate substitutes each "$name" occurrence with the textual
// rendering of that variable's current value (Nil renders empty). The
// substituted text is not rescanned.
func (ip *Interpreter) interpolate(s string) string {
	return interpVar.ReplaceAllStringFunc(s, func(m string) string {
		return ip.Var(m).Render()
	})
}

func (ip *Interpreter) evalExpr(e Expr) Value {
	switch ex := e.(type) {
	case *IntLit:
		return Int(ex.Value)

	case *StrLit:
		if ex.Interp {
			return Str(ip.interpolate(ex.Value))
		}
		return Str(ex.Value)

	case *ArrayLit:
		xs := make([]Value, 0, len(ex.Elems))
		for _, el := range ex.Elems {
			xs = append(xs, ip.evalExpr(el))
		}
		return Arr(xs)

	case *VarExpr:
		return ip.Var(ex.Name)

	case *IndexExpr:
		return ip.evalIndex(ex)

	case *UnaryExpr:
		v := ip.evalExpr(ex.Operand)
		if ex.Op == BANG {
			return v.Not()
		}
		return v.Negate()

	case *BinaryExpr:
		return ip.evalBinary(ex)

	case *CallExpr:
		return ip.call(ex.Name, ex.Args, ex.Line)
	}
	return Nil
}

func (ip *Interpreter) evalIndex(ex *IndexExpr) Value {
	target := ip.evalExpr(ex.Target)
	idx := ip.evalExpr(ex.Index).ToInt()
	switch target.Tag {
	case VTArray:
		xs := target.Data.([]Value)
		if idx < 0 || idx >= int64(len(xs)) {
			return Nil
		}
		return xs[idx]
	case VTStr:
		// Byte positions, matching len().
		s := target.Data.(string)
		if idx < 0 || idx >= int64(len(s)) {
			return Nil
		}
		return Str(s[idx : idx+1])
	default:
		return Nil
	}
}

func (ip *Interpreter) evalBinary(ex *BinaryExpr) Value {
	// Logical operators short-circuit on the left operand.
	switch ex.Op {
	case AND:
		if !ip.evalExpr(ex.Left).Truthy() {
			return Int(0)
		}
		return boolInt(ip.evalExpr(ex.Right).Truthy())
	case OR:
		if ip.evalExpr(ex.Left).Truthy() {
			return Int(1)
		}
		return boolInt(ip.evalExpr(ex.Right).Truthy())
	}

	l := ip.evalExpr(ex.Left)
	r := ip.evalExpr(ex.Right)

	switch ex.Op {
	case PLUS:
		return l.Add(r)
	case MINUS:
		return l.Sub(r)
	case STAR:
		return l.Mul(r)
	case SLASH:
		if l.Tag == VTInt && r.Tag == VTInt && r.Data.(int64) == 0 {
			ip.diag(ex.Line, "division by zero")
		}
		return l.Div(r)
	case PERCENT:
		if l.Tag == VTInt && r.Tag == VTInt && r.Data.(int64) == 0 {
			ip.diag(ex.Line, "modulo by zero")
		}
		return l.Mod(r)
	case EQ:
		return boolInt(l.Equals(r))
	case NEQ:
		return boolInt(!l.Equals(r))
	case LESS:
		if c, ok := l.Compare(r); ok {
			return boolInt(c < 0)
		}
		return Nil
	case LESS_EQ:
		if c, ok := l.Compare(r); ok {
			return boolInt(c <= 0)
		}
		return Nil
	case GREATER:
		if c, ok := l.Compare(r); ok {
			return boolInt(c > 0)
		}
		return Nil
	case GREATER_EQ:
		if c, ok := l.Compare(r); ok {
			return boolInt(c >= 0)
		}
		return Nil
	}
	return Nil
}
