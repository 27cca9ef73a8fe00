// builtin_file.go: whole-file read and write builtins.
package minilux

import "os"

// biFread returns the file's contents as a Str, or an empty Str (plus
// a diagnostic) when the file cannot be read.
func (ip *Interpreter) biFread(args []Expr, line int) Value {
	path := ip.arg(args, 0).Render()
	data, err := os.ReadFile(path)
	if err != nil {
		ip.diag(line, "fread: %v", err)
		return Str("")
	}
	return Str(string(data))
}

// biFwrite writes the rendered data to the file, truncating or
// creating it. Returns 1 on success, 0 on failure.
func (ip *Interpreter) biFwrite(args []Expr, line int) Value {
	if len(args) < 2 {
		ip.diag(line, "fwrite expects a path and data")
		return Int(0)
	}
	path := ip.arg(args, 0).Render()
	data := ip.arg(args, 1).Render()
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		ip.diag(line, "fwrite: %v", err)
		return Int(0)
	}
	return Int(1)
}
