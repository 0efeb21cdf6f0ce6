package runner

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Interpreter maps a script type to the executable that runs it. Direct
// entries (empty Command) are launched as-is.
type Interpreter struct {
	Command string
	Args    []string
}

// ErrUnsupportedType is returned when a script extension has no interpreter
type ErrUnsupportedType struct {
	Ext string
}

func (e *ErrUnsupportedType) Error() string {
	return fmt.Sprintf("unsupported script type %q", e.Ext)
}

// Table returns the closed interpreter dispatch table for the given GOOS.
// Anything not in the table is rejected before a process is spawned.
func Table(goos string) map[string]Interpreter {
	if goos == "windows" {
		return map[string]Interpreter{
			".ps1": {Command: "powershell", Args: []string{"-ExecutionPolicy", "Bypass", "-NoProfile", "-File"}},
			".py":  {Command: "python", Args: nil},
			".bat": {Command: "cmd", Args: []string{"/c"}},
			".cmd": {Command: "cmd", Args: []string{"/c"}},
			".exe": {},
		}
	}
	return map[string]Interpreter{
		".ps1": {Command: "pwsh", Args: []string{"-NoProfile", "-File"}},
		".py":  {Command: "python3", Args: nil},
		".sh":  {Command: "/bin/sh", Args: nil},
	}
}

// CommandLine resolves the full argv for a script invocation, or an
// *ErrUnsupportedType when the extension has no interpreter.
func CommandLine(goos, scriptPath string, params []string) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(scriptPath))
	interp, ok := Table(goos)[ext]
	if !ok {
		return nil, &ErrUnsupportedType{Ext: ext}
	}

	argv := make([]string, 0, len(interp.Args)+len(params)+2)
	if interp.Command != "" {
		argv = append(argv, interp.Command)
		argv = append(argv, interp.Args...)
	}
	argv = append(argv, scriptPath)
	argv = append(argv, params...)
	return argv, nil
}
