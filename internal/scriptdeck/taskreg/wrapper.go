package taskreg

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"text/template"

	"scriptdeck/internal/scriptdeck/runner"
	"scriptdeck/internal/scriptdeck/schedule"
)

// WrapperTimeout is the hard ceiling the wrapper enforces on the child, in
// seconds. One hour, matching the documented scheduled-run limit.
const WrapperTimeout = 3600

// Generator emits the self-contained launcher the OS scheduler invokes. The
// wrapper bakes every value in as a literal at generation time: it must run
// long after this process has exited or been upgraded.
type Generator struct {
	goos string
	dir  string
}

// NewGenerator creates a Generator writing into dir
func NewGenerator(dir string) *Generator {
	return &Generator{goos: runtime.GOOS, dir: dir}
}

// Path returns the wrapper artifact location for a script name
func (g *Generator) Path(scriptName string) string {
	return filepath.Join(g.dir, "wrapper_"+schedule.SafeName(scriptName)+g.ext())
}

func (g *Generator) ext() string {
	if g.goos == "windows" {
		return ".ps1"
	}
	return ".sh"
}

// Generate writes the wrapper for a script, overwriting any previous one,
// and returns its path. Scheduled runs log into logsDir, the same location
// interactive runs use. Regeneration is unconditional; there is no
// already-exists check.
func (g *Generator) Generate(scriptName, scriptPath, workingDir, logsDir string) (string, error) {
	argv, err := runner.CommandLine(g.goos, scriptPath, nil)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(g.dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create wrappers directory: %w", err)
	}

	data := wrapperData{
		ScriptName: scriptName,
		SafeName:   schedule.SafeName(scriptName),
		ScriptPath: scriptPath,
		WorkingDir: workingDir,
		LogsDir:    logsDir,
		TimeoutSec: WrapperTimeout,
		TimeoutMs:  WrapperTimeout * 1000,
	}

	var tmpl *template.Template
	if g.goos == "windows" {
		data.Exe = argv[0]
		data.ArgList = psArgumentList(argv[1:])
		tmpl = psWrapperTemplate
	} else {
		data.CommandLine = shCommandLine(argv)
		tmpl = shWrapperTemplate
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render wrapper: %w", err)
	}

	path := g.Path(scriptName)
	if err := os.WriteFile(path, []byte(sb.String()), 0700); err != nil { //nolint:gosec // G306: the wrapper must be executable
		return "", fmt.Errorf("failed to write wrapper: %w", err)
	}
	return path, nil
}

// Delete removes the wrapper artifact; a missing file is not an error
func (g *Generator) Delete(scriptName string) error {
	err := os.Remove(g.Path(scriptName))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete wrapper: %w", err)
	}
	return nil
}

type wrapperData struct {
	ScriptName  string
	SafeName    string
	ScriptPath  string
	WorkingDir  string
	LogsDir     string
	Exe         string
	ArgList     string
	CommandLine string
	TimeoutSec  int
	TimeoutMs   int
}

func psArgumentList(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = "'" + strings.ReplaceAll(a, "'", "''") + "'"
	}
	return strings.Join(quoted, ",")
}

func shCommandLine(argv []string) string {
	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
	}
	return strings.Join(quoted, " ")
}

var psWrapperTemplate = template.Must(template.New("ps1").Parse(`# Wrapper di esecuzione schedulata
# Script: {{.ScriptName}}
# Generato automaticamente da scriptdeck; rigenerato ad ogni registrazione.

$ErrorActionPreference = 'Continue'
$scriptPath = '{{.ScriptPath}}'
$workingDir = '{{.WorkingDir}}'
$logsDir = '{{.LogsDir}}'
New-Item -ItemType Directory -Force -Path $logsDir | Out-Null
$stamp = Get-Date -Format 'yyyyMMdd_HHmmss'
$logFile = Join-Path $logsDir ('scheduled_{{.SafeName}}_' + $stamp + '.log')

"=== Esecuzione Schedulata: {{.ScriptName}} ===" | Out-File $logFile -Encoding utf8
"Data/Ora: $(Get-Date -Format 'yyyy-MM-dd HH:mm:ss')" | Out-File $logFile -Append -Encoding utf8
"Script: $scriptPath" | Out-File $logFile -Append -Encoding utf8
('=' * 60) | Out-File $logFile -Append -Encoding utf8

try {
    $proc = Start-Process -FilePath '{{.Exe}}'{{if .ArgList}} -ArgumentList {{.ArgList}}{{end}} -WorkingDirectory $workingDir -WindowStyle Hidden -PassThru -RedirectStandardOutput "$logFile.out" -RedirectStandardError "$logFile.err"
    if (-not $proc.WaitForExit({{.TimeoutMs}})) {
        $proc.Kill()
        "ERRORE: timeout (1 ora)" | Out-File $logFile -Append -Encoding utf8
        exit 1
    }
    Get-Content "$logFile.out" -ErrorAction SilentlyContinue | Out-File $logFile -Append -Encoding utf8
    Get-Content "$logFile.err" -ErrorAction SilentlyContinue | ForEach-Object { "[ERRORE] $_" } | Out-File $logFile -Append -Encoding utf8
    Remove-Item "$logFile.out", "$logFile.err" -ErrorAction SilentlyContinue
    ('=' * 60) | Out-File $logFile -Append -Encoding utf8
    if ($proc.ExitCode -eq 0) {
        "Completato con successo (exit code: 0)" | Out-File $logFile -Append -Encoding utf8
    } else {
        "Errore (exit code: $($proc.ExitCode))" | Out-File $logFile -Append -Encoding utf8
    }
    exit $proc.ExitCode
} catch {
    "ERRORE: $_" | Out-File $logFile -Append -Encoding utf8
    exit 1
}
`))

var shWrapperTemplate = template.Must(template.New("sh").Parse(`#!/bin/sh
# Wrapper di esecuzione schedulata
# Script: {{.ScriptName}}
# Generato automaticamente da scriptdeck; rigenerato ad ogni registrazione.

SCRIPT='{{.ScriptPath}}'
WORKDIR='{{.WorkingDir}}'
LOGDIR='{{.LogsDir}}'
mkdir -p "$LOGDIR"
STAMP=$(date +%Y%m%d_%H%M%S)
LOG="$LOGDIR/scheduled_{{.SafeName}}_$STAMP.log"

{
    echo "=== Esecuzione Schedulata: {{.ScriptName}} ==="
    echo "Data/Ora: $(date '+%Y-%m-%d %H:%M:%S')"
    echo "Script: $SCRIPT"
    echo "============================================================"
} > "$LOG"

cd "$WORKDIR" || exit 1
timeout {{.TimeoutSec}} {{.CommandLine}} >> "$LOG" 2>&1
STATUS=$?

{
    echo "============================================================"
    if [ "$STATUS" -eq 124 ]; then
        echo "ERRORE: timeout (1 ora)"
        STATUS=1
    elif [ "$STATUS" -eq 0 ]; then
        echo "Completato con successo (exit code: 0)"
    else
        echo "Errore (exit code: $STATUS)"
    fi
} >> "$LOG"
exit $STATUS
`))
