package blendscript

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"unicode/utf8"

	"mcexport/internal/pipeline"
)

// ScriptName is the driver file written into each job directory.
const ScriptName = "process.py"

// VerifiedMarker is printed by the smoke test once every check passed.
const VerifiedMarker = "Addon loaded and verified successfully"

var scripts = template.Must(template.New("scripts").Funcs(template.FuncMap{
	"py":     PyString,
	"pybool": pyBool,
}).Parse(`{{define "process"}}` + processTemplate + `{{end}}{{define "verify"}}` + verifyTemplate + `{{end}}`))

// ProcessParams configures the per-job driver script.
type ProcessParams struct {
	AddonModule string
	// AddonPath is the archive installed when the module is not enabled yet.
	// Empty means the add-on must already be installed.
	AddonPath string
	// BlendPath is the working copy Blender opens; it names the layout.
	BlendPath string
	// SavePath is where the processed file is saved. Defaults to BlendPath.
	SavePath string
	Settings pipeline.Settings
}

type processData struct {
	ProcessParams
	Namespace      string
	SetupOperator  string
	RenderOperator string
	BaseOutputDir  string
}

// Process renders the driver script for one job.
func Process(params ProcessParams) (string, error) {
	if err := validateModule(params.AddonModule); err != nil {
		return "", err
	}
	if strings.TrimSpace(params.BlendPath) == "" {
		return "", errors.New("blend path is required")
	}
	if err := params.Settings.Validate(); err != nil {
		return "", err
	}
	if params.SavePath == "" {
		params.SavePath = params.BlendPath
	}
	layout := pipeline.NewLayout(params.Settings, params.BlendPath)
	data := processData{
		ProcessParams:  params,
		Namespace:      pipeline.OperatorNamespace,
		SetupOperator:  pipeline.OpSetupPipeline,
		RenderOperator: params.Settings.Target.Operator(),
		BaseOutputDir:  layout.OutputDir,
	}
	return execute("process", data)
}

// VerifyParams configures the add-on smoke test.
type VerifyParams struct {
	AddonModule string
	// AddonPath is used when no path follows "--" on the Blender command line.
	AddonPath string
}

type verifyData struct {
	VerifyParams
	Namespace string
	Operators []string
	Marker    string
}

// Verify renders the smoke-test script.
func Verify(params VerifyParams) (string, error) {
	if err := validateModule(params.AddonModule); err != nil {
		return "", err
	}
	return execute("verify", verifyData{
		VerifyParams: params,
		Namespace:    pipeline.OperatorNamespace,
		Operators:    pipeline.Operators(),
		Marker:       VerifiedMarker,
	})
}

func execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := scripts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s script: %w", name, err)
	}
	return buf.String(), nil
}

func validateModule(module string) error {
	if module == "" {
		return errors.New("add-on module name is required")
	}
	for i, r := range module {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return fmt.Errorf("add-on module %q is not a Python identifier", module)
		}
	}
	return nil
}

// PyString quotes s as a Python 3 string literal. Invalid UTF-8 bytes are
// replaced rather than emitted as escapes Python would decode differently.
func PyString(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "�")
	}
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			switch {
			case r < 0x20 || r == 0x7f:
				fmt.Fprintf(&b, `\x%02x`, r)
			case r == 0x2028 || r == 0x2029:
				fmt.Fprintf(&b, `\u%04x`, r)
			default:
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

func pyBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}
