package diagnostic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hashicorp/go-multierror"

	"struct-mapper/internal/common"
)

// Codes of the diagnostics a plan build reports.
const (
	CodeUnmapped      = "unmapped"      // target member without a source
	CodeRequired      = "required"      // required target member without a source
	CodeLossy         = "lossy"         // conversion may lose precision
	CodeAmbiguous     = "ambiguous"     // several sources matched equally well
	CodeIgnored       = "ignored"       // member skipped by a rule
	CodeCycle         = "cycle"         // type pair compiled as a recursive procedure
	CodeUnconvertible = "unconvertible" // no conversion between member types
)

var ErrDiagnostics = errors.New("mapping diagnostics")

type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}

	return common.UnknownStr
}

// Level is the slog level a diagnostic of this severity is logged at. Infos
// are build details and go to debug.
func (s Severity) Level() slog.Level {
	if level, ok := severityLevels[s]; ok {
		return level
	}

	return slog.LevelDebug
}

var (
	severityNames = map[Severity]string{
		SeverityInfo:    "info",
		SeverityWarning: "warning",
		SeverityError:   "error",
	}
	severityLevels = map[Severity]slog.Level{
		SeverityWarning: slog.LevelWarn,
		SeverityError:   slog.LevelError,
	}
)

// Diagnostic is one finding about a type pair or one of its members.
type Diagnostic struct {
	Severity    Severity
	Code        string
	Message     string
	Pair        string   // "store.Order -> warehouse.Order", if any
	Member      string   // target member path, if any
	Suggestions []string // source members the target member may have meant
}

func (d Diagnostic) String() string {
	var where []string
	if d.Pair != "" {
		where = append(where, "["+d.Pair+"]")
	}

	if d.Member != "" {
		where = append(where, d.Member)
	}

	msg := d.Message
	if d.Code != "" {
		msg = "[" + d.Code + "] " + msg
	}

	if len(d.Suggestions) > 0 {
		msg += " (did you mean " + strings.Join(d.Suggestions, ", ") + "?)"
	}

	if len(where) == 0 {
		return msg
	}

	return strings.Join(where, " ") + ": " + msg
}

// Diagnostics collects the findings of one plan build, grouped by severity.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
}

func (d *Diagnostics) Add(diag Diagnostic) {
	switch diag.Severity {
	case SeverityError:
		d.Errors = append(d.Errors, diag)
	case SeverityWarning:
		d.Warnings = append(d.Warnings, diag)
	default:
		d.Infos = append(d.Infos, diag)
	}
}

func (d *Diagnostics) AddError(code, message, pair, member string, suggestions ...string) {
	d.Add(Diagnostic{SeverityError, code, message, pair, member, suggestions})
}

func (d *Diagnostics) AddWarning(code, message, pair, member string, suggestions ...string) {
	d.Add(Diagnostic{SeverityWarning, code, message, pair, member, suggestions})
}

func (d *Diagnostics) AddInfo(code, message, pair, member string) {
	d.Add(Diagnostic{SeverityInfo, code, message, pair, member, nil})
}

func (d *Diagnostics) HasErrors() bool { return len(d.Errors) > 0 }

// All lists errors first, then warnings, then infos.
func (d *Diagnostics) All() []Diagnostic {
	var all []Diagnostic
	for _, group := range [][]Diagnostic{d.Errors, d.Warnings, d.Infos} {
		all = append(all, group...)
	}

	return all
}

// Error combines the error diagnostics; it is nil when there are none.
func (d *Diagnostics) Error() error {
	var merr *multierror.Error
	for _, diag := range d.Errors {
		merr = multierror.Append(merr, fmt.Errorf("%w: %s", ErrDiagnostics, diag))
	}

	return merr.ErrorOrNil()
}

func (d *Diagnostics) Log(ctx context.Context, logger *slog.Logger) {
	for _, diag := range d.All() {
		level := diag.Severity.Level()
		if !logger.Enabled(ctx, level) {
			continue
		}

		attrs := []slog.Attr{slog.String("code", diag.Code)}
		if diag.Pair != "" {
			attrs = append(attrs, slog.String("pair", diag.Pair))
		}

		if diag.Member != "" {
			attrs = append(attrs, slog.String("member", diag.Member))
		}

		if len(diag.Suggestions) > 0 {
			attrs = append(attrs, slog.Any("suggestions", diag.Suggestions))
		}

		logger.LogAttrs(ctx, level, diag.Message, attrs...)
	}
}
