package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/osteele/liquid"
	"go.uber.org/zap"

	"recon/pkg/engine"
	"recon/pkg/schema"
)

// ScriptKind selects the remediation script template.
type ScriptKind string

const (
	ScriptMassDisable ScriptKind = "MASS_DISABLE"
	ScriptReport      ScriptKind = "REPORT"
	ScriptGeneric     ScriptKind = "GENERIC"
)

// ParseScriptKind maps user input onto a kind. Unknown names render the
// generic script.
func ParseScriptKind(s string) ScriptKind {
	switch k := ScriptKind(strings.ToUpper(strings.TrimSpace(s))); k {
	case ScriptMassDisable, ScriptReport:
		return k
	default:
		return ScriptGeneric
	}
}

// DefaultDisabledOU is the target OU named in generated scripts when none is
// configured.
const DefaultDisabledOU = "OU=Usuarios Deshabilitados,DC=empresa,DC=local"

// GenericAccountName is used when no account label can be derived.
const GenericAccountName = "usuario.generico"

// ScriptOptions tunes a rendered script.
type ScriptOptions struct {
	SafeMode   bool
	Operator   string
	DisabledOU string
	Now        time.Time
}

// Script is a rendered PowerShell remediation script.
type Script struct {
	Kind        ScriptKind `json:"kind"`
	Content     string     `json:"content"`
	SafeMode    bool       `json:"safeMode"`
	Operator    string     `json:"operator"`
	Accounts    int        `json:"accounts"`
	GeneratedAt time.Time  `json:"generatedAt"`
}

// FileName is the suggested .ps1 name for the script.
func (s Script) FileName() string {
	return fmt.Sprintf("script_%s_%s.ps1", strings.ToLower(string(s.Kind)), s.GeneratedAt.Format("20060102_150405"))
}

// ScriptRenderer renders PowerShell scripts from reconciliation outcomes.
// Templates are parsed once; Render is safe for concurrent use.
type ScriptRenderer struct {
	templates map[ScriptKind]*liquid.Template
	logger    *zap.Logger
}

// NewScriptRenderer parses the built-in templates.
func NewScriptRenderer(logger *zap.Logger) (*ScriptRenderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	eng := liquid.NewEngine()
	// {{ value | ps }} escapes for a double-quoted PowerShell string.
	eng.RegisterFilter("ps", psEscape)

	sources := map[ScriptKind]string{
		ScriptMassDisable: massDisableTemplate,
		ScriptReport:      reportTemplate,
		ScriptGeneric:     genericTemplate,
	}
	r := &ScriptRenderer{
		templates: make(map[ScriptKind]*liquid.Template, len(sources)),
		logger:    logger.Named("script"),
	}
	for kind, src := range sources {
		tpl, err := eng.ParseString(src)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", kind, err)
		}
		r.templates[kind] = tpl
	}
	return r, nil
}

// Render builds the script of the given kind. MASS_DISABLE only targets
// GHOST_ACCOUNT and INACTIVE_WITH_ACCOUNT outcomes.
func (r *ScriptRenderer) Render(kind ScriptKind, outcomes []engine.Outcome, opts ScriptOptions) (Script, error) {
	tpl, ok := r.templates[kind]
	if !ok {
		kind = ScriptGeneric
		tpl = r.templates[kind]
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.Operator == "" {
		opts.Operator = "system"
	}
	if opts.DisabledOU == "" {
		opts.DisabledOU = DefaultDisabledOU
	}

	actionable := FilterActionable(outcomes)
	targets := make([]map[string]any, 0, len(actionable))
	for _, o := range actionable {
		targets = append(targets, map[string]any{
			"identifier":  string(o.Identifier),
			"account":     AccountLabel(o),
			"ghost":       o.Category == engine.CategoryGhostAccount,
			"category":    string(o.Category),
			"reason":      disableReason(o.Category),
			"description": o.Description,
		})
	}

	ghost, inactive, fine := 0, 0, 0
	for _, o := range outcomes {
		switch o.Category {
		case engine.CategoryGhostAccount:
			ghost++
		case engine.CategoryInactiveWithAccount:
			inactive++
		case engine.CategoryOKActive, engine.CategoryOKInactive:
			fine++
		}
	}

	bindings := map[string]any{
		"date":        opts.Now.Format("2006-01-02 15:04:05"),
		"day":         opts.Now.Format("2006-01-02"),
		"operator":    opts.Operator,
		"safe_mode":   opts.SafeMode,
		"disabled_ou": opts.DisabledOU,
		"targets":     targets,
		"total":       len(outcomes),
		"ghost":       ghost,
		"inactive":    inactive,
		"ok":          fine,
	}

	content, err := tpl.RenderString(bindings)
	if err != nil {
		return Script{}, fmt.Errorf("failed to render %s script: %w", kind, err)
	}

	accounts := len(outcomes)
	if kind == ScriptMassDisable {
		accounts = len(targets)
	}
	r.logger.Info("script rendered",
		zap.String("kind", string(kind)),
		zap.Int("accounts", accounts),
		zap.Bool("safe_mode", opts.SafeMode),
		zap.String("operator", opts.Operator),
	)

	return Script{
		Kind:        kind,
		Content:     content,
		SafeMode:    opts.SafeMode,
		Operator:    opts.Operator,
		Accounts:    accounts,
		GeneratedAt: opts.Now,
	}, nil
}

// AccountLabel names the directory account an outcome refers to. Without a
// known account name it falls back to user<last 8 digits of the body>.
func AccountLabel(o engine.Outcome) string {
	if o.AccountName != "" {
		return o.AccountName
	}
	return fallbackAccountName(o.Identifier)
}

func fallbackAccountName(id schema.Identifier) string {
	if !strings.Contains(string(id), "-") {
		return GenericAccountName
	}
	body := id.Body()
	if len(body) > 8 {
		body = body[len(body)-8:]
	}
	return "user" + body
}

func disableReason(c engine.Category) string {
	if c == engine.CategoryGhostAccount {
		return "Not in payroll roster"
	}
	return "Inactive in payroll"
}

var psReplacer = strings.NewReplacer("`", "``", `"`, "`\"", "$", "`$")

func psEscape(s string) string {
	return psReplacer.Replace(s)
}

const massDisableTemplate = `# Generated by recon - payroll/directory reconciliation
# Date: {{ date }}
# Operator: {{ operator | ps }}
# Accounts to process: {{ targets.size }}
# Safe mode: {% if safe_mode %}YES (commands use -WhatIf){% else %}NO (changes are applied){% endif %}

Import-Module ActiveDirectory

Write-Host "========================================" -ForegroundColor Cyan
Write-Host "MASS ACCOUNT DISABLE" -ForegroundColor Cyan
Write-Host "========================================" -ForegroundColor Cyan
Write-Host ""

$DisabledOU = "{{ disabled_ou | ps }}"
$ReportPath = "C:\Reportes_AD\"

if (-not (Test-Path $ReportPath)) {
    New-Item -ItemType Directory -Path $ReportPath -Force | Out-Null
}
{% for t in targets %}
# {{ forloop.index }}. {{ t.identifier }} - {{ t.reason }}
Write-Host "Processing: {{ t.account | ps }} ({{ t.identifier }})" -ForegroundColor Yellow
try {
{%- if safe_mode %}
    Disable-ADAccount -Identity "{{ t.account | ps }}" -WhatIf
    Set-ADUser -Identity "{{ t.account | ps }}" -Description "BLOQUEADO_AUTO_{{ day }} - {{ t.reason }}" -WhatIf
    Write-Host "  [SAFE MODE] Would disable: {{ t.account | ps }}" -ForegroundColor Gray
{%- else %}
    Disable-ADAccount -Identity "{{ t.account | ps }}" -Confirm:$false
    Set-ADUser -Identity "{{ t.account | ps }}" -Description "BLOQUEADO_AUTO_{{ day }} - {{ t.reason }}"
    Write-Host "  Disabled: {{ t.account | ps }}" -ForegroundColor Green
{%- endif %}
} catch {
    Write-Host "  Error: $_" -ForegroundColor Red
}
{% endfor %}
Write-Host "========================================" -ForegroundColor Green
Write-Host "DONE" -ForegroundColor Green
Write-Host "Accounts processed: {{ targets.size }}" -ForegroundColor Green
Write-Host "========================================" -ForegroundColor Green

$ReportFile = Join-Path $ReportPath ("disabled_" + (Get-Date -Format "yyyyMMdd_HHmmss") + ".csv")
{% if safe_mode -%}
Write-Host "Safe mode: a real run would write $ReportFile" -ForegroundColor Cyan
{%- else -%}
Get-ADUser -Filter {Enabled -eq $false} -Properties Description,LastLogonDate,Created,Modified |
    Select-Object SamAccountName,Name,Description,LastLogonDate,Created,Modified |
    Export-Csv -Path $ReportFile -NoTypeInformation -Encoding UTF8
Write-Host "Report written: $ReportFile" -ForegroundColor Cyan
{%- endif %}
Write-Host "Review the report before any permanent action." -ForegroundColor Magenta
`

const reportTemplate = `# Generated by recon - reconciliation report
# Date: {{ date }}
# Outcomes analysed: {{ total }}

Import-Module ActiveDirectory

Write-Host "========================================" -ForegroundColor Cyan
Write-Host "RECONCILIATION REPORT" -ForegroundColor Cyan
Write-Host "========================================" -ForegroundColor Cyan

$GhostAccounts = {{ ghost }}
$InactiveWithAccount = {{ inactive }}
$OK = {{ ok }}

Write-Host "STATISTICS:" -ForegroundColor Yellow
Write-Host "  Ghost accounts: $GhostAccounts" -ForegroundColor Red
Write-Host "  Inactive with account: $InactiveWithAccount" -ForegroundColor Yellow
Write-Host "  OK: $OK" -ForegroundColor Green
Write-Host ""
Write-Host "ACCOUNTS NEEDING ATTENTION:" -ForegroundColor Yellow
{% for t in targets -%}
Write-Host "  {{ t.identifier }} - {{ t.category }}" -ForegroundColor {% if t.ghost %}Red{% else %}Yellow{% endif %}
Write-Host "      {{ t.description | ps }}" -ForegroundColor Gray
{% endfor -%}
Write-Host "========================================" -ForegroundColor Green
Write-Host "END OF REPORT" -ForegroundColor Green
`

const genericTemplate = `# Generated by recon
# Date: {{ date }}
# Outcomes: {{ total }}

Write-Host "Base script for customization" -ForegroundColor Cyan
`
