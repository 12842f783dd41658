package render

import "strings"

// Shell identifies the interpreter a step's rendered command is handed to,
// since quoting rules for a file list differ between POSIX shells and
// PowerShell/cmd.
type Shell string

const (
	// ShellPOSIX is the default: "sh -o errexit -c" per spec.md.
	ShellPOSIX Shell = "posix"
	// ShellPowerShell quotes for Windows PowerShell.
	ShellPowerShell Shell = "pwsh"
)

// QuoteFiles joins and quotes a file list the way sh (or pwsh) as a single
// argument-safe string suitable for direct interpolation into {{files}}.
func QuoteFiles(shell Shell, files []string) string {
	quoted := make([]string, len(files))
	for i, f := range files {
		quoted[i] = Quote(shell, f)
	}
	return strings.Join(quoted, " ")
}

// Quote quotes a single path for the given shell.
func Quote(shell Shell, s string) string {
	switch shell {
	case ShellPowerShell:
		return quotePowerShell(s)
	default:
		return quotePOSIX(s)
	}
}

// quotePOSIX wraps s in single quotes, escaping any embedded single quote
// with the standard '"'"' trick.
func quotePOSIX(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, "'\"\\ \t\n$`!*?[]{}()<>|;&~#") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// quotePowerShell wraps s in single quotes, doubling any embedded quote.
func quotePowerShell(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
