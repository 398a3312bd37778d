// ABOUTME: Variable substitution for step command templates.
// ABOUTME: Replaces ${KEY} placeholders in a single scan; unknown keys pass through verbatim.
package engine

import "strings"

// Substitute replaces every ${KEY} occurrence in template with the value from
// vars. Keys absent from vars are left as literal ${KEY} text, and substituted
// values are not re-scanned for further placeholders. Pure function.
func Substitute(template string, vars map[string]string) string {
	if len(vars) == 0 || !strings.Contains(template, "${") {
		return template
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "${"+k+"}", v)
	}
	// strings.Replacer walks the input once and never rescans replacements,
	// so a value containing ${OTHER} stays inert regardless of map order.
	return strings.NewReplacer(pairs...).Replace(template)
}
