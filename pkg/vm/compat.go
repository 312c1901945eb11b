package vm

import (
	"fmt"
	"strings"
)

// Compat is the set of host-visible deviations from strict ECMA-262 3rd
// edition behavior.
type Compat uint16

const (
	// Compat262_3B exposes the Annex B features.
	Compat262_3B Compat = 1 << iota
	// CompatExt1 enables the extension-1 behaviors: bare \x and \u string
	// escapes, leading-zero octal integers, relaxed signed hex in
	// ToNumber, reserved words as identifiers and eval-with-this.
	CompatExt1
	// CompatUndefDef makes GetValue on an unresolved reference yield
	// undefined instead of raising ReferenceError.
	CompatUndefDef
	// CompatUTFUnsafe passes malformed UTF-8 input through as a sentinel
	// character instead of raising.
	CompatUTFUnsafe
	// CompatSGMLCom treats '<!--' as a line comment opener.
	CompatSGMLCom

	// CompatJS11..CompatJS15 select Netscape JavaScript version tiers.
	CompatJS11
	CompatJS12
	CompatJS13
	CompatJS14
	CompatJS15
)

var compatTokens = map[string]Compat{
	"262_3b":        Compat262_3B,
	"ext1":          CompatExt1,
	"undefdef":      CompatUndefDef,
	"utf_unsafe":    CompatUTFUnsafe,
	"sgml_comments": CompatSGMLCom,
	"js11":          CompatJS11,
	"js12":          CompatJS12,
	"js13":          CompatJS13,
	"js14":          CompatJS14,
	"js15":          CompatJS15,
}

// ParseCompat interprets the whitespace-separated string form used by host
// tooling. Each token may carry a "no_" prefix to clear the flag; a
// leading "=" resets the set to zero first.
func ParseCompat(base Compat, spec string) (Compat, error) {
	spec = strings.TrimSpace(spec)
	if strings.HasPrefix(spec, "=") {
		base = 0
		spec = spec[1:]
	}
	for _, tok := range strings.Fields(spec) {
		clear := false
		name := tok
		if strings.HasPrefix(name, "no_") {
			clear = true
			name = name[3:]
		}
		flag, ok := compatTokens[name]
		if !ok {
			return base, fmt.Errorf("unknown compatibility token %q", tok)
		}
		if clear {
			base &^= flag
		} else {
			base |= flag
		}
	}
	return base, nil
}

// CompatString renders the flag set in the §6.2 string form.
func CompatString(c Compat) string {
	names := []string{"262_3b", "ext1", "undefdef", "utf_unsafe",
		"sgml_comments", "js11", "js12", "js13", "js14", "js15"}
	var out []string
	for _, name := range names {
		if c&compatTokens[name] != 0 {
			out = append(out, name)
		}
	}
	return strings.Join(out, " ")
}
