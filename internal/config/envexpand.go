package config

import (
	"os"
	"regexp"
)

// envVarPattern matches ${VAR} and ${VAR:-default} references. Bare $VAR
// is left alone so openocd command fragments survive untouched.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// ExpandEnv substitutes environment variable references in config text
// before YAML parsing. Unset variables without a default expand to the
// empty string.
func ExpandEnv(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(ref string) string {
		groups := envVarPattern.FindStringSubmatch(ref)
		name, hasDefault, def := groups[1], groups[2] != "", groups[3]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		if hasDefault {
			return def
		}
		return ""
	})
}
