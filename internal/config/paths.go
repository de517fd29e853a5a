package config

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
)

// windowsVar matches %NAME% references.
var windowsVar = regexp.MustCompile(`%([^%]+)%`)

// expandPath expands $VAR (and %VAR% on Windows) references, then a
// leading ~ for the home directory.
func expandPath(p string) string {
	if p == "" {
		return p
	}
	p = os.ExpandEnv(p)
	if runtime.GOOS == "windows" {
		p = windowsVar.ReplaceAllStringFunc(p, func(ref string) string {
			if val, ok := os.LookupEnv(ref[1 : len(ref)-1]); ok {
				return val
			}
			return ref
		})
	}
	return expandHome(p)
}

// expandHome replaces "~" and a "~/" prefix ("~\" on Windows). "~user" is
// left alone.
func expandHome(p string) string {
	rest, ok := strings.CutPrefix(p, "~")
	if !ok {
		return p
	}
	if rest != "" && rest[0] != '/' && !(runtime.GOOS == "windows" && rest[0] == '\\') {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, rest)
}
