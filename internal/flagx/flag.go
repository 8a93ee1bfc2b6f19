// Package flagx lets several independent flag sets share os.Args: each one
// parses only the flags it owns and ignores the rest.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs returns the subset of args that belongs to the flags listed in
// names (given in single-dash form, e.g. "-a"). Both "-a" and "--a" spellings
// are recognised, as the flag package itself accepts both.
//
// Supported formats:
//
//	-a value
//	--a=value
//
// A value is only consumed when the next argument does not start with "-".
func FilterArgs(args []string, names []string) []string {
	owned := make(map[string]struct{}, len(names))
	for _, n := range names {
		owned[canonical(n)] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		name, _, hasValue := strings.Cut(arg, "=")
		if _, ok := owned[canonical(name)]; !ok {
			continue
		}

		filtered = append(filtered, arg)
		if hasValue {
			continue
		}

		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

func canonical(name string) string {
	return "-" + strings.TrimLeft(name, "-")
}

// ConfigPath returns the JSON config file named by -c or -config, or "" when
// neither flag is present.
func ConfigPath() string {
	var path string

	args := FilterArgs(os.Args[1:], []string{"-c", "-config"})

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "Path to config file")
	fs.StringVar(&path, "c", "", "Path to config file (short)")
	_ = fs.Parse(args)

	return path
}
