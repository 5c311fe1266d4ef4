package hollow

import (
	"net/url"
	"sort"
	"strings"

	"github.com/illmade-knight/go-hollowtest/containers"
	"github.com/rs/zerolog"
)

// DefaultLocalHost replaces dependency aliases in application environments.
const DefaultLocalHost = "localhost"

// AliasSet is the sorted union of the network aliases of every dependency.
type AliasSet []string

// DependencyAliases collects the aliases of every handle that is not an
// application under test.
func DependencyAliases(handles []containers.Handle) AliasSet {
	seen := make(map[string]struct{})
	var aliases AliasSet
	for _, h := range handles {
		if _, isApp := containers.AsApplication(h); isApp {
			continue
		}
		for _, a := range h.NetworkAliases() {
			if _, ok := seen[a]; ok {
				continue
			}
			seen[a] = struct{}{}
			aliases = append(aliases, a)
		}
	}
	sort.Strings(aliases)
	return aliases
}

// RewriteEnv points environment values of app that reference a dependency
// alias at localHost. A value equal to an alias is replaced entirely; a URL
// whose host is an alias keeps everything but the host, for example
//
//	FOO_HOSTNAME=foo                 -> FOO_HOSTNAME=localhost
//	FOO_URL=http://foo:5432/app?x=1  -> FOO_URL=http://localhost:5432/app?x=1
//
// Values matching no alias are left untouched. It returns the number of
// rewritten entries.
func RewriteEnv(app containers.Application, aliases AliasSet, localHost string, logger zerolog.Logger) int {
	env := app.Env()
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rewritten := 0
	for _, k := range keys {
		v := env[k]
		newValue, ok := rewriteValue(v, aliases, localHost)
		if !ok {
			continue
		}
		logger.Info().Str("key", k).Str("from", v).Str("to", newValue).Msg("Translating env var")
		app.SetEnv(k, newValue)
		rewritten++
	}
	return rewritten
}

// rewriteValue applies the last matching alias. Aliases are visited in
// sorted order so the result does not depend on map iteration.
func rewriteValue(v string, aliases AliasSet, localHost string) (string, bool) {
	host := urlHost(v)

	var newValue string
	matched := false
	for _, alias := range aliases {
		switch {
		case v == alias:
			newValue, matched = localHost, true
		case host != "" && host == alias:
			newValue, matched = replaceHost(v, host, localHost), true
		}
	}
	return newValue, matched
}

// replaceHost replaces the first occurrence of host in the authority of v,
// after "scheme://" and any "userinfo@", so a scheme or credentials equal to
// the alias are kept.
func replaceHost(v, host, localHost string) string {
	start := 0
	if i := strings.Index(v, "://"); i >= 0 {
		start = i + len("://")
	}
	authority := v[start:]
	if end := strings.IndexAny(authority, "/?#"); end >= 0 {
		authority = authority[:end]
	}
	if at := strings.LastIndex(authority, "@"); at >= 0 {
		start += at + 1
	}
	return v[:start] + strings.Replace(v[start:], host, localHost, 1)
}

// urlHost returns the host of v without its port, or "" when v is not an
// absolute URL with a host.
func urlHost(v string) string {
	u, err := url.Parse(v)
	if err != nil || u.Scheme == "" {
		return ""
	}
	return u.Hostname()
}
