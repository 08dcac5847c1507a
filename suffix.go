// FILE: lixenwraith/cascade/suffix.go
package cascade

import (
	"regexp"
	"slices"
	"strings"

	"github.com/jellydator/ttlcache/v3"
)

// Suffix is a tuple of filename tokens appended to a config name.
// The nil Suffix stands for the bare name.
type Suffix []string

// Join appends the suffix tokens to name with underscores, skipping empty tokens.
func (s Suffix) Join(name string) string {
	var b strings.Builder
	b.WriteString(name)
	for _, token := range s {
		if token == "" {
			continue
		}
		b.WriteByte('_')
		b.WriteString(token)
	}
	return b.String()
}

func (s Suffix) String() string {
	return strings.Join(s, "_")
}

var explicitOverlayPattern = regexp.MustCompile(`_([A-Z]+)$`)

type suffixSet struct {
	overlay  string
	base     string
	suffixes []Suffix
}

// standardSuffixes returns the precedence list for a tier and host, lowest first.
func standardSuffixes(tier, host string) []Suffix {
	short := shortHostname(host)
	return []Suffix{
		nil,
		{"local"},
		{"config"},
		{"local_config"},
		{tier},
		{tier, "local"},
		{short},
		{short, "config_local"},
		{host},
		{host, "config_local"},
	}
}

// expandSuffixes computes the base name and suffix list for a raw config name.
// A trailing _[A-Z]+ on name replaces the ambient overlay for this name.
func expandSuffixes(name, overlay string, standard []Suffix) suffixSet {
	ambient := overlay
	base := name
	if loc := explicitOverlayPattern.FindStringSubmatchIndex(name); loc != nil && loc[0] > 0 {
		base = name[:loc[0]]
		overlay = name[loc[2]:loc[3]]
	}

	if overlay == "" {
		return suffixSet{overlay: ambient, base: base, suffixes: slices.Clone(standard)}
	}

	token := strings.ToUpper(overlay)
	suffixes := make([]Suffix, 0, len(standard)*2)
	for _, s := range standard {
		suffixes = append(suffixes, s)
		overlaid := make(Suffix, 0, len(s)+1)
		overlaid = append(overlaid, token)
		overlaid = append(overlaid, s...)
		suffixes = append(suffixes, overlaid)
	}
	return suffixSet{overlay: ambient, base: base, suffixes: suffixes}
}

func newSuffixCache() *ttlcache.Cache[string, suffixSet] {
	return ttlcache.New[string, suffixSet](
		ttlcache.WithTTL[string, suffixSet](ttlcache.NoTTL),
		ttlcache.WithDisableTouchOnHit[string, suffixSet](),
	)
}

// SuffixesFor returns the base filename and the suffix precedence list for name,
// lowest precedence first. Results are cached per name until the overlay changes
// or the registry is flushed.
func (r *Registry) SuffixesFor(name string) (string, []Suffix) {
	loader := ttlcache.LoaderFunc[string, suffixSet](
		func(cache *ttlcache.Cache[string, suffixSet], key string) *ttlcache.Item[string, suffixSet] {
			r.mu.RLock()
			set := expandSuffixes(key, r.overlay, r.standardSuffixes)
			r.mu.RUnlock()
			return cache.Set(key, set, ttlcache.DefaultTTL)
		},
	)

	r.mu.RLock()
	overlay := r.overlay
	r.mu.RUnlock()

	var set suffixSet
	item := r.suffixCache.Get(name, ttlcache.WithLoader(loader))
	if item != nil && item.Value().overlay == overlay {
		set = item.Value()
	} else {
		// Entry raced with an overlay change
		r.suffixCache.Delete(name)
		r.mu.RLock()
		set = expandSuffixes(name, r.overlay, r.standardSuffixes)
		r.mu.RUnlock()
	}

	suffixes := make([]Suffix, len(set.suffixes))
	for i, s := range set.suffixes {
		suffixes[i] = slices.Clone(s)
	}
	return set.base, suffixes
}
