package watersync

import (
	"net/url"
	"regexp"
	"strings"
)

// CollectorIdentity is the resolved identity of the person who emptied a
// device. Both fields may be nil when the description carries nothing usable.
type CollectorIdentity struct {
	Id  *string
	Nik *string
}

// knownCorruptions maps byte sequences produced by an upstream charset
// mismatch to the real collector they stand for. New corrupted sequences get
// new table rows, not new logic.
var knownCorruptions = []struct {
	needle string
	id     string
	nik    string
}{
	{"Р†РіРѕСЂ", "Kirk", "Kirk"},
	{"Р\"РјРёС‚СЂРѕ", "Anna", "Anna"},
	{"Ігор", "Ігор", "Ігор"},
}

var trailingHyphenPattern = regexp.MustCompile(`^(.+?)\s*-\s*$`)

// ResolveCollector decodes a raw collector description into a stable
// identity. Best effort: the description is free text that is sometimes
// percent-encoded and sometimes mis-decoded upstream.
func ResolveCollector(descr string) CollectorIdentity {
	if descr == "" {
		return CollectorIdentity{}
	}

	decoded, err := url.PathUnescape(descr)
	if err != nil {
		decoded = descr
	}

	for _, known := range knownCorruptions {
		if strings.Contains(decoded, known.needle) {
			id, nik := known.id, known.nik
			return CollectorIdentity{Id: &id, Nik: &nik}
		}
	}

	// Upstream often formats the description as "Name - ".
	if match := trailingHyphenPattern.FindStringSubmatch(decoded); match != nil {
		name := strings.TrimSpace(match[1])
		if name != "" {
			return CollectorIdentity{Nik: &name}
		}
	}

	trimmed := strings.TrimSpace(decoded)
	if trimmed == "" {
		return CollectorIdentity{}
	}
	return CollectorIdentity{Nik: &trimmed}
}
