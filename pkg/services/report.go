package services

import (
	"fmt"
	"strings"

	"github.com/jinzhu/inflection"
)

// Record kinds counted in a Report.
const (
	KindSetting         = "setting"
	KindOperatingSystem = "operating system"
	KindMedium          = "medium"
	KindOSParameter     = "operating system parameter"
	KindArchitecture    = "architecture"
	KindDomain          = "domain"
	KindSubnet          = "subnet"
	KindPtable          = "partition table"
	KindConfigTemplate  = "config template"
	KindClassParameter  = "class parameter"
	KindHostGroup       = "host group"
)

// KindCount is the number of records of one kind a run created and updated.
type KindCount struct {
	Created int
	Updated int
}

// Report tallies what a seed run wrote, in the order kinds were first seen.
type Report struct {
	kinds  []string
	counts map[string]*KindCount
}

func NewReport() *Report {
	return &Report{counts: make(map[string]*KindCount)}
}

// Record counts one write of kind.
func (r *Report) Record(kind string, outcome Outcome) {
	c, ok := r.counts[kind]
	if !ok {
		c = &KindCount{}
		r.counts[kind] = c
		r.kinds = append(r.kinds, kind)
	}
	if outcome == Created {
		c.Created++
	} else {
		c.Updated++
	}
}

// Count returns the tally for kind.
func (r *Report) Count(kind string) KindCount {
	if c, ok := r.counts[kind]; ok {
		return *c
	}
	return KindCount{}
}

// Lines renders one line per kind, e.g. "media: 1 created, 0 updated".
func (r *Report) Lines() []string {
	lines := make([]string, 0, len(r.kinds))
	for _, kind := range r.kinds {
		c := r.counts[kind]
		lines = append(lines, fmt.Sprintf("%s: %d created, %d updated", inflection.Plural(kind), c.Created, c.Updated))
	}
	return lines
}

func (r *Report) String() string {
	return strings.Join(r.Lines(), "\n")
}
