// Package eez owns the selectable EEZ catalog and the group/member selection
// model behind the console's multi-select control.
package eez

import (
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type OptionType string

const (
	Individual OptionType = "individual"
	Group      OptionType = "group"
)

// GroupPrefix marks group option values: "group:<parent id>".
const GroupPrefix = "group:"

// Entry is one record of the upstream EEZ dictionary (/api/configs).
type Entry struct {
	Label     string   `json:"label"`
	ISO3Codes []string `json:"iso3_codes"`
	IsParent  bool     `json:"is_parent"`
}

// Option is one selectable row of the control. Individual options resolve to
// their own EEZ id; group options resolve to MemberIDs.
type Option struct {
	Value     string
	Label     string
	Type      OptionType
	MemberIDs []string
}

type Catalog struct {
	mu      sync.Mutex
	built   bool
	options []Option
	byValue map[string]int
}

func NewCatalog() *Catalog {
	return &Catalog{byValue: map[string]int{}}
}

// Build populates the catalog from the upstream dictionary. Entries without a
// label are skipped rather than failing the whole set. Building twice is a
// no-op so a re-fetched config cannot duplicate rows.
func (c *Catalog) Build(entries map[string]Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.built {
		return
	}
	c.built = true

	for id, e := range entries {
		if strings.TrimSpace(e.Label) == "" {
			continue
		}
		c.options = append(c.options, Option{
			Value: id,
			Label: e.Label,
			Type:  Individual,
		})
		if !e.IsParent {
			continue
		}
		members := groupMembers(id, e, entries)
		c.options = append(c.options, Option{
			Value:     GroupPrefix + id,
			Label:     e.Label + " (All EEZs)",
			Type:      Group,
			MemberIDs: members,
		})
	}

	cl := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(c.options, func(i, j int) bool {
		return cl.CompareString(c.options[i].Label, c.options[j].Label) < 0
	})
	for i, o := range c.options {
		c.byValue[o.Value] = i
	}
}

// groupMembers is the parent's own id plus every entry sharing the parent's
// primary ISO3 code. The parent id always comes first.
func groupMembers(parentID string, parent Entry, entries map[string]Entry) []string {
	members := []string{parentID}
	if len(parent.ISO3Codes) == 0 {
		return members
	}
	primary := parent.ISO3Codes[0]

	var rest []string
	for id, e := range entries {
		if id == parentID || strings.TrimSpace(e.Label) == "" {
			continue
		}
		for _, code := range e.ISO3Codes {
			if code == primary {
				rest = append(rest, id)
				break
			}
		}
	}
	sort.Strings(rest)
	return append(members, rest...)
}

// Options returns the catalog rows in display order.
func (c *Catalog) Options() []Option {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Option, len(c.options))
	copy(out, c.options)
	return out
}

func (c *Catalog) lookup(value string) (Option, bool) {
	i, ok := c.byValue[value]
	if !ok {
		return Option{}, false
	}
	return c.options[i], true
}

// Lookup returns the option for a control value.
func (c *Catalog) Lookup(value string) (Option, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookup(value)
}
