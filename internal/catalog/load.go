package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"flowd/internal/plugin"
)

type document struct {
	Categories map[string]map[string][]string `json:"categories" yaml:"categories" toml:"categories"`
	Pipelines  map[string]pipelineDoc         `json:"pipelines" yaml:"pipelines" toml:"pipelines"`
	Weights    []weightDoc                    `json:"weights" yaml:"weights" toml:"weights"`
	Revisions  []revisionDoc                  `json:"revisions" yaml:"revisions" toml:"revisions"`
}

type pipelineDoc struct {
	DisplayName string `json:"display_name" yaml:"display_name" toml:"display_name"`
}

type weightDoc struct {
	ID      string `json:"id" yaml:"id" toml:"id"`
	Name    string `json:"name" yaml:"name" toml:"name"`
	Local   string `json:"local" yaml:"local" toml:"local"`
	Online  string `json:"online" yaml:"online" toml:"online"`
	Enabled *bool  `json:"enabled" yaml:"enabled" toml:"enabled"`
}

type revisionDoc struct {
	Type        string              `json:"type" yaml:"type" toml:"type"`
	Name        string              `json:"name" yaml:"name" toml:"name"`
	DisplayName string              `json:"display_name" yaml:"display_name" toml:"display_name"`
	Weights     map[string][]string `json:"weights" yaml:"weights" toml:"weights"`
	Params      map[string]any      `json:"params" yaml:"params" toml:"params"`
	Hypers      map[string]hyperDoc `json:"hypers" yaml:"hypers" toml:"hypers"`
}

type hyperDoc struct {
	Type    string         `json:"type" yaml:"type" toml:"type"`
	Default any            `json:"default" yaml:"default" toml:"default"`
	Widget  map[string]any `json:"widget" yaml:"widget" toml:"widget"`
}

// TagSet reports whether a plugin tag is registered. *plugin.Registry
// satisfies it.
type TagSet interface {
	Has(tag string) bool
}

type options struct {
	tags TagSet
}

// Option configures Load and Parse.
type Option func(*options)

// WithRegistry skips revisions whose tag is not registered, recording an
// UnknownPluginError for each on Catalog.Skipped.
func WithRegistry(tags TagSet) Option {
	return func(o *options) { o.tags = tags }
}

// Load reads a catalog file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string, opts ...Option) (*Catalog, error) {
	if path == "" {
		return nil, fmt.Errorf("empty catalog path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b, strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."), opts...)
}

// Parse builds a catalog from raw bytes in the given format (yaml, yml, json
// or toml). Document level syntax errors fail the whole parse; malformed
// entries are skipped and recorded on Catalog.Skipped.
func Parse(b []byte, format string, opts ...Option) (*Catalog, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	var doc document
	switch format {
	case "yaml", "yml":
		if err := yaml.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("parse catalog: %w", err)
		}
	case "json":
		if err := json.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("parse catalog: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("parse catalog: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format: %s", format)
	}
	return build(doc, o), nil
}

func build(doc document, o options) *Catalog {
	c := &Catalog{
		mapping:   doc.Categories,
		pipelines: make(map[string]*Pipeline),
	}
	if c.mapping == nil {
		c.mapping = map[string]map[string][]string{}
	}

	seen := make(map[string]bool)
	for i, wd := range doc.Weights {
		if wd.Name == "" {
			c.Skipped = append(c.Skipped, ParseError{Entry: "weights[" + strconv.Itoa(i) + "]", Reason: "missing name"})
			continue
		}
		id := wd.ID
		if id == "" {
			id = wd.Name
		}
		if seen[id] {
			c.Skipped = append(c.Skipped, ParseError{Entry: "weight " + id, Reason: "duplicate id"})
			continue
		}
		seen[id] = true
		enabled := true
		if wd.Enabled != nil {
			enabled = *wd.Enabled
		}
		c.weights = append(c.weights, &WeightRecord{ID: id, Name: wd.Name, Local: wd.Local, Online: wd.Online, Enabled: enabled})
	}

	for i, rd := range doc.Revisions {
		rev, err := c.buildRevision(i, rd, o)
		if err != nil {
			c.Skipped = append(c.Skipped, err)
			continue
		}
		p, ok := c.pipelines[rev.Pipeline]
		if !ok {
			p = &Pipeline{Tag: rev.Pipeline, DisplayName: doc.Pipelines[rev.Pipeline].DisplayName}
			if p.DisplayName == "" {
				p.DisplayName = rev.Pipeline
			}
			c.pipelines[rev.Pipeline] = p
		}
		if _, dup := p.Revision(rev.Name); dup {
			c.Skipped = append(c.Skipped, ParseError{Entry: entryName(i, rd), Reason: "duplicate revision name"})
			continue
		}
		p.Revisions = append(p.Revisions, rev)
	}

	c.Categories = c.tree()
	return c
}

func entryName(i int, rd revisionDoc) string {
	if rd.Type != "" && rd.Name != "" {
		return rd.Type + "/" + rd.Name
	}
	return "revisions[" + strconv.Itoa(i) + "]"
}

func (c *Catalog) buildRevision(i int, rd revisionDoc, o options) (*Revision, error) {
	entry := entryName(i, rd)
	switch {
	case rd.Type == "":
		return nil, ParseError{Entry: entry, Reason: "missing type"}
	case rd.Name == "":
		return nil, ParseError{Entry: entry, Reason: "missing name"}
	case rd.DisplayName == "":
		return nil, ParseError{Entry: entry, Reason: "missing display_name"}
	}
	if o.tags != nil && !o.tags.Has(rd.Type) {
		return nil, plugin.UnknownPluginError{Tag: rd.Type}
	}

	rev := &Revision{
		ID:          i,
		Name:        rd.Name,
		DisplayName: rd.DisplayName,
		Pipeline:    rd.Type,
		WeightKeys:  make(map[string][]*WeightRecord, len(rd.Weights)),
		Params:      make(map[string]any, len(rd.Params)),
		Hypers:      make(map[string]HyperDecl, len(rd.Hypers)),
	}
	for k, refs := range rd.Weights {
		if len(refs) == 0 {
			return nil, ParseError{Entry: entry, Reason: "weight key " + k + " has no candidates"}
		}
		for _, ref := range refs {
			w, ok := c.Weight(ref)
			if !ok {
				return nil, ParseError{Entry: entry, Reason: "unknown weight " + ref + " for key " + k}
			}
			rev.WeightKeys[k] = append(rev.WeightKeys[k], w)
		}
	}
	for k, v := range rd.Params {
		if isReserved(k) || rev.HasWeightKey(k) {
			return nil, ParseError{Entry: entry, Reason: "param " + k + " shadows a reserved or weight key"}
		}
		rev.Params[k] = v
	}
	for k, h := range rd.Hypers {
		rev.Hypers[k] = HyperDecl{Type: h.Type, Default: h.Default, Widget: h.Widget}
	}
	return rev, nil
}

func isReserved(k string) bool {
	return k == "type" || k == "name" || k == "display_name"
}

// tree files every pipeline under its category and task. Categories, tasks
// and pipelines are sorted by name; revisions keep document order.
func (c *Catalog) tree() []*Category {
	cats := make(map[string]map[string][]*Pipeline)
	for tag, p := range c.pipelines {
		cat, task := findPipelineType(c.mapping, tag)
		if cats[cat] == nil {
			cats[cat] = make(map[string][]*Pipeline)
		}
		cats[cat][task] = append(cats[cat][task], p)
	}
	out := make([]*Category, 0, len(cats))
	for _, cn := range sortedKeys(cats) {
		cat := &Category{Name: cn}
		for _, tn := range sortedKeys(cats[cn]) {
			ps := cats[cn][tn]
			sort.Slice(ps, func(i, j int) bool { return ps[i].Tag < ps[j].Tag })
			cat.Tasks = append(cat.Tasks, &Task{Name: tn, Pipelines: ps})
		}
		out = append(out, cat)
	}
	return out
}
