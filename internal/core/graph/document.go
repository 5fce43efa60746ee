package graph

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/behave/internal/core/bt"
)

// Document describes one tree in JSON or YAML. Nodes are addressed by id;
// every node except the root is referenced exactly once.
type Document struct {
	Name  string              `json:"name" yaml:"name"`
	Mode  string              `json:"mode,omitempty" yaml:"mode,omitempty"`
	Level string              `json:"level,omitempty" yaml:"level,omitempty"`
	Root  string              `json:"root" yaml:"root"`
	Nodes map[string]NodeSpec `json:"nodes" yaml:"nodes"`
}

type NodeSpec struct {
	Type        string           `json:"type" yaml:"type"`
	Children    []string         `json:"children,omitempty" yaml:"children,omitempty"`
	Params      map[string]any   `json:"params,omitempty" yaml:"params,omitempty"`
	Interruptor *InterruptorSpec `json:"interruptor,omitempty" yaml:"interruptor,omitempty"`
}

// InterruptorSpec attaches an expression-driven interruptor to a node.
type InterruptorSpec struct {
	When   string `json:"when" yaml:"when"`
	Parent bool   `json:"parent,omitempty" yaml:"parent,omitempty"`
}

var (
	ErrNoRoot      = errors.New("document has no root")
	ErrUnknownNode = errors.New("unknown node id")
	ErrUnknownType = errors.New("unknown node type")
	ErrCycle       = errors.New("node references itself")
	ErrShared      = errors.New("node referenced more than once")
	ErrBadMode     = errors.New("unknown run mode")
	ErrReservedKey = errors.New("tree key is reserved in expressions")
)

// LoadJSON decodes a document from JSON.
func LoadJSON(r io.Reader) (*Document, error) {
	var d Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("decode json document: %w", err)
	}
	return &d, nil
}

// LoadYAML decodes a document from YAML.
func LoadYAML(r io.Reader) (*Document, error) {
	var d Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("decode yaml document: %w", err)
	}
	return &d, nil
}

// Load reads a document from disk, picking the decoder by extension.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var d *Document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		d, err = LoadJSON(bytes.NewReader(data))
	default:
		d, err = LoadYAML(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if d.Name == "" {
		d.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return d, nil
}

func (d *Document) runMode() (bt.RunMode, error) {
	switch strings.ToLower(d.Mode) {
	case "", "hold", "hold_at_end":
		return bt.HoldAtEnd, nil
	case "repeat":
		return bt.Repeat, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrBadMode, d.Mode)
	}
}

// Validate checks references and node types without building anything.
func (d *Document) Validate(reg *Registry) error {
	if d.Root == "" {
		return ErrNoRoot
	}
	if _, err := d.runMode(); err != nil {
		return err
	}
	var errs []error
	refs := make(map[string]string)
	ids := make([]string, 0, len(d.Nodes))
	for id := range d.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		spec := d.Nodes[id]
		if _, ok := reg.Lookup(spec.Type); !ok {
			errs = append(errs, fmt.Errorf("node %q: %w: %q", id, ErrUnknownType, spec.Type))
		}
		for _, ref := range spec.references() {
			if ref == id {
				errs = append(errs, fmt.Errorf("node %q: %w", id, ErrCycle))
				continue
			}
			if _, ok := d.Nodes[ref]; !ok {
				errs = append(errs, fmt.Errorf("node %q: %w: %q", id, ErrUnknownNode, ref))
				continue
			}
			if prev, ok := refs[ref]; ok {
				errs = append(errs, fmt.Errorf("node %q: %w: %q is also under %q", id, ErrShared, ref, prev))
				continue
			}
			refs[ref] = id
		}
	}
	if _, ok := d.Nodes[d.Root]; !ok {
		errs = append(errs, fmt.Errorf("root: %w: %q", ErrUnknownNode, d.Root))
	}
	if parent, ok := refs[d.Root]; ok {
		errs = append(errs, fmt.Errorf("root %q: %w: under %q", d.Root, ErrShared, parent))
	}
	return errors.Join(errs...)
}

// references lists every node id the spec points at: children plus the
// id-valued params of branch and subtree nodes.
func (s NodeSpec) references() []string {
	out := append([]string(nil), s.Children...)
	for _, key := range refParams {
		if id, ok := s.Params[key].(string); ok && id != "" {
			out = append(out, id)
		}
	}
	return out
}

var refParams = []string{"test", "success", "failure", "tree"}

// Build validates the document and constructs a tree. Options are applied
// after the document's own mode and level.
func (d *Document) Build(reg *Registry, opts ...bt.TreeOption) (tree *bt.Tree, err error) {
	if err := d.Validate(reg); err != nil {
		return nil, err
	}
	mode, _ := d.runMode()
	b := &builder{doc: d, reg: reg, building: make(map[string]bool), built: make(map[string]bool)}
	root, err := b.node(d.Root)
	if err != nil {
		return nil, err
	}
	defer bt.Recover(&err)
	topts := []bt.TreeOption{bt.WithRunMode(mode), bt.WithTreeLogger(reg.log)}
	if d.Level != "" {
		topts = append(topts, bt.WithLevel(d.Level))
	}
	return bt.NewTree(d.Name, append(topts, opts...)...).SetRoot(root), nil
}

type builder struct {
	doc      *Document
	reg      *Registry
	building map[string]bool
	built    map[string]bool
}

func (b *builder) node(id string) (n bt.Node, err error) {
	spec, ok := b.doc.Nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, id)
	}
	if b.building[id] {
		return nil, fmt.Errorf("node %q: %w", id, ErrCycle)
	}
	if b.built[id] {
		return nil, fmt.Errorf("node %q: %w", id, ErrShared)
	}
	b.building[id] = true
	defer func() { b.building[id] = false }()

	factory, ok := b.reg.Lookup(spec.Type)
	if !ok {
		return nil, fmt.Errorf("node %q: %w: %q", id, ErrUnknownType, spec.Type)
	}
	ctx := &BuildContext{ID: id, Spec: spec, Registry: b.reg, builder: b}
	for _, cid := range spec.Children {
		child, err := b.node(cid)
		if err != nil {
			return nil, err
		}
		ctx.Children = append(ctx.Children, child)
	}

	defer func() {
		if err != nil {
			err = fmt.Errorf("node %q: %w", id, err)
		}
	}()
	defer bt.Recover(&err)
	n, err = factory(ctx)
	if err != nil {
		return nil, err
	}
	if spec.Interruptor != nil {
		pred, err := b.reg.exprs.Predicate(spec.Interruptor.When)
		if err != nil {
			return nil, fmt.Errorf("interruptor: %w", err)
		}
		n.WithInterruptor(bt.NewInterruptor(id+".interruptor", pred, spec.Interruptor.Parent))
	}
	b.built[id] = true
	return n, nil
}
