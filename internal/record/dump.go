package record

import (
	"fmt"
	"strings"
)

// elideAfter is the list length beyond which Dump shows only the ends.
const elideAfter = 10

// Node is one entry of a tree display. Leaves carry the value and its
// encoded bytes; nested records and lists carry children instead.
type Node struct {
	Name     string
	Value    Value
	Packed   []byte
	Children []Node
}

// Tree returns display nodes for the named fields of inst, in typedef
// order. Packed holds the encoding of each leaf on its own, or nil when
// the leaf cannot be encoded in isolation.
func Tree(inst *Instance) []Node {
	if inst == nil || inst.schema == nil {
		return nil
	}
	var nodes []Node
	for _, f := range inst.schema.fields {
		name := f.Name()
		if name == "" || !inst.Has(name) {
			continue
		}
		v := inst.Get(name)
		switch v.Kind() {
		case ValueRecord:
			nodes = append(nodes, Node{Name: name, Value: v, Children: Tree(v.Record())})
		case ValueList:
			n := Node{Name: name, Value: v}
			for i, e := range v.List() {
				label := fmt.Sprintf("[%d]", i)
				if e.Kind() == ValueRecord {
					n.Children = append(n.Children, Node{Name: label, Value: e, Children: Tree(e.Record())})
				} else {
					n.Children = append(n.Children, Node{Name: label, Value: e})
				}
			}
			nodes = append(nodes, n)
		default:
			nodes = append(nodes, Node{Name: name, Value: v, Packed: packLeaf(f, inst)})
		}
	}
	return nodes
}

func packLeaf(f Field, inst *Instance) []byte {
	buf := NewBuffer(nil)
	if err := f.Pack(NewWriter(buf), inst); err != nil {
		return nil
	}
	return buf.Bytes()
}

// Dump renders inst as an indented listing. Lists longer than ten
// elements are elided in the middle unless all is set.
func Dump(inst *Instance, all bool) string {
	var b strings.Builder
	dumpInstance(&b, "", inst, all)
	return strings.TrimSuffix(b.String(), "\n")
}

func dumpInstance(b *strings.Builder, indent string, inst *Instance, all bool) {
	name := "record"
	if inst.schema != nil {
		name = inst.schema.name
	}
	fmt.Fprintf(b, "%s%s:\n", indent, name)
	inner := indent + "  "
	for _, n := range inst.Names() {
		v := inst.Get(n)
		switch v.Kind() {
		case ValueRecord:
			if v.Record() != nil {
				dumpInstance(b, inner, v.Record(), all)
				continue
			}
		case ValueList:
			dumpList(b, inner, n, v.List(), all)
			continue
		}
		fmt.Fprintf(b, "%s%s = %s\n", inner, n, v)
	}
}

func dumpList(b *strings.Builder, indent, name string, elems []Value, all bool) {
	fmt.Fprintf(b, "%s%s = [\n", indent, name)
	inner := indent + "  "
	for i, e := range elems {
		if !all && len(elems) > elideAfter && i >= 2 && i < len(elems)-2 {
			if i == 2 {
				fmt.Fprintf(b, "%s...\n", inner)
			}
			continue
		}
		if r := e.Record(); r != nil {
			dumpInstance(b, inner, r, all)
		} else {
			fmt.Fprintf(b, "%s%s\n", inner, e)
		}
	}
	fmt.Fprintf(b, "%s]\n", indent)
}

// Dotted renders one "path = value" line per leaf of inst, each path
// starting with prefix.
func Dotted(inst *Instance, prefix string) string {
	var lines []string
	dotted(&lines, inst, prefix)
	return strings.Join(lines, "\n")
}

func dotted(lines *[]string, inst *Instance, prefix string) {
	for _, n := range inst.Names() {
		path := n
		if prefix != "" {
			path = prefix + "." + n
		}
		v := inst.Get(n)
		switch v.Kind() {
		case ValueRecord:
			if v.Record() != nil {
				dotted(lines, v.Record(), path)
				continue
			}
		case ValueList:
			for i, e := range v.List() {
				ep := fmt.Sprintf("%s[%d]", path, i)
				if r := e.Record(); r != nil {
					dotted(lines, r, ep)
				} else {
					*lines = append(*lines, ep+" = "+e.String())
				}
			}
			continue
		}
		*lines = append(*lines, path+" = "+v.String())
	}
}
