package android

import (
	"encoding/xml"
	"strings"
)

const (
	androidNS = "http://schemas.android.com/apk/res/android"
	appNS     = "http://schemas.android.com/apk/res-auto"
)

// node is a generic, schema-free XML element: Android resource XML (layouts,
// nav graphs, manifests) uses view/tag names the core has no fixed schema
// for, so the tree is walked generically rather than unmarshaled into a
// fixed struct.
type node struct {
	tag      string
	attrs    map[string]string
	children []*node
}

func (n *node) attr(name string) string {
	if v, ok := n.attrs[name]; ok {
		return v
	}
	return n.attrs["android:"+name]
}

func (n *node) appAttr(name string) string {
	if v, ok := n.attrs["app:"+name]; ok {
		return v
	}
	return n.attrs[name]
}

// walk calls fn for n and every descendant, depth-first.
func (n *node) walk(fn func(*node)) {
	fn(n)
	for _, c := range n.children {
		c.walk(fn)
	}
}

// findAll returns every descendant (not including n) whose tag matches.
func (n *node) findAll(tag string) []*node {
	var out []*node
	for _, c := range n.children {
		if c.tag == tag {
			out = append(out, c)
		}
		out = append(out, c.findAll(tag)...)
	}
	return out
}

func parseXML(src []byte) (*node, error) {
	dec := xml.NewDecoder(strings.NewReader(string(src)))
	var root *node
	var stack []*node

	for {
		tok, err := dec.Token()
		if tok == nil {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{tag: t.Name.Local, attrs: make(map[string]string)}
			for _, a := range t.Attr {
				key := a.Name.Local
				switch a.Name.Space {
				case androidNS:
					key = "android:" + a.Name.Local
				case appNS:
					key = "app:" + a.Name.Local
				}
				n.attrs[key] = a.Value
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			} else {
				root = n
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	return root, nil
}
