// Package xml builds a tolerant document tree from raw melody bytes.
//
// SingStar files are frequently malformed (stray entities, unclosed
// tags, declarations that lie about the encoding), so parsing runs in
// non-strict mode and yields a best-effort tree. Some schema revisions
// namespace every element; the parser detects the root prefix once and
// threads it through all queries so callers never care which flavor
// they are holding.
package xml

import (
	"log/slog"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/bohning/usdb-syncer-addons/core/encoding"
	"github.com/bohning/usdb-syncer-addons/core/errors"
)

// Document is a parsed melody file: raw bytes, the decoded text, the
// tree, and the namespace prefix in effect. Immutable once built.
type Document struct {
	Raw     []byte
	Text    string
	Charset encoding.Charset

	root   *xmlquery.Node
	prefix string
	ns     map[string]string
	cache  map[string]*xpath.Expr
}

// Node is an element in the parsed tree.
type Node struct {
	node *xmlquery.Node
}

// Parse decodes raw bytes under the chosen charset and builds the tree.
// If decoding or parsing fails and the charset was not already the
// legacy fallback, the whole attempt is retried once under the
// fallback. Both attempts failing is fatal.
func Parse(raw []byte, cs encoding.Charset, log *slog.Logger) (*Document, error) {
	doc, err := parseOnce(raw, cs)
	if err == nil {
		return doc, nil
	}
	if cs.IsFallback() {
		return nil, err
	}
	log.Warn("parse failed, retrying under fallback encoding",
		"encoding", cs.Name, "fallback", encoding.Fallback().Name, "error", err)
	doc, ferr := parseOnce(raw, encoding.Fallback())
	if ferr == nil {
		return doc, nil
	}
	if errors.Is(err, errors.ErrDecode) && errors.Is(ferr, errors.ErrDecode) {
		return nil, errors.NewDecode(ferr, cs.Name, encoding.Fallback().Name)
	}
	return nil, ferr
}

func parseOnce(raw []byte, cs encoding.Charset) (*Document, error) {
	text, err := cs.Decode(raw)
	if err != nil {
		return nil, err
	}
	text = encoding.RewriteDeclaration(text)

	opts := xmlquery.ParserOptions{
		Decoder: &xmlquery.DecoderOptions{Strict: false},
	}
	root, err := xmlquery.ParseWithOptions(strings.NewReader(text), opts)
	if err != nil {
		return nil, errors.NewParse(cs.Name, err)
	}

	doc := &Document{
		Raw:     raw,
		Text:    text,
		Charset: cs,
		root:    root,
		cache:   make(map[string]*xpath.Expr),
	}
	if el := firstElement(root); el != nil && el.Prefix != "" {
		doc.prefix = el.Prefix
		doc.ns = map[string]string{el.Prefix: el.NamespaceURI}
	}
	return doc, nil
}

func firstElement(n *xmlquery.Node) *xmlquery.Node {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			return child
		}
	}
	return nil
}

// Root returns the document's root element, or nil for an empty tree.
func (d *Document) Root() *Node {
	el := firstElement(d.root)
	if el == nil {
		return nil
	}
	return &Node{node: el}
}

// Prefix returns the namespace prefix threaded through queries, empty
// for non-namespaced documents.
func (d *Document) Prefix() string { return d.prefix }

// path builds a prefix-qualified name test for one element name.
func (d *Document) path(name string) string {
	if d.prefix == "" {
		return name
	}
	return d.prefix + ":" + name
}

func (d *Document) compile(expr string) (*xpath.Expr, error) {
	if e, ok := d.cache[expr]; ok {
		return e, nil
	}
	var (
		e   *xpath.Expr
		err error
	)
	if len(d.ns) > 0 {
		e, err = xpath.CompileWithNS(expr, d.ns)
	} else {
		e, err = xpath.Compile(expr)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "compiling query %q", expr)
	}
	d.cache[expr] = e
	return e, nil
}

// ChildElements returns n's direct child elements with the given local
// name, in document order, under whatever prefix the document uses.
func (d *Document) ChildElements(n *Node, name string) []*Node {
	if n == nil || n.node == nil {
		return nil
	}
	expr, err := d.compile(d.path(name))
	if err != nil {
		return nil
	}
	found := xmlquery.QuerySelectorAll(n.node, expr)
	out := make([]*Node, 0, len(found))
	for _, f := range found {
		out = append(out, &Node{node: f})
	}
	return out
}

// Name returns the element's local name.
func (n *Node) Name() string {
	if n == nil || n.node == nil {
		return ""
	}
	return n.node.Data
}

// Attr returns the value of an attribute by local name, empty when
// absent.
func (n *Node) Attr(name string) string {
	if n == nil || n.node == nil {
		return ""
	}
	return n.node.SelectAttr(name)
}

// HasAttr reports whether the attribute is present at all, which
// matters where an empty value and a missing one differ.
func (n *Node) HasAttr(name string) bool {
	if n == nil || n.node == nil {
		return false
	}
	for _, a := range n.node.Attr {
		if a.Name.Local == name {
			return true
		}
	}
	return false
}

// InnerText returns the concatenated text content of the node.
func (n *Node) InnerText() string {
	if n == nil || n.node == nil {
		return ""
	}
	return n.node.InnerText()
}
