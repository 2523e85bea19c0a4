package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText strips non-printable characters, trims the ends and collapses
// runs of inner whitespace into a single space.
func CleanText(text string) string {
	text = removeNonPrintable(text)
	text = strings.TrimSpace(text)
	return innerWhitespace.ReplaceAllString(text, " ")
}

// Parse parses a raw html body into a goquery document.
func Parse(body []byte) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(body))
}

// FirstMessage finds the first element matching `block` and returns the
// text of its first `item` child. When the block has no matching child,
// the text of the block itself is returned. ok is false when no block
// was found.
func FirstMessage(doc *goquery.Document, block, item string) (message string, ok bool) {
	blocks := doc.Find(block)
	if len(blocks.Nodes) == 0 {
		return "", false
	}
	first := blocks.First()
	if item != "" {
		items := first.Find(item)
		if len(items.Nodes) > 0 {
			return CleanText(GetText(items.Nodes[0])), true
		}
	}
	return CleanText(GetText(first.Nodes[0])), true
}
