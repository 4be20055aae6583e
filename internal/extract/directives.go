package extract

import (
	"go/ast"
	"strings"
)

const (
	directiveSplit    = "//sumsplit:split"
	directiveVariants = "//sumsplit:variants"
)

func hasDirective(doc *ast.CommentGroup, name string) bool {
	_, ok := directiveArgs(doc, name)
	return ok
}

func directiveArgs(doc *ast.CommentGroup, name string) (string, bool) {
	if doc == nil {
		return "", false
	}
	for _, c := range doc.List {
		text := strings.TrimSpace(c.Text)
		if text == name {
			return "", true
		}
		if strings.HasPrefix(text, name+" ") {
			return strings.TrimSpace(text[len(name):]), true
		}
	}
	return "", false
}

// directiveList parses "//sumsplit:variants A, B C" into [A B C].
func directiveList(doc *ast.CommentGroup, name string) ([]string, bool) {
	args, ok := directiveArgs(doc, name)
	if !ok {
		return nil, false
	}
	fields := strings.FieldsFunc(args, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	return fields, true
}
