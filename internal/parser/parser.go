package parser

import (
	"bytes"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/ugokugo/internal/ast"
)

// Parse parses a single program. filename is only used in source ranges.
func Parse(src []byte, filename string) (*ast.Program, hcl.Diagnostics) {
	// The HCL lexer rejects tab characters; they are plain whitespace here.
	src = bytes.ReplaceAll(src, []byte{'\t'}, []byte{' '})

	tokens, diags := hclsyntax.LexConfig(src, filename, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, firstError(diags)
	}

	p := &parser{}
	for _, tok := range tokens {
		switch tok.Type {
		case hclsyntax.TokenComment, hclsyntax.TokenNewline:
			continue
		}
		p.tokens = append(p.tokens, tok)
	}

	prog, diag := p.parseProgram()
	if diag != nil {
		return nil, hcl.Diagnostics{diag}
	}
	return prog, nil
}

// ParseFile reads and parses the program at path.
func ParseFile(path string) (*ast.Program, hcl.Diagnostics) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Failed to read file",
			Detail:   fmt.Sprintf("The program file %q could not be read: %s.", path, err),
		}}
	}
	return Parse(src, path)
}

func firstError(diags hcl.Diagnostics) hcl.Diagnostics {
	for _, d := range diags {
		if d.Severity == hcl.DiagError {
			return hcl.Diagnostics{d}
		}
	}
	return diags
}

type parser struct {
	tokens []hclsyntax.Token
	pos    int
}

// peek returns the current token without consuming it. The lexer always ends
// the stream with TokenEOF, which peek keeps returning once reached.
func (p *parser) peek() hclsyntax.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos]
}

func (p *parser) next() hclsyntax.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// prev returns the most recently consumed token.
func (p *parser) prev() hclsyntax.Token {
	if p.pos == 0 {
		return p.peek()
	}
	return p.tokens[p.pos-1]
}

func (p *parser) peekKeyword(kw string) bool {
	tok := p.peek()
	return tok.Type == hclsyntax.TokenIdent && string(tok.Bytes) == kw
}

func (p *parser) expect(tt hclsyntax.TokenType, summary, what string) (hclsyntax.Token, *hcl.Diagnostic) {
	tok := p.next()
	if tok.Type != tt {
		return tok, unexpected(summary, what, tok)
	}
	return tok, nil
}

func (p *parser) expectKeyword(kw, summary string) *hcl.Diagnostic {
	tok := p.next()
	if tok.Type != hclsyntax.TokenIdent || string(tok.Bytes) != kw {
		return unexpected(summary, fmt.Sprintf("%q", kw), tok)
	}
	return nil
}

func (p *parser) ident(summary, what string) (ast.Ident, *hcl.Diagnostic) {
	tok, diag := p.expect(hclsyntax.TokenIdent, summary, what)
	if diag != nil {
		return ast.Ident{}, diag
	}
	return ast.Ident{Name: string(tok.Bytes), Range: tok.Range}, nil
}

func unexpected(summary, what string, tok hclsyntax.Token) *hcl.Diagnostic {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   fmt.Sprintf("Expected %s, found %s.", what, describe(tok)),
		Subject:  tok.Range.Ptr(),
	}
}

func describe(tok hclsyntax.Token) string {
	switch tok.Type {
	case hclsyntax.TokenEOF:
		return "end of file"
	case hclsyntax.TokenNumberLit:
		return fmt.Sprintf("number %s", tok.Bytes)
	case hclsyntax.TokenIdent:
		return fmt.Sprintf("identifier %q", tok.Bytes)
	default:
		return fmt.Sprintf("%q", tok.Bytes)
	}
}
