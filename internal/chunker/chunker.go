package chunker

import (
	"path/filepath"
	"strings"

	"github.com/hermes-engine/hermes/pkg/types"
)

// ChunkFile subdivides a file's content into semantic chunks based on its
// extension. It never errors: unrecognized extensions get a single
// whole-file chunk, while the Rust, JVM, Markdown and TypeScript/JavaScript
// chunkers return no chunks for input with no recognized declaration or
// heading.
func ChunkFile(path, content string) []*types.Chunk {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".rs":
		return chunkRust(content)
	case ".kt", ".kts", ".java":
		return chunkJVM(content)
	case ".md":
		return chunkMarkdown(content)
	case ".ts", ".tsx", ".js", ".jsx":
		return chunkTypeScript(content)
	default:
		return chunkWholeFile(path, content)
	}
}

var rustPrefixes = []struct {
	prefix   string
	nodeType types.NodeType
}{
	{"pub async fn ", types.NodeFunction},
	{"async fn ", types.NodeFunction},
	{"pub fn ", types.NodeFunction},
	{"fn ", types.NodeFunction},
	{"pub struct ", types.NodeStruct},
	{"struct ", types.NodeStruct},
	{"pub enum ", types.NodeEnum},
	{"enum ", types.NodeEnum},
	{"impl ", types.NodeImpl},
	{"pub trait ", types.NodeTrait},
	{"trait ", types.NodeTrait},
}

func chunkRust(content string) []*types.Chunk {
	lines := strings.Split(content, "\n")
	var chunks []*types.Chunk

	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		kind, name, ok := tryParseRustItem(trimmed)
		if !ok {
			continue
		}
		end := findBlockEnd(lines, i)
		chunks = append(chunks, &types.Chunk{
			Name:      name,
			NodeType:  kind,
			Content:   strings.Join(lines[i:end+1], "\n"),
			StartLine: i + 1,
			EndLine:   end + 1,
			Summary:   buildSummary(name, kind, lines[i]),
		})
		i = end
	}
	return chunks
}

func tryParseRustItem(trimmed string) (types.NodeType, string, bool) {
	for _, p := range rustPrefixes {
		if !strings.HasPrefix(trimmed, p.prefix) {
			continue
		}
		switch p.nodeType {
		case types.NodeFunction:
			return types.NodeFunction, extractFnName(trimmed), true
		case types.NodeStruct:
			return types.NodeStruct, extractAfterKeyword(trimmed, "struct"), true
		case types.NodeEnum:
			return types.NodeEnum, extractAfterKeyword(trimmed, "enum"), true
		case types.NodeImpl:
			return types.NodeImpl, extractImplName(trimmed), true
		case types.NodeTrait:
			return types.NodeTrait, extractAfterKeyword(trimmed, "trait"), true
		}
	}
	return "", "", false
}

// extractFnName pulls the identifier between "fn " and the following "(" or
// generic parameter list.
func extractFnName(trimmed string) string {
	idx := strings.Index(trimmed, "fn ")
	if idx < 0 {
		return "anonymous"
	}
	rest := trimmed[idx+len("fn "):]
	if paren := strings.IndexAny(rest, "(<"); paren >= 0 {
		rest = rest[:paren]
	}
	return strings.TrimSpace(rest)
}

// extractAfterKeyword pulls the identifier following "<keyword> ", stopping
// at the first delimiter that marks generics, bodies, or tuple fields.
func extractAfterKeyword(trimmed, keyword string) string {
	idx := strings.Index(trimmed, keyword+" ")
	if idx < 0 {
		return "anonymous"
	}
	rest := trimmed[idx+len(keyword)+1:]
	if cut := strings.IndexAny(rest, "({<;"); cut >= 0 {
		rest = rest[:cut]
	}
	return strings.TrimSpace(rest)
}

// extractImplName names an impl block after the type it is implemented for:
// the segment following the last "for " when present (a trait impl), else
// the segment directly after "impl ".
func extractImplName(trimmed string) string {
	rest := strings.TrimPrefix(trimmed, "impl ")
	if cut := strings.Index(rest, "{"); cut >= 0 {
		rest = rest[:cut]
	}
	if forIdx := strings.LastIndex(rest, "for "); forIdx >= 0 {
		rest = rest[forIdx+len("for "):]
	}
	if cut := strings.Index(rest, "<"); cut >= 0 {
		rest = rest[:cut]
	}
	return strings.TrimSpace(rest)
}

var jvmKeywords = []string{"fun ", "class ", "interface ", "enum class ", "object "}
var jvmModifiers = []string{"public ", "private ", "protected ", "internal ", "abstract ", "final ", "open "}

func chunkJVM(content string) []*types.Chunk {
	lines := strings.Split(content, "\n")
	var chunks []*types.Chunk

	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if !isJVMDeclStart(trimmed) {
			continue
		}
		name, kind := extractJVMNameAndType(trimmed)
		end := findBlockEnd(lines, i)
		chunks = append(chunks, &types.Chunk{
			Name:      name,
			NodeType:  kind,
			Content:   strings.Join(lines[i:end+1], "\n"),
			StartLine: i + 1,
			EndLine:   end + 1,
			Summary:   buildSummary(name, kind, lines[i]),
		})
		i = end
	}
	return chunks
}

func isJVMDeclStart(trimmed string) bool {
	for _, m := range jvmModifiers {
		if strings.HasPrefix(trimmed, m) {
			trimmed = strings.TrimPrefix(trimmed, m)
		}
	}
	for _, kw := range jvmKeywords {
		if strings.HasPrefix(trimmed, kw) {
			return true
		}
	}
	return false
}

func extractJVMNameAndType(trimmed string) (string, types.NodeType) {
	for _, m := range jvmModifiers {
		trimmed = strings.TrimPrefix(trimmed, m)
	}
	switch {
	case strings.HasPrefix(trimmed, "fun "):
		return trimEarliestDelim(strings.TrimPrefix(trimmed, "fun ")), types.NodeFunction
	case strings.HasPrefix(trimmed, "enum class "):
		return trimEarliestDelim(strings.TrimPrefix(trimmed, "enum class ")), types.NodeEnum
	case strings.HasPrefix(trimmed, "interface "):
		return trimEarliestDelim(strings.TrimPrefix(trimmed, "interface ")), types.NodeTrait
	case strings.HasPrefix(trimmed, "class "):
		return trimEarliestDelim(strings.TrimPrefix(trimmed, "class ")), types.NodeStruct
	case strings.HasPrefix(trimmed, "object "):
		return trimEarliestDelim(strings.TrimPrefix(trimmed, "object ")), types.NodeImpl
	default:
		return "anonymous", types.NodeConcept
	}
}

func trimEarliestDelim(s string) string {
	if cut := strings.IndexAny(s, "({<:"); cut >= 0 {
		s = s[:cut]
	}
	return strings.TrimSpace(s)
}

// findBlockEnd scans forward from start for the first '{' and tracks brace
// depth until it returns to zero, returning the line index where the block
// closes. If no opening brace is ever found, it falls back to a bounded
// two-line span.
func findBlockEnd(lines []string, start int) int {
	depth := 0
	foundOpen := false
	for i := start; i < len(lines); i++ {
		for _, r := range lines[i] {
			switch r {
			case '{':
				depth++
				foundOpen = true
			case '}':
				depth--
			}
		}
		if foundOpen && depth <= 0 {
			return i
		}
	}
	if start+1 < len(lines) {
		return start + 1
	}
	return len(lines) - 1
}

func buildSummary(name string, nodeType types.NodeType, firstLine string) string {
	trimmed := strings.TrimSpace(firstLine)
	if len(trimmed) > 80 {
		return string(nodeType) + ": " + name
	}
	return string(nodeType) + ": " + trimmed
}

func chunkMarkdown(content string) []*types.Chunk {
	lines := strings.Split(content, "\n")
	var chunks []*types.Chunk

	sectionStart := -1
	var sectionHeading string

	closeSection := func(endExclusive int) {
		if sectionStart < 0 {
			return
		}
		body := lines[sectionStart:endExclusive]
		chunks = append(chunks, &types.Chunk{
			Name:      sectionHeading,
			NodeType:  types.NodeDocument,
			Content:   strings.Join(body, "\n"),
			StartLine: sectionStart + 1,
			EndLine:   endExclusive,
			Summary:   sectionHeading,
		})
	}

	for i, line := range lines {
		if isMarkdownHeading(line) {
			closeSection(i)
			sectionStart = i
			sectionHeading = strings.TrimSpace(strings.TrimLeft(line, "#"))
		}
	}
	end := len(lines)
	if end > 0 && lines[end-1] == "" {
		end--
	}
	closeSection(end)
	return chunks
}

func isMarkdownHeading(line string) bool {
	return strings.HasPrefix(line, "# ") || strings.HasPrefix(line, "## ")
}

func chunkTypeScript(content string) []*types.Chunk {
	lines := strings.Split(content, "\n")
	var chunks []*types.Chunk

	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if !isTSFunctionStart(trimmed) && !isTSComponentStart(trimmed) {
			continue
		}
		name := extractTSName(trimmed, i)
		end := findBlockEnd(lines, i)
		chunks = append(chunks, &types.Chunk{
			Name:      name,
			NodeType:  types.NodeFunction,
			Content:   strings.Join(lines[i:end+1], "\n"),
			StartLine: i + 1,
			EndLine:   end + 1,
			Summary:   buildSummary(name, types.NodeFunction, lines[i]),
		})
		i = end
	}
	return chunks
}

func isTSFunctionStart(trimmed string) bool {
	switch {
	case strings.HasPrefix(trimmed, "export function "):
	case strings.HasPrefix(trimmed, "function "):
	case strings.HasPrefix(trimmed, "export const "):
	case strings.HasPrefix(trimmed, "const "):
	default:
		return false
	}
	return strings.Contains(trimmed, "=>") || strings.Contains(trimmed, "(")
}

func isTSComponentStart(trimmed string) bool {
	return strings.HasPrefix(trimmed, "export default function ") || strings.HasPrefix(trimmed, "export default class ")
}

var tsNameKeywords = []string{"function ", "const ", "class "}

func extractTSName(trimmed string, lineIndex int) string {
	for _, kw := range tsNameKeywords {
		idx := strings.Index(trimmed, kw)
		if idx < 0 {
			continue
		}
		rest := trimmed[idx+len(kw):]
		if cut := strings.IndexAny(rest, "(=:<"); cut >= 0 {
			rest = rest[:cut]
		}
		name := strings.TrimSpace(rest)
		if name != "" {
			return name
		}
	}
	return "anonymous_" + itoa(lineIndex)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

func chunkWholeFile(path, content string) []*types.Chunk {
	lines := strings.Split(content, "\n")
	name := filepath.Base(path)
	return []*types.Chunk{{
		Name:      name,
		NodeType:  types.NodeFile,
		Content:   content,
		StartLine: 1,
		EndLine:   len(lines),
		Summary:   buildSummary(name, types.NodeFile, firstNonEmpty(lines)),
	}}
}

func firstNonEmpty(lines []string) string {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return l
		}
	}
	if len(lines) > 0 {
		return lines[0]
	}
	return ""
}
