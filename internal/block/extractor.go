package block

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/hsn0918/mdsplit/internal/chunkerrors"
	"github.com/hsn0918/mdsplit/internal/config"
	"github.com/hsn0918/mdsplit/internal/textutil"
)

// maxLineBytes bounds a single source line; anything longer is rejected as
// InvalidEncoding rather than risking pathological scans.
const maxLineBytes = 1 << 20 // 1 MiB

// lineSpan is one line of the normalized source with its byte offsets.
type lineSpan struct {
	text  string
	start int
	end   int // exclusive, excludes the line's own newline
}

// Extract tokenizes a UTF-8 Markdown source into an ordered, covering
// sequence of blocks. The caller is expected to have already normalized
// line endings (textutil.NormalizeLineEndings); Extract re-normalizes
// defensively since it is cheap and idempotent.
func Extract(source string, cfg config.ChunkConfig) ([]Block, error) {
	source = textutil.NormalizeLineEndings(source)

	if !utf8.ValidString(source) {
		return nil, chunkerrors.NewInvalidEncoding(0, "source is not valid UTF-8")
	}

	lines := splitLines(source)
	for _, ln := range lines {
		if len(ln.text) > maxLineBytes {
			return nil, chunkerrors.NewInvalidEncoding(lineNumber(lines, ln), "line exceeds 1 MiB")
		}
	}

	s := &scanner{source: source, lines: lines, cfg: cfg}
	s.run()
	return s.blocks, nil
}

func lineNumber(lines []lineSpan, target lineSpan) int {
	for i, ln := range lines {
		if ln.start == target.start {
			return i + 1
		}
	}
	return 0
}

func splitLines(source string) []lineSpan {
	var out []lineSpan
	start := 0
	for start <= len(source) {
		idx := strings.IndexByte(source[start:], '\n')
		if idx < 0 {
			if start == len(source) && len(out) > 0 {
				break
			}
			out = append(out, lineSpan{text: source[start:], start: start, end: len(source)})
			break
		}
		end := start + idx
		out = append(out, lineSpan{text: source[start:end], start: start, end: end})
		start = end + 1
	}
	return out
}

type scanner struct {
	source string
	lines  []lineSpan
	cfg    config.ChunkConfig
	pos    int
	blocks []Block
}

func (s *scanner) run() {
	for s.pos < len(s.lines) {
		switch {
		case isBlank(s.lines[s.pos].text):
			s.consumeBlank()
		case s.atPos(s.pos):
			s.dispatch(s.pos)
		default:
			s.consumeParagraph()
		}
	}
}

// atPos reports (without consuming) whether a non-paragraph, non-blank rule
// matches starting at lines[idx]. dispatch performs the actual consumption
// for whichever rule matched.
func (s *scanner) atPos(idx int) bool {
	return s.matchFence(idx) || s.matchATX(idx) || s.matchSetext(idx) != 0 ||
		s.matchTable(idx) || matchListStart(s.lines[idx].text) ||
		matchBlockquoteStart(s.lines[idx].text) ||
		(s.cfg.DetectURLPools && s.matchURLPoolStart(idx))
}

func (s *scanner) dispatch(idx int) {
	switch {
	case s.matchFence(idx):
		s.consumeFence()
	case s.matchATX(idx):
		s.consumeATX()
	case s.matchSetext(idx) != 0:
		s.consumeSetext(s.matchSetext(idx))
	case s.matchTable(idx):
		s.consumeTable()
	case matchListStart(s.lines[idx].text):
		s.consumeList()
	case matchBlockquoteStart(s.lines[idx].text):
		s.consumeBlockquote()
	case s.cfg.DetectURLPools && s.matchURLPoolStart(idx):
		s.consumeURLPool()
	}
}

func (s *scanner) spanBlock(kind Kind, startIdx, endIdx int) Block {
	startLine := s.lines[startIdx]
	endLine := s.lines[endIdx]
	content := s.source[startLine.start:endLine.end]
	b := newBlock(kind, content, startIdx+1, endIdx+1, startLine.start, endLine.end)
	switch kind {
	case KindParagraph, KindList, KindBlockquote, KindHeader, KindTable:
		b.HasLinks = scanLinks(content)
	}
	return b
}

func (s *scanner) append(b Block) {
	s.blocks = append(s.blocks, b)
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

func (s *scanner) consumeBlank() {
	start := s.pos
	for s.pos < len(s.lines) && isBlank(s.lines[s.pos].text) {
		s.pos++
	}
	s.append(s.spanBlock(KindBlank, start, s.pos-1))
}

func (s *scanner) consumeParagraph() {
	start := s.pos
	s.pos++
	for s.pos < len(s.lines) && !isBlank(s.lines[s.pos].text) {
		if s.atPos(s.pos) {
			break
		}
		s.pos++
	}
	s.append(s.spanBlock(KindParagraph, start, s.pos-1))
}

// --- Fenced code -----------------------------------------------------

func (s *scanner) matchFence(idx int) bool {
	_, _, _, ok := matchFenceOpen(s.lines[idx].text)
	return ok
}

func matchFenceOpen(line string) (ch rune, length int, lang string, ok bool) {
	t := strings.TrimSpace(line)
	if t == "" {
		return 0, 0, "", false
	}
	ch = rune(t[0])
	if ch != '`' && ch != '~' {
		return 0, 0, "", false
	}
	i := 0
	for i < len(t) && rune(t[i]) == ch {
		i++
	}
	if i < 3 {
		return 0, 0, "", false
	}
	rest := strings.TrimSpace(t[i:])
	if ch == '`' && strings.ContainsRune(rest, '`') {
		// A backtick fence's info string may not itself contain a backtick.
		return 0, 0, "", false
	}
	return ch, i, rest, true
}

func matchFenceClose(line string, openChar rune, openLen int) bool {
	t := strings.TrimSpace(line)
	if t == "" {
		return false
	}
	ch := rune(t[0])
	if ch != openChar {
		return false
	}
	i := 0
	for i < len(t) && rune(t[i]) == ch {
		i++
	}
	return i == len(t) && i >= openLen
}

func (s *scanner) consumeFence() {
	start := s.pos
	ch, length, lang, _ := matchFenceOpen(s.lines[s.pos].text)
	s.pos++
	unclosed := true
	for s.pos < len(s.lines) {
		if matchFenceClose(s.lines[s.pos].text, ch, length) {
			s.pos++
			unclosed = false
			break
		}
		s.pos++
	}
	b := s.spanBlock(KindCode, start, s.pos-1)
	b.Code = &CodeInfo{FenceChar: ch, FenceLength: length, Language: lang, Unclosed: unclosed}
	s.append(b)
}

// --- ATX header --------------------------------------------------------

func (s *scanner) matchATX(idx int) bool {
	_, _, ok := matchATXHeader(s.lines[idx].text)
	return ok
}

func matchATXHeader(line string) (level int, text string, ok bool) {
	trimmedLeft := strings.TrimLeft(line, " ")
	if len(line)-len(trimmedLeft) > 3 {
		return 0, "", false
	}
	i := 0
	for i < len(trimmedLeft) && trimmedLeft[i] == '#' {
		i++
	}
	if i == 0 || i > 6 {
		return 0, "", false
	}
	if i >= len(trimmedLeft) {
		return i, "", true
	}
	if trimmedLeft[i] != ' ' && trimmedLeft[i] != '\t' {
		return 0, "", false
	}
	rest := strings.TrimSpace(trimmedLeft[i:])
	rest = strings.TrimRight(rest, "#")
	rest = strings.TrimRight(rest, " \t")
	return i, rest, true
}

func (s *scanner) consumeATX() {
	level, text, _ := matchATXHeader(s.lines[s.pos].text)
	b := s.spanBlock(KindHeader, s.pos, s.pos)
	b.Header = &HeaderInfo{Level: level, Text: text}
	s.pos++
	s.append(b)
}

// --- Setext header -------------------------------------------------------

// matchSetext returns 1 for an H1 underline, 2 for an H2 underline, 0 for
// no match.
func (s *scanner) matchSetext(idx int) int {
	if idx+1 >= len(s.lines) {
		return 0
	}
	if isBlank(s.lines[idx].text) {
		return 0
	}
	next := strings.TrimSpace(s.lines[idx+1].text)
	if next == "" {
		return 0
	}
	allEq, allDash := true, true
	for _, r := range next {
		if r != '=' {
			allEq = false
		}
		if r != '-' {
			allDash = false
		}
	}
	if allEq {
		return 1
	}
	if allDash {
		return 2
	}
	return 0
}

func (s *scanner) consumeSetext(level int) {
	text := strings.TrimSpace(s.lines[s.pos].text)
	b := s.spanBlock(KindHeader, s.pos, s.pos+1)
	b.Header = &HeaderInfo{Level: level, Text: text}
	s.pos += 2
	s.append(b)
}

// --- Table ---------------------------------------------------------------

func (s *scanner) matchTable(idx int) bool {
	line := s.lines[idx].text
	if !strings.Contains(line, "|") {
		return false
	}
	if len(splitTableCells(line)) < 2 {
		return false
	}
	if idx+1 >= len(s.lines) {
		return false
	}
	return isTableSeparator(s.lines[idx+1].text)
}

func splitTableCells(line string) []string {
	t := strings.Trim(strings.TrimSpace(line), "|")
	if t == "" {
		return nil
	}
	return strings.Split(t, "|")
}

func isTableSeparator(line string) bool {
	parts := splitTableCells(line)
	if len(parts) < 2 {
		return false
	}
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || !strings.Contains(p, "-") {
			return false
		}
		for i, r := range p {
			if r == ':' && (i == 0 || i == len(p)-1) {
				continue
			}
			if r == '-' {
				continue
			}
			return false
		}
	}
	return true
}

func (s *scanner) consumeTable() {
	start := s.pos
	s.pos += 2 // header row + separator row
	for s.pos < len(s.lines) {
		t := s.lines[s.pos].text
		if isBlank(t) || !strings.Contains(t, "|") {
			break
		}
		s.pos++
	}
	s.append(s.spanBlock(KindTable, start, s.pos-1))
}

// --- List ------------------------------------------------------------

var orderedMarker = regexp.MustCompile(`^\d+\.\s`)

func matchListStart(line string) bool {
	t := strings.TrimLeft(line, " \t")
	if t == "" {
		return false
	}
	if t[0] == '-' || t[0] == '*' || t[0] == '+' {
		return len(t) > 1 && (t[1] == ' ' || t[1] == '\t')
	}
	return orderedMarker.MatchString(t)
}

// IsListItemStart reports whether line begins a new list item, exported
// for the chunker's item-aware sub-splitting of oversize list blocks.
func IsListItemStart(line string) bool { return matchListStart(line) }

// LeadingSpaces returns the count of leading space/tab bytes in line,
// exported for the same reason as IsListItemStart.
func LeadingSpaces(line string) int { return leadingSpaces(line) }

func isIndentedContinuation(line string) bool {
	return line != "" && (line[0] == ' ' || line[0] == '\t')
}

func (s *scanner) consumeList() {
	start := s.pos
	ordered := isOrderedMarker(s.lines[s.pos].text)
	nestingMax := 0

	for s.pos < len(s.lines) {
		t := s.lines[s.pos].text
		if isBlank(t) {
			j := s.pos
			for j < len(s.lines) && isBlank(s.lines[j].text) {
				j++
			}
			if j >= len(s.lines) {
				break
			}
			nt := s.lines[j].text
			if matchListStart(nt) || isIndentedContinuation(nt) {
				s.pos = j
				continue
			}
			break
		}
		if matchListStart(t) {
			if indent := leadingSpaces(t); indent/2 > nestingMax {
				nestingMax = indent / 2
			}
			s.pos++
			continue
		}
		if isIndentedContinuation(t) {
			s.pos++
			continue
		}
		break
	}

	b := s.spanBlock(KindList, start, s.pos-1)
	b.List = &ListInfo{Ordered: ordered, NestingMax: nestingMax}
	s.append(b)
}

func isOrderedMarker(line string) bool {
	t := strings.TrimLeft(line, " \t")
	return orderedMarker.MatchString(t)
}

func leadingSpaces(line string) int {
	n := 0
	for n < len(line) && (line[n] == ' ' || line[n] == '\t') {
		n++
	}
	return n
}

// --- Blockquote ------------------------------------------------------

func matchBlockquoteStart(line string) bool {
	t := strings.TrimLeft(line, " ")
	return strings.HasPrefix(t, ">")
}

func (s *scanner) consumeBlockquote() {
	start := s.pos
	for s.pos < len(s.lines) && matchBlockquoteStart(s.lines[s.pos].text) {
		s.pos++
	}
	s.append(s.spanBlock(KindBlockquote, start, s.pos-1))
}

// --- URL pool (opt-in) -------------------------------------------------

var urlOnlyLine = regexp.MustCompile(`^(https?://\S+)(\s+[-–—]\s+\S.*)?$`)

func (s *scanner) matchURLPoolStart(idx int) bool {
	if !urlOnlyLine.MatchString(strings.TrimSpace(s.lines[idx].text)) {
		return false
	}
	_, count := s.urlPoolRun(idx)
	return count >= 3
}

func (s *scanner) urlPoolRun(idx int) (end, count int) {
	j := idx
	lastURL := -1
	for j < len(s.lines) {
		t := strings.TrimSpace(s.lines[j].text)
		if t == "" {
			j++
			continue
		}
		if urlOnlyLine.MatchString(t) {
			count++
			lastURL = j
			j++
			continue
		}
		break
	}
	if lastURL == -1 {
		return idx, 0
	}
	return lastURL, count
}

func (s *scanner) consumeURLPool() {
	end, _ := s.urlPoolRun(s.pos)
	s.append(s.spanBlock(KindURLPool, s.pos, end))
	s.pos = end + 1
}
