package dialogue

import "strings"

// Envelope markers.
const (
	headerOpen       = "[META:"
	headerClose      = "]"
	suggestionsOpen  = "[SUGGESTIONS]"
	suggestionsClose = "[/SUGGESTIONS]"
)

// maxHeaderLen bounds how much text is buffered looking for the end of a
// header before the reply is treated as headerless.
const maxHeaderLen = 256

// DefaultMaxSuggestions caps the suggestions kept from a reply.
const DefaultMaxSuggestions = 3

// ParserState is the position of the parser in the envelope.
type ParserState int

const (
	AwaitingHeader ParserState = iota
	StreamingDialogue
	AwaitingSuggestions
	Done
)

func (s ParserState) String() string {
	switch s {
	case AwaitingHeader:
		return "awaiting_header"
	case StreamingDialogue:
		return "streaming_dialogue"
	case AwaitingSuggestions:
		return "awaiting_suggestions"
	case Done:
		return "done"
	}
	return "unknown"
}

// ParserConfig wires parser output. Nil callbacks are skipped.
type ParserConfig struct {
	OnMetadata    func(Metadata)
	OnDialogue    func(fullText string) // full dialogue so far, not a delta
	OnSuggestions func([]string)

	MaxSuggestions int
}

// Parser consumes a reply chunk by chunk. Each Feed is one transition of the
// state machine; nothing is re-scanned once consumed.
type Parser struct {
	cfg   ParserConfig
	state ParserState

	buf         string // unconsumed input of the current state
	dialogue    strings.Builder
	meta        Metadata
	suggestions []string
}

// NewParser returns a parser waiting for the header.
func NewParser(cfg ParserConfig) *Parser {
	if cfg.MaxSuggestions <= 0 {
		cfg.MaxSuggestions = DefaultMaxSuggestions
	}
	return &Parser{cfg: cfg, meta: DefaultMetadata()}
}

// State returns the current parser state.
func (p *Parser) State() ParserState { return p.state }

// Metadata returns the parsed header, or defaults.
func (p *Parser) Metadata() Metadata { return p.meta }

// Dialogue returns the dialogue text emitted so far.
func (p *Parser) Dialogue() string { return strings.TrimSpace(p.dialogue.String()) }

// Suggestions returns the parsed suggestions.
func (p *Parser) Suggestions() []string { return p.suggestions }

// Feed consumes the next chunk of the reply.
func (p *Parser) Feed(chunk string) {
	if p.state == Done {
		return
	}
	p.buf += chunk
	for p.step() {
	}
}

// step runs one transition. It reports whether another step may make progress.
func (p *Parser) step() bool {
	switch p.state {
	case AwaitingHeader:
		return p.stepHeader()
	case StreamingDialogue:
		return p.stepDialogue()
	case AwaitingSuggestions:
		return p.stepSuggestions()
	}
	return false
}

func (p *Parser) stepHeader() bool {
	lead := strings.TrimLeft(p.buf, " \t\r\n")
	if lead == "" {
		return false
	}
	if strings.HasPrefix(lead, headerOpen) {
		end := strings.Index(lead, headerClose)
		if end < 0 {
			if len(lead) > maxHeaderLen {
				p.headerless()
				return true
			}
			return false
		}
		p.setMetadata(parseHeader(lead[len(headerOpen):end]))
		p.buf = lead[end+len(headerClose):]
		p.state = StreamingDialogue
		return true
	}
	if strings.HasPrefix(headerOpen, lead) {
		// Partial "[META" so far.
		return false
	}
	p.headerless()
	return true
}

// headerless switches to dialogue with default metadata and keeps the
// buffered text as dialogue.
func (p *Parser) headerless() {
	p.setMetadata(DefaultMetadata())
	p.state = StreamingDialogue
}

func (p *Parser) setMetadata(m Metadata) {
	p.meta = m
	if p.cfg.OnMetadata != nil {
		p.cfg.OnMetadata(m)
	}
}

func (p *Parser) stepDialogue() bool {
	if i := strings.Index(p.buf, suggestionsOpen); i >= 0 {
		p.emitDialogue(p.buf[:i])
		p.buf = p.buf[i+len(suggestionsOpen):]
		p.state = AwaitingSuggestions
		return true
	}
	// Hold back a possible split marker so it never shows as dialogue.
	hold := partialSuffix(p.buf, suggestionsOpen)
	p.emitDialogue(p.buf[:len(p.buf)-hold])
	p.buf = p.buf[len(p.buf)-hold:]
	return false
}

func (p *Parser) emitDialogue(text string) {
	if text == "" {
		return
	}
	before := p.Dialogue()
	p.dialogue.WriteString(text)
	if after := p.Dialogue(); after != before && p.cfg.OnDialogue != nil {
		p.cfg.OnDialogue(after)
	}
}

func (p *Parser) stepSuggestions() bool {
	i := strings.Index(p.buf, suggestionsClose)
	if i < 0 {
		return false
	}
	p.finishSuggestions(p.buf[:i])
	return false
}

func (p *Parser) finishSuggestions(block string) {
	p.suggestions = parseSuggestions(block, p.cfg.MaxSuggestions)
	p.buf = ""
	p.state = Done
	if p.cfg.OnSuggestions != nil {
		p.cfg.OnSuggestions(p.suggestions)
	}
}

// Close ends the reply. Held-back text is released as dialogue and an
// unterminated suggestions block is parsed as is.
func (p *Parser) Close() {
	switch p.state {
	case AwaitingHeader:
		lead := strings.TrimSpace(p.buf)
		p.headerless()
		if strings.HasPrefix(lead, headerOpen) || strings.HasPrefix(headerOpen, lead) {
			// An unfinished header is not dialogue.
			p.buf = ""
		}
		p.emitDialogue(p.buf)
	case StreamingDialogue:
		p.emitDialogue(p.buf)
	case AwaitingSuggestions:
		p.finishSuggestions(p.buf)
	}
	p.buf = ""
	p.state = Done
}

// partialSuffix returns the length of the longest proper prefix of marker
// that s ends with.
func partialSuffix(s, marker string) int {
	for n := min(len(marker)-1, len(s)); n > 0; n-- {
		if strings.HasSuffix(s, marker[:n]) {
			return n
		}
	}
	return 0
}
