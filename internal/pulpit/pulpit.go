// Package pulpit splits a note into heading-delimited sections and steps
// through them one at a time for presenting from the pulpit.
package pulpit

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/starford/pulpitgraph/internal/markdown"
)

// Font size bounds of the presenter, in pixels.
const (
	MinFontSize     = 16
	MaxFontSize     = 48
	FontStep        = 2
	DefaultFontSize = 24
)

var headingRe = regexp.MustCompile(`^#{1,6} `)

// Sections splits content before every ATX heading line. Text before the
// first heading forms a leading section unless it is blank. Content with
// no sections yields a single section holding the whole content.
func Sections(content string) []string {
	var sections []string
	var cur []string
	flush := func() {
		if len(cur) == 0 {
			return
		}
		s := strings.Join(cur, "\n")
		if len(sections) > 0 || strings.TrimSpace(s) != "" {
			sections = append(sections, s)
		}
		cur = nil
	}
	for _, line := range strings.Split(content, "\n") {
		if headingRe.MatchString(line) {
			flush()
		}
		cur = append(cur, line)
	}
	flush()
	if len(sections) == 0 {
		return []string{content}
	}
	return sections
}

// ClampFontSize bounds size to the presenter range and snaps it to the step.
func ClampFontSize(size int) int {
	size = max(MinFontSize, min(MaxFontSize, size))
	return MinFontSize + (size-MinFontSize)/FontStep*FontStep
}

// Presenter is the pulpit view state for one note.
type Presenter struct {
	mu       sync.Mutex
	sections []string
	current  int
	fontSize int
}

// NewPresenter starts on the first section at the default font size.
func NewPresenter(content string) *Presenter {
	return &Presenter{sections: Sections(content), fontSize: DefaultFontSize}
}

// Len returns the number of sections.
func (p *Presenter) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sections)
}

// Index returns the zero-based current section.
func (p *Presenter) Index() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Next advances one section and reports whether it moved. It stops at the last section.
func (p *Presenter) Next() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current >= len(p.sections)-1 {
		return false
	}
	p.current++
	return true
}

// Prev goes back one section and reports whether it moved. It stops at the first section.
func (p *Presenter) Prev() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == 0 {
		return false
	}
	p.current--
	return true
}

// Goto jumps to section i, clamped to the valid range.
func (p *Presenter) Goto(i int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = max(0, min(len(p.sections)-1, i))
}

// Position renders the stepper label, e.g. "2 / 5".
func (p *Presenter) Position() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fmt.Sprintf("%d / %d", p.current+1, len(p.sections))
}

func (p *Presenter) FontSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fontSize
}

// SetFontSize sets the font size, clamped and snapped, and returns the value applied.
func (p *Presenter) SetFontSize(size int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fontSize = ClampFontSize(size)
	return p.fontSize
}

// Section returns the Markdown of the current section.
func (p *Presenter) Section() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sections[p.current]
}

// Render returns the current section as pulpit HTML.
func (p *Presenter) Render() (string, error) {
	p.mu.Lock()
	src, size := p.sections[p.current], p.fontSize
	p.mu.Unlock()
	return markdown.RenderPulpit([]byte(src), size)
}
