package session

import "sync"

type draftKey struct {
	candidateID string
	index       int
}

// Drafts buffers in-progress answer text so an expiring timer can submit it.
// Drafts live in memory only.
type Drafts struct {
	mu   sync.Mutex
	text map[draftKey]string
}

// NewDrafts returns an empty buffer.
func NewDrafts() *Drafts {
	return &Drafts{text: make(map[draftKey]string)}
}

// Set replaces the buffered text for a question.
func (d *Drafts) Set(candidateID string, index int, text string) {
	d.mu.Lock()
	d.text[draftKey{candidateID, index}] = text
	d.mu.Unlock()
}

// Get returns the buffered text, or "" when nothing was typed.
func (d *Drafts) Get(candidateID string, index int) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text[draftKey{candidateID, index}]
}

// Clear drops the buffered text for a question.
func (d *Drafts) Clear(candidateID string, index int) {
	d.mu.Lock()
	delete(d.text, draftKey{candidateID, index})
	d.mu.Unlock()
}

// Forget drops every draft of a candidate.
func (d *Drafts) Forget(candidateID string) {
	d.mu.Lock()
	for k := range d.text {
		if k.candidateID == candidateID {
			delete(d.text, k)
		}
	}
	d.mu.Unlock()
}
