package key

import (
	"fmt"
	"sync"

	"github.com/dshills/chordpack/internal/logging"
)

// Cache memoizes accelerator parsing for one platform. Accelerator text is
// cached as written; each chord is also interned by its normalized text
// so identical chords spelled differently share one entry.
//
// A Cache is safe for concurrent use. Create one per application and pass
// it to the keymaps and processors that parse accelerator text.
type Cache struct {
	platform Platform
	log      *logging.Logger

	mu         sync.Mutex
	sequences  map[string]Sequence
	keystrokes map[string]Keystroke
	hits       int
	misses     int
}

// NewCache returns an empty cache for platform p.
func NewCache(p Platform, log *logging.Logger) *Cache {
	return &Cache{
		platform:   p,
		log:        log,
		sequences:  make(map[string]Sequence),
		keystrokes: make(map[string]Keystroke),
	}
}

// Platform returns the platform the cache parses for.
func (c *Cache) Platform() Platform {
	return c.platform
}

// Parse parses accelerator text, consulting the cache first. The returned
// sequence is a copy the caller may keep.
func (c *Cache) Parse(spec string) (Sequence, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq, ok := c.sequences[spec]; ok {
		c.hits++
		return seq.Clone(), nil
	}
	c.misses++

	seq, err := Parse(c.platform, spec)
	if err != nil {
		return nil, err
	}
	for i, k := range seq {
		seq[i] = c.internLocked(k)
	}
	c.sequences[spec] = seq
	c.log.Debug("accelerator %q parsed as %s", spec, seq.Emacs(c.platform))
	return seq.Clone(), nil
}

// Keystroke parses accelerator text holding exactly one chord.
func (c *Cache) Keystroke(spec string) (Keystroke, error) {
	seq, err := c.Parse(spec)
	if err != nil {
		return Keystroke{}, err
	}
	if len(seq) != 1 {
		return Keystroke{}, fmt.Errorf("%w: %q holds %d keystrokes", ErrInvalidSpec, spec, len(seq))
	}
	return seq[0], nil
}

// Intern returns the canonical keystroke for k's normalized text.
func (c *Cache) Intern(k Keystroke) Keystroke {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.internLocked(k)
}

func (c *Cache) internLocked(k Keystroke) Keystroke {
	text := k.Emacs(c.platform)
	if cached, ok := c.keystrokes[text]; ok {
		return cached
	}
	c.keystrokes[text] = k
	return k
}

// Stats returns the number of cached accelerators and keystrokes and the
// hit and miss counts of Parse.
func (c *Cache) Stats() (sequences, keystrokes, hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sequences), len(c.keystrokes), c.hits, c.misses
}

// Reset empties the cache.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sequences = make(map[string]Sequence)
	c.keystrokes = make(map[string]Keystroke)
	c.hits, c.misses = 0, 0
}
