package authoring

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Library holds reusable drafts loaded from a directory of YAML files.
// A draft is addressed by its file name without extension.
type Library struct {
	mu     sync.RWMutex
	drafts map[string]*Draft
}

// NewLibrary creates an empty library
func NewLibrary() *Library {
	return &Library{drafts: make(map[string]*Draft)}
}

// LoadFromDir loads every *.yaml / *.yml draft in dir and its direct
// subdirectories. Files that fail to parse or validate are skipped and logged.
func (l *Library) LoadFromDir(dir string) error {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		for _, glob := range []string{filepath.Join(dir, pattern), filepath.Join(dir, "*", pattern)} {
			matches, err := filepath.Glob(glob)
			if err != nil {
				return fmt.Errorf("bad drafts dir %q: %w", dir, err)
			}
			files = append(files, matches...)
		}
	}

	loaded := 0
	for _, file := range files {
		if err := l.LoadFromFile(file); err != nil {
			log.Warn().Err(err).Str("file", file).Msg("Skipping draft")
			continue
		}
		loaded++
	}

	log.Info().Str("dir", dir).Int("count", loaded).Int("files", len(files)).Msg("Drafts loaded")
	return nil
}

// LoadFromFile loads and validates one draft
func (l *Library) LoadFromFile(path string) error {
	d, err := LoadDraft(path)
	if err != nil {
		return err
	}
	if err := d.Validate(); err != nil {
		return err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	l.Add(name, d)
	return nil
}

// Add stores d under name, replacing any earlier draft
func (l *Library) Add(name string, d *Draft) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.drafts[name] = d
}

// Get returns a copy of the named draft, or nil
func (l *Library) Get(name string) *Draft {
	l.mu.RLock()
	defer l.mu.RUnlock()

	d, ok := l.drafts[name]
	if !ok {
		return nil
	}
	return d.clone()
}

// Names returns the draft names, sorted
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.drafts))
	for name := range l.drafts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Summary describes a library entry without its questions
type Summary struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Phases      int    `json:"phases"`
	Questions   int    `json:"questions"`
}

// List summarizes every draft, sorted by name
func (l *Library) List() []Summary {
	names := l.Names()

	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Summary, 0, len(names))
	for _, name := range names {
		d := l.drafts[name]
		s := Summary{Name: name, Title: d.Title, Description: d.Description, Phases: len(d.Phases)}
		for _, p := range d.Phases {
			s.Questions += len(p.Questions)
		}
		out = append(out, s)
	}
	return out
}

// clone copies d deeply enough that publishing a copy with a new title
// never touches the stored draft
func (d *Draft) clone() *Draft {
	c := *d
	c.Phases = make([]PhaseDraft, len(d.Phases))
	for i, p := range d.Phases {
		p.Questions = append([]QuestionDraft(nil), p.Questions...)
		c.Phases[i] = p
	}
	return &c
}
