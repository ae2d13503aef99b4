// Package bucket keeps the shared bucket list in a small JSON document on
// local disk, laid out like browser local storage: one key per list version.
package bucket

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	StorageKey = "bucketItems_v2"
	LegacyKey  = "bucketItems"
)

var (
	ErrNoItem    = errors.New("no such bucket item")
	ErrEmptyText = errors.New("bucket item text is empty")
)

// Category groups items into tabs.
type Category string

const (
	Do    Category = "do"
	Go    Category = "go"
	Eat   Category = "eat"
	Watch Category = "watch"
)

// Categories lists the tabs in display order.
var Categories = []Category{Do, Go, Eat, Watch}

// ParseCategory maps unknown names to Do.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case Do, Go, Eat, Watch:
		return c
	}
	return Do
}

// Seeds is the list shown before anything has been saved.
var Seeds = []Item{
	{Text: "Watch the sunrise together", Category: Do},
	{Text: "Road trip up the coast", Category: Go},
	{Text: "Find the best ramen in town", Category: Eat},
	{Text: "Rewatch our first movie", Category: Watch},
}

// Item is one thing on the list.
type Item struct {
	Text     string   `json:"text"`
	Done     bool     `json:"done"`
	Category Category `json:"category"`
}

// Entry is an item with its position in the whole list.
type Entry struct {
	Index int `json:"index"`
	Item
}

// List is the bucket list. An empty path keeps it in memory only.
type List struct {
	mu    sync.Mutex
	path  string
	items []Item
}

// Open loads the list stored at path. A missing or unreadable document falls
// back to seeds; a legacy single-list document is migrated into Do.
func Open(path string, seeds []Item) (*List, error) {
	l := &List{path: path}
	var doc []byte
	if path != "" {
		var err error
		doc, err = os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read bucket list: %w", err)
		}
	}
	l.items = load(doc, seeds)
	return l, nil
}

func load(doc []byte, seeds []Item) []Item {
	if len(doc) == 0 || !gjson.ValidBytes(doc) {
		return append([]Item(nil), seeds...)
	}

	if v := gjson.GetBytes(doc, StorageKey); v.IsArray() {
		items := []Item{}
		v.ForEach(func(_, r gjson.Result) bool {
			items = append(items, Item{
				Text:     r.Get("text").String(),
				Done:     r.Get("done").Bool(),
				Category: ParseCategory(r.Get("category").String()),
			})
			return true
		})
		return items
	}

	if v := gjson.GetBytes(doc, LegacyKey); v.IsArray() {
		items := []Item{}
		v.ForEach(func(_, r gjson.Result) bool {
			text := r.Get("text").String()
			if text == "" {
				text = "Bucket item"
			}
			items = append(items, Item{Text: text, Done: r.Get("done").Bool(), Category: Do})
			return true
		})
		return items
	}

	return append([]Item(nil), seeds...)
}

// save writes the list under StorageKey, keeping any other keys already in
// the document.
func (l *List) save() error {
	if l.path == "" {
		return nil
	}
	doc, err := os.ReadFile(l.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read bucket list: %w", err)
	}
	if len(doc) == 0 || !gjson.ValidBytes(doc) {
		doc = []byte("{}")
	}
	doc, err = sjson.SetBytes(doc, StorageKey, l.items)
	if err != nil {
		return fmt.Errorf("encode bucket list: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".bucket-*")
	if err != nil {
		return fmt.Errorf("write bucket list: %w", err)
	}
	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write bucket list: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write bucket list: %w", err)
	}
	return os.Rename(tmp.Name(), l.path)
}

// Add appends an item to category c.
func (l *List) Add(text string, c Category) (Entry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Entry{}, ErrEmptyText
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = append(l.items, Item{Text: text, Category: ParseCategory(string(c))})
	e := Entry{Index: len(l.items) - 1, Item: l.items[len(l.items)-1]}
	return e, l.save()
}

// Toggle flips the done flag of item i.
func (l *List) Toggle(i int) (Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i < 0 || i >= len(l.items) {
		return Item{}, ErrNoItem
	}
	l.items[i].Done = !l.items[i].Done
	return l.items[i], l.save()
}

// Edit replaces the text of item i. Blank text is rejected.
func (l *List) Edit(i int, text string) (Item, error) {
	text = strings.TrimSpace(text)
	l.mu.Lock()
	defer l.mu.Unlock()

	if i < 0 || i >= len(l.items) {
		return Item{}, ErrNoItem
	}
	if text == "" {
		return l.items[i], ErrEmptyText
	}
	l.items[i].Text = text
	return l.items[i], l.save()
}

// Delete removes item i; later items shift down by one.
func (l *List) Delete(i int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i < 0 || i >= len(l.items) {
		return ErrNoItem
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	return l.save()
}

// Entries returns the items of category c with their list positions.
func (l *List) Entries(c Category) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := []Entry{}
	for i, it := range l.items {
		if it.Category == c {
			out = append(out, Entry{Index: i, Item: it})
		}
	}
	return out
}

// Items returns a copy of the whole list.
func (l *List) Items() []Item {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Item(nil), l.items...)
}
