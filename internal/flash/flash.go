// Package flash stores one-shot notifications in session state so the next
// request can render them.
//
// A message lives under "Flash.<key>". With stacking enabled every message
// of a key gets its own numbered entry "Flash.<key>.<index>".
package flash

import (
	"errors"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// NoIndex is returned by Set when stacking is disabled.
const NoIndex = -1

const sessionRoot = "Flash"

// Message is a stored flash message.
type Message struct {
	Message string         `json:"message"`
	Key     string         `json:"key"`
	Element string         `json:"element"`
	Params  map[string]any `json:"params"`
}

// Type returns the element name without plugin and folder.
func (m Message) Type() string {
	if i := strings.LastIndex(m.Element, "/"); i >= 0 {
		return m.Element[i+1:]
	}
	return m.Element
}

// Entry is a message together with its stack index. Index is NoIndex for a
// single message.
type Entry struct {
	Index int
	Message
}

// Stacking configures message stacking.
type Stacking struct {
	Enabled bool `koanf:"enabled"`
	Limit   int  `koanf:"limit"`
}

// Config holds the defaults applied to every message.
type Config struct {
	Key      string         `koanf:"key"`
	Element  string         `koanf:"element"`
	Params   map[string]any `koanf:"params"`
	Stacking Stacking       `koanf:"stacking"`
}

// DefaultConfig returns the default flash configuration.
func DefaultConfig() Config {
	return Config{
		Key:      "flash",
		Element:  "default",
		Params:   map[string]any{},
		Stacking: Stacking{Enabled: false, Limit: 50},
	}
}

// Coder is implemented by errors carrying a numeric code.
type Coder interface {
	Code() int
}

// Flash writes and reads flash messages in a Store.
type Flash struct {
	store  Store
	cfg    Config
	logger *slog.Logger
}

// New creates a Flash over store. Zero fields of cfg take their defaults.
// If logger is nil, a discard logger is used.
func New(store Store, cfg Config, logger *slog.Logger) *Flash {
	def := DefaultConfig()
	if cfg.Key == "" {
		cfg.Key = def.Key
	}
	if cfg.Element == "" {
		cfg.Element = def.Element
	}
	if cfg.Params == nil {
		cfg.Params = def.Params
	}
	if cfg.Stacking.Limit <= 0 {
		cfg.Stacking.Limit = def.Stacking.Limit
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Flash{store: store, cfg: cfg, logger: logger}
}

// Config returns the effective configuration.
func (f *Flash) Config() Config { return f.cfg }

type options struct {
	key     string
	element string
	plugin  string
	params  map[string]any
}

// Option customizes a single message.
type Option func(*options)

// WithKey stores the message under key instead of the configured one.
func WithKey(key string) Option {
	return func(o *options) { o.key = key }
}

// WithElement sets the element used to render the message. "Plugin.name"
// selects an element of a plugin.
func WithElement(element string) Option {
	return func(o *options) { o.element = element }
}

// WithPlugin renders the message with an element of plugin.
func WithPlugin(plugin string) Option {
	return func(o *options) { o.plugin = plugin }
}

// WithParams replaces the configured params.
func WithParams(params map[string]any) Option {
	return func(o *options) { o.params = params }
}

func (f *Flash) options(opts []Option) options {
	o := options{key: f.cfg.Key, element: f.cfg.Element, params: f.cfg.Params}
	for _, opt := range opts {
		opt(&o)
	}
	if o.key == "" {
		o.key = f.cfg.Key
	}
	return o
}

// elementPath resolves the element name to its "Flash/" path.
func (o options) elementPath() string {
	plugin, name := o.plugin, o.element
	if i := strings.Index(name, "."); i >= 0 {
		if plugin == "" {
			plugin = name[:i]
		}
		name = name[i+1:]
	}
	if plugin != "" {
		return plugin + "." + sessionRoot + "/" + name
	}
	return sessionRoot + "/" + name
}

// Set stores message and returns its stack index, or NoIndex when stacking
// is disabled.
func (f *Flash) Set(message string, opts ...Option) int {
	o := f.options(opts)
	return f.write(message, o, maps.Clone(o.params))
}

// SetError stores err's message. The code of an error implementing Coder is
// added to the params as "code" unless already present.
func (f *Flash) SetError(err error, opts ...Option) int {
	o := f.options(opts)
	params := maps.Clone(o.params)
	if params == nil {
		params = map[string]any{}
	}
	var c Coder
	if errors.As(err, &c) {
		if _, ok := params["code"]; !ok {
			params["code"] = c.Code()
		}
	}
	return f.write(err.Error(), o, params)
}

// Success stores a message rendered with the success element.
func (f *Flash) Success(message string, opts ...Option) int {
	return f.typed("success", message, opts)
}

// Error stores a message rendered with the error element.
func (f *Flash) Error(message string, opts ...Option) int {
	return f.typed("error", message, opts)
}

// Warning stores a message rendered with the warning element.
func (f *Flash) Warning(message string, opts ...Option) int {
	return f.typed("warning", message, opts)
}

// Info stores a message rendered with the info element.
func (f *Flash) Info(message string, opts ...Option) int {
	return f.typed("info", message, opts)
}

// typed fixes the element; only the plugin part of an option survives.
func (f *Flash) typed(element, message string, opts []Option) int {
	o := f.options(opts)
	o.element = element
	return f.write(message, o, maps.Clone(o.params))
}

func (f *Flash) write(message string, o options, params map[string]any) int {
	if params == nil {
		params = map[string]any{}
	}
	msg := Message{Message: message, Key: o.key, Element: o.elementPath(), Params: params}
	base := sessionKey(o.key)

	if !f.cfg.Stacking.Enabled {
		f.deleteStack(o.key)
		f.store.Set(base, msg)
		return NoIndex
	}

	index := 0
	if single, ok := f.single(o.key); ok {
		f.store.Delete(base)
		f.store.Set(stackKey(o.key, 0), single)
		index = 1
	} else if idx := f.indices(o.key); len(idx) > 0 {
		index = idx[len(idx)-1] + 1
	}

	if index >= f.cfg.Stacking.Limit {
		index = f.trim(o.key, f.cfg.Stacking.Limit-1)
	}

	f.store.Set(stackKey(o.key, index), msg)
	return index
}

// trim drops the oldest stacked messages of key until at most keep remain,
// renumbers the rest from 0 and returns the next free index.
func (f *Flash) trim(key string, keep int) int {
	entries := f.Entries(key)
	drop := max(len(entries)-keep, 0)
	f.logger.Debug("flash stack limit reached",
		slog.String("key", key), slog.Int("dropped", drop))

	f.deleteStack(key)
	for i, e := range entries[drop:] {
		f.store.Set(stackKey(key, i), e.Message)
	}
	return len(entries) - drop
}

// Entries returns the messages of key with their indices, ordered by index.
func (f *Flash) Entries(key string) []Entry {
	key = f.key(key)
	if m, ok := f.single(key); ok {
		return []Entry{{Index: NoIndex, Message: m}}
	}
	idx := f.indices(key)
	entries := make([]Entry, 0, len(idx))
	for _, i := range idx {
		v, _ := f.store.Get(stackKey(key, i))
		if m, ok := v.(Message); ok {
			entries = append(entries, Entry{Index: i, Message: m})
		}
	}
	return entries
}

// Read returns the messages of key ordered by index.
func (f *Flash) Read(key string) []Message {
	entries := f.Entries(key)
	if len(entries) == 0 {
		return nil
	}
	out := make([]Message, len(entries))
	for i, e := range entries {
		out[i] = e.Message
	}
	return out
}

// Consume reads the messages of key and deletes them.
func (f *Flash) Consume(key string) []Message {
	msgs := f.Read(key)
	f.Delete(key)
	return msgs
}

// Delete removes every message of key.
func (f *Flash) Delete(key string) {
	key = f.key(key)
	f.store.Delete(sessionKey(key))
	f.deleteStack(key)
}

// DeleteAt removes the stacked message at index. The remaining indices are
// kept as they are.
func (f *Flash) DeleteAt(key string, index int) {
	f.store.Delete(stackKey(f.key(key), index))
}

// Clear removes the messages of key rendered with the element typ.
func (f *Flash) Clear(typ, key string) {
	key = f.key(key)
	for _, e := range f.Entries(key) {
		if e.Type() != typ {
			continue
		}
		if e.Index == NoIndex {
			f.store.Delete(sessionKey(key))
		} else {
			f.DeleteAt(key, e.Index)
		}
	}
}

// Keys returns the flash keys holding at least one message, sorted.
func (f *Flash) Keys() []string {
	seen := map[string]struct{}{}
	for _, k := range f.store.Keys() {
		rest, ok := strings.CutPrefix(k, sessionRoot+".")
		if !ok || rest == "" {
			continue
		}
		if i := strings.LastIndex(rest, "."); i > 0 {
			if _, err := strconv.Atoi(rest[i+1:]); err == nil {
				rest = rest[:i]
			}
		}
		seen[rest] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

func (f *Flash) key(key string) string {
	if key == "" {
		return f.cfg.Key
	}
	return key
}

func (f *Flash) single(key string) (Message, bool) {
	v, ok := f.store.Get(sessionKey(key))
	if !ok {
		return Message{}, false
	}
	m, ok := v.(Message)
	return m, ok
}

// indices returns the stack indices of key in ascending order.
func (f *Flash) indices(key string) []int {
	prefix := sessionKey(key) + "."
	var idx []int
	for _, k := range f.store.Keys() {
		rest, ok := strings.CutPrefix(k, prefix)
		if !ok {
			continue
		}
		if i, err := strconv.Atoi(rest); err == nil && i >= 0 {
			idx = append(idx, i)
		}
	}
	slices.Sort(idx)
	return idx
}

func (f *Flash) deleteStack(key string) {
	for _, i := range f.indices(key) {
		f.store.Delete(stackKey(key, i))
	}
}

func sessionKey(key string) string {
	return sessionRoot + "." + key
}

func stackKey(key string, index int) string {
	return sessionKey(key) + "." + strconv.Itoa(index)
}
