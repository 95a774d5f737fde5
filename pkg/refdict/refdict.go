// Package refdict supplies the known-object-name dictionary used for
// best-effort lint of box texts and for declaring port counts at
// placement time.
//
// The dictionary is deliberately pluggable: the set of valid Max
// objects is open-ended (externals, packages, version differences), so
// a built-in table of common objects is only a floor. When a Max
// installation is configured, the dictionary widens itself by scanning
// the reference-page directory and the packages directory; scan
// results are cached between invocations through [cache.Cache].
package refdict

import (
	"strings"
	"sync"
)

// Entry declares an object's port counts.
// CountUnknown marks a count the dictionary does not know.
type Entry struct {
	Inlets  int `json:"inlets"`
	Outlets int `json:"outlets"`
}

// CountUnknown mirrors patch.PortCountUnknown without importing it;
// the dictionary is independent of the graph model.
const CountUnknown = -1

// Dictionary maps Max object names to port-count entries.
// A Dictionary is safe for concurrent lookups after construction;
// Add and Merge are not safe to race with lookups.
type Dictionary struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New creates an empty dictionary.
func New() *Dictionary {
	return &Dictionary{entries: make(map[string]Entry)}
}

// Builtin returns a dictionary pre-populated with common Max objects
// and their port counts.
func Builtin() *Dictionary {
	d := New()
	for name, e := range builtinObjects {
		d.entries[name] = e
	}
	return d
}

// Lookup returns the entry for the object name.
func (d *Dictionary) Lookup(name string) (Entry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.entries[name]
	return e, ok
}

// Known reports whether the object name is recognized. Its signature
// matches the lookup the consistency checker accepts.
func (d *Dictionary) Known(name string) bool {
	_, ok := d.Lookup(name)
	return ok
}

// Counts returns the declared port counts for a full box text,
// resolving the object name from its first token. Unrecognized names
// yield CountUnknown for both.
func (d *Dictionary) Counts(text string) (inlets, outlets int) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return CountUnknown, CountUnknown
	}
	e, ok := d.Lookup(fields[0])
	if !ok {
		return CountUnknown, CountUnknown
	}
	return e.Inlets, e.Outlets
}

// Add records an entry, replacing any existing one.
func (d *Dictionary) Add(name string, e Entry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[name] = e
}

// Merge records names with unknown port counts, keeping existing
// entries (which may carry counts) untouched.
func (d *Dictionary) Merge(names []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, name := range names {
		if _, ok := d.entries[name]; !ok {
			d.entries[name] = Entry{Inlets: CountUnknown, Outlets: CountUnknown}
		}
	}
}

// Len returns the number of known names.
func (d *Dictionary) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

// builtinObjects covers the Max objects the tool is most likely to
// place. Counts follow the stock Max reference; this is a lint floor,
// not an exhaustive catalog.
var builtinObjects = map[string]Entry{
	// MSP signal objects
	"cycle~":    {2, 1},
	"saw~":      {2, 1},
	"rect~":     {3, 1},
	"tri~":      {3, 1},
	"noise~":    {1, 1},
	"phasor~":   {2, 1},
	"sig~":      {1, 1},
	"line~":     {2, 2},
	"adsr~":     {4, 3},
	"*~":        {2, 1},
	"+~":        {2, 1},
	"-~":        {2, 1},
	"/~":        {2, 1},
	"gain~":     {2, 2},
	"ezdac~":    {2, 0},
	"ezadc~":    {1, 2},
	"dac~":      {2, 0},
	"adc~":      {1, 2},
	"delay~":    {2, 1},
	"tapin~":    {1, 1},
	"tapout~":   {1, 1},
	"lores~":    {3, 1},
	"svf~":      {3, 4},
	"biquad~":   {6, 1},
	"scope~":    {2, 0},
	"meter~":    {1, 1},
	"snapshot~": {2, 1},
	"sfplay~":   {1, 2},
	"groove~":   {3, 3},
	"buffer~":   {1, 2},
	"record~":   {3, 1},
	"receive~":  {1, 1},
	"send~":     {1, 0},

	// Timing and control
	"metro":     {2, 1},
	"counter":   {5, 4},
	"delay":     {2, 1},
	"pipe":      {2, 2},
	"clocker":   {2, 1},
	"transport": {1, 10},

	// Data and math
	"int":     {2, 1},
	"float":   {2, 1},
	"+":       {2, 1},
	"-":       {2, 1},
	"*":       {2, 1},
	"/":       {2, 1},
	"scale":   {6, 1},
	"clip":    {3, 1},
	"random":  {3, 1},
	"drunk":   {3, 1},
	"zl":      {2, 2},
	"pack":    {2, 1},
	"unpack":  {1, 2},
	"route":   {2, 2},
	"select":  {2, 2},
	"gate":    {2, 1},
	"switch":  {3, 1},
	"trigger": {1, 2},
	"t":       {1, 2},

	// UI and messaging
	"button":      {1, 1},
	"toggle":      {1, 1},
	"message":     {2, 1},
	"comment":     {1, 0},
	"flonum":      {2, 2},
	"number":      {2, 2},
	"slider":      {2, 1},
	"dial":        {2, 1},
	"umenu":       {1, 3},
	"loadbang":    {1, 1},
	"loadmess":    {1, 1},
	"print":       {1, 0},
	"send":        {1, 0},
	"receive":     {1, 1},
	"s":           {1, 0},
	"r":           {1, 1},
	"patcher":     {1, 1},
	"p":           {1, 1},
	"inlet":       {0, 1},
	"outlet":      {1, 0},
	"js":          {1, 1},
	"coll":        {1, 4},
	"dict":        {2, 4},
	"live.dial":   {2, 2},
	"live.gain~":  {3, 5},
	"live.slider": {2, 2},
}
