// Package locale holds the read-only lookup tables the parser resolves
// countries, states and currencies against.
package locale

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/biter777/countries"
	"gopkg.in/yaml.v3"

	"github.com/postal-parser/internal/normalizer"
)

//go:embed data/provinces.yaml
var provincesYAML []byte

// Country is an ISO 3166-1 alpha-2 code.
type Country string

const (
	Canada       Country = "CA"
	UnitedStates Country = "US"
)

func (c Country) String() string { return string(c) }

type provinceFile struct {
	Version   string                       `yaml:"version"`
	Countries map[string]map[string]string `yaml:"countries"`
}

type nameEntry struct {
	key     string
	country Country
}

type countryInfo struct {
	name     string
	alpha3   string
	currency string
}

// Table is built once and never mutated, so it is safe for concurrent use.
type Table struct {
	version string

	// sorted by key for binary search
	names []nameEntry

	info       map[Country]countryInfo
	states     map[Country]map[string]string
	canonical  map[Country][]string
	byCurrency map[string][]Country
	stateOrder []Country
}

var (
	defaultTable *Table
	defaultOnce  sync.Once
)

// Default returns the table built from the embedded province data.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := Load(provincesYAML)
		if err != nil {
			panic(fmt.Sprintf("locale: embedded province data is invalid: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}

// Load builds a table from a province YAML document and the ISO country list.
func Load(data []byte) (*Table, error) {
	var file provinceFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode province data: %w", err)
	}

	t := &Table{
		version:    file.Version,
		info:       make(map[Country]countryInfo),
		states:     make(map[Country]map[string]string),
		canonical:  make(map[Country][]string),
		byCurrency: make(map[string][]Country),
	}
	if t.version == "" {
		sum := sha256.Sum256(data)
		t.version = hex.EncodeToString(sum[:4])
	}

	t.loadCountries()

	for code, aliases := range file.Countries {
		country := Country(strings.ToUpper(code))
		if _, ok := t.info[country]; !ok {
			return nil, fmt.Errorf("unknown country code %q in province data", code)
		}
		if err := t.addStates(country, aliases); err != nil {
			return nil, err
		}
		t.stateOrder = append(t.stateOrder, country)
	}
	sort.Slice(t.stateOrder, func(i, j int) bool { return t.stateOrder[i] < t.stateOrder[j] })

	return t, nil
}

func (t *Table) loadCountries() {
	seen := make(map[string]bool)
	add := func(text string, c Country) {
		key := normalizer.FoldKey(text)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		t.names = append(t.names, nameEntry{key: key, country: c})
	}

	for _, cc := range countries.All() {
		if cc == countries.Unknown {
			continue
		}
		c := Country(cc.Alpha2())
		info := countryInfo{
			name:   cc.Info().Name,
			alpha3: cc.Alpha3(),
		}
		if cur := cc.Currency().Alpha(); len(cur) == 3 {
			info.currency = cur
			t.byCurrency[cur] = append(t.byCurrency[cur], c)
		}
		t.info[c] = info

		add(info.name, c)
		add(cc.Alpha2(), c)
		add(cc.Alpha3(), c)
	}

	sort.Slice(t.names, func(i, j int) bool { return t.names[i].key < t.names[j].key })
	for cur := range t.byCurrency {
		list := t.byCurrency[cur]
		sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
	}
}

func (t *Table) addStates(c Country, aliases map[string]string) error {
	m := make(map[string]string, len(aliases)*2)
	set := func(alias, canonical string) error {
		key := normalizer.FoldKey(alias)
		if prev, ok := m[key]; ok && prev != canonical {
			return fmt.Errorf("%s: alias %q maps to both %q and %q", c, alias, prev, canonical)
		}
		m[key] = canonical
		return nil
	}

	names := make(map[string]bool)
	for alias, canonical := range aliases {
		canonical = strings.TrimSpace(canonical)
		if canonical == "" {
			return fmt.Errorf("%s: alias %q has no canonical name", c, alias)
		}
		if err := set(alias, canonical); err != nil {
			return err
		}
		if err := set(canonical, canonical); err != nil {
			return err
		}
		names[canonical] = true
	}

	list := make([]string, 0, len(names))
	for n := range names {
		list = append(list, n)
	}
	sort.Strings(list)

	t.states[c] = m
	t.canonical[c] = list
	return nil
}

// Version identifies the province data the table was built from.
func (t *Table) Version() string { return t.version }

// LookupCountry resolves a single token (name, alpha-2 or alpha-3 code,
// case-insensitive) to a country.
func (t *Table) LookupCountry(text string) (Country, bool) {
	key := normalizer.FoldKey(text)
	if key == "" {
		return "", false
	}
	i := sort.Search(len(t.names), func(i int) bool { return t.names[i].key >= key })
	if i < len(t.names) && t.names[i].key == key {
		return t.names[i].country, true
	}
	return "", false
}

// IsCountry reports whether text is any recognized country name or code.
func (t *Table) IsCountry(text string) bool {
	_, ok := t.LookupCountry(text)
	return ok
}

// Names reports whether text names country c.
func (t *Table) Names(text string, c Country) bool {
	got, ok := t.LookupCountry(text)
	return ok && got == c
}

// CountryName returns the English short name of c.
func (t *Table) CountryName(c Country) string {
	return t.info[c].name
}

// Alpha3 returns the ISO alpha-3 code of c.
func (t *Table) Alpha3(c Country) string {
	return t.info[c].alpha3
}

// Known reports whether c is an ISO country of the table.
func (t *Table) Known(c Country) bool {
	_, ok := t.info[c]
	return ok
}

// State resolves alias to the canonical state name within country c.
func (t *Table) State(c Country, alias string) (string, bool) {
	m, ok := t.states[c]
	if !ok {
		return "", false
	}
	canonical, ok := m[normalizer.FoldKey(alias)]
	return canonical, ok
}

// States lists the canonical state names of c in alphabetical order.
func (t *Table) States(c Country) []string {
	return append([]string(nil), t.canonical[c]...)
}

// StateCountries lists the countries that have a state table, sorted by code.
func (t *Table) StateCountries() []Country {
	return append([]Country(nil), t.stateOrder...)
}

// Currency returns the ISO 4217 code used by c.
func (t *Table) Currency(c Country) (string, bool) {
	cur := t.info[c].currency
	return cur, cur != ""
}

// Countries lists the countries using the given ISO 4217 currency code.
func (t *Table) Countries(currency string) []Country {
	return append([]Country(nil), t.byCurrency[strings.ToUpper(strings.TrimSpace(currency))]...)
}
