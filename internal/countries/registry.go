// Package countries maps the free-text country names recorded on spots to
// ISO 3166 codes and approximate centroids.
package countries

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"

	iso3166 "github.com/biter777/countries"
)

// UnknownCode is returned for names that are not in the registry.
const UnknownCode = "Unknown code"

//go:embed countries.csv
var embedded []byte

// Country is one registry row.
type Country struct {
	Name   string  `json:"name"`
	Alpha2 string  `json:"alpha2"`
	Alpha3 string  `json:"alpha3"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
}

// CountryAggregate counts the spots recorded for one country name.
type CountryAggregate struct {
	Country string `json:"country"`
	Code    string `json:"code"`
	Count   int    `json:"count"`
}

// Known reports whether the aggregate resolved to a registry entry.
func (a CountryAggregate) Known() bool {
	return a.Code != UnknownCode
}

// Registry is an immutable name and code index, safe for concurrent use.
type Registry struct {
	all    []Country
	byName map[string]Country
	byCode map[string]Country
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the registry built from the embedded table.
func Default() *Registry {
	defaultOnce.Do(func() {
		reg, err := Load(bytes.NewReader(embedded))
		if err != nil {
			panic(fmt.Sprintf("countries: embedded table: %v", err))
		}
		if missing := reg.Missing(); len(missing) > 0 {
			panic(fmt.Sprintf("countries: embedded table lacks %v", missing))
		}
		defaultReg = reg
	})
	return defaultReg
}

// Load parses a name,alpha3,lat,lon table with a header row. Every row must
// name an ISO 3166-1 country; alpha-2 codes come from the ISO data.
func Load(r io.Reader) (*Registry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 4

	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	known := isoCodes()
	reg := &Registry{
		byName: make(map[string]Country),
		byCode: make(map[string]Country),
	}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		iso, ok := known[record[1]]
		if !ok {
			return nil, fmt.Errorf("line %d: %q is not an ISO 3166-1 code", line, record[1])
		}
		lat, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: latitude: %w", line, err)
		}
		lon, err := strconv.ParseFloat(record[3], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: longitude: %w", line, err)
		}

		c := Country{Name: record[0], Alpha2: iso.Alpha2(), Alpha3: iso.Alpha3(), Lat: lat, Lon: lon}
		if _, dup := reg.byName[c.Name]; dup {
			return nil, fmt.Errorf("line %d: duplicate name %q", line, c.Name)
		}
		if _, dup := reg.byCode[c.Alpha3]; dup {
			return nil, fmt.Errorf("line %d: duplicate code %q", line, c.Alpha3)
		}
		reg.all = append(reg.all, c)
		reg.byName[c.Name] = c
		reg.byCode[c.Alpha3] = c
	}

	// The library's own spelling ("Saint Barthelemy") resolves too.
	for _, c := range reg.all {
		alias := known[c.Alpha3].String()
		if _, taken := reg.byName[alias]; !taken {
			reg.byName[alias] = c
		}
	}
	return reg, nil
}

// Missing returns the alpha-3 codes of ISO 3166-1 countries that have no row.
func (r *Registry) Missing() []string {
	var out []string
	for code := range isoCodes() {
		if _, ok := r.byCode[code]; !ok {
			out = append(out, code)
		}
	}
	sort.Strings(out)
	return out
}

// withdrawn or user-assigned codes the library still lists.
var notISO = map[iso3166.CountryCode]bool{
	iso3166.ANT: true,
	iso3166.YUG: true,
	iso3166.XKX: true,
}

func isoCodes() map[string]iso3166.CountryCode {
	out := make(map[string]iso3166.CountryCode, iso3166.Total())
	for _, c := range iso3166.All() {
		if notISO[c] {
			continue
		}
		out[c.Alpha3()] = c
	}
	return out
}

// Code returns the alpha-3 code for an exact name match, or UnknownCode.
// Names are the ISO 3166-1 short names, plus the countries library spelling.
func (r *Registry) Code(name string) string {
	if c, ok := r.byName[name]; ok {
		return c.Alpha3
	}
	return UnknownCode
}

// Lookup returns the registry row for an exact name match.
func (r *Registry) Lookup(name string) (Country, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// ByCode returns the registry row for an alpha-3 code.
func (r *Registry) ByCode(code string) (Country, bool) {
	c, ok := r.byCode[code]
	return c, ok
}

// All returns the registry rows in table order.
func (r *Registry) All() []Country {
	out := make([]Country, len(r.all))
	copy(out, r.all)
	return out
}

func (r *Registry) Len() int {
	return len(r.all)
}

// Aggregate counts names grouped by (name, code), largest count first and
// then by name. Unmatched names are kept with UnknownCode.
func (r *Registry) Aggregate(names []string) []CountryAggregate {
	counts := make(map[string]int)
	for _, n := range names {
		counts[n]++
	}

	out := make([]CountryAggregate, 0, len(counts))
	for name, n := range counts {
		out = append(out, CountryAggregate{Country: name, Code: r.Code(name), Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Country < out[j].Country
	})
	return out
}
