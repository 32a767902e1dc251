// Package station holds the selectable radio station catalog.
package station

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// MaxStations matches the Discord select menu option limit.
const MaxStations = 25

// DirectURLName labels inputs that resolved to a raw URL instead of a
// catalog key.
const DirectURLName = "URL Directa"

var ErrNoURL = errors.New("no stream URL resolved")

type Station struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type Catalog struct {
	stations []Station
	byKey    map[string]Station
}

var titler = cases.Title(language.Spanish)

// NewCatalog validates and indexes the station set. Keys are stored
// lowercased, so lookups are case-insensitive. Stations without a display
// name get one derived from the key.
func NewCatalog(stations []Station) (*Catalog, error) {
	if len(stations) == 0 {
		return nil, errors.New("station catalog is empty")
	}
	if len(stations) > MaxStations {
		return nil, fmt.Errorf("too many stations: %d (limit %d)", len(stations), MaxStations)
	}

	c := &Catalog{
		stations: make([]Station, 0, len(stations)),
		byKey:    make(map[string]Station, len(stations)),
	}

	for _, st := range stations {
		key := strings.ToLower(strings.TrimSpace(st.Key))
		if key == "" {
			return nil, fmt.Errorf("station %q has an empty key", st.Name)
		}
		if st.URL == "" {
			return nil, fmt.Errorf("station %q has an empty URL", key)
		}
		if _, exists := c.byKey[key]; exists {
			return nil, fmt.Errorf("duplicate station key: %s", key)
		}

		st.Key = key
		if st.Name == "" {
			st.Name = displayNameFromKey(key)
		}

		c.stations = append(c.stations, st)
		c.byKey[key] = st
	}

	return c, nil
}

// LoadFile reads a station list from a YAML file.
func LoadFile(path string) ([]Station, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stations file: %w", err)
	}

	var stations []Station
	if err := yaml.Unmarshal(data, &stations); err != nil {
		return nil, fmt.Errorf("failed to parse stations file: %w", err)
	}

	return stations, nil
}

// DefaultStations is the built-in catalog used when no stations file is
// configured.
func DefaultStations() []Station {
	return []Station{
		{Key: "rock_clasico", Name: "Rock Clásico", URL: "https://stream.rockantenne.de/rockantenne/stream/mp3"},
		{Key: "heavy_metal", Name: "Heavy Metal", URL: "https://stream.rockantenne.de/heavy-metal/stream/mp3"},
		{Key: "alternativo", Name: "Rock Alternativo", URL: "https://stream.rockantenne.de/alternative/stream/mp3"},
		{Key: "radio_paradise", Name: "Radio Paradise Rock", URL: "https://stream.radioparadise.com/rock-320"},
		{Key: "punk", Name: "Punk Rock", URL: "https://stream.rockantenne.de/punkrock/stream/mp3"},
		{Key: "jazz_fm", Name: "Jazz FM", URL: "https://jking.cdnstream1.com/b22139_128mp3"},
		{Key: "blues", Name: "Blues", URL: "https://stream.rockantenne.de/blues-rock/stream/mp3"},
		{Key: "lofi", Name: "Lofi Beats", URL: "https://streams.ilovemusic.de/iloveradio17.mp3"},
	}
}

func (c *Catalog) Stations() []Station {
	return c.stations
}

// Lookup finds a station by key, case-insensitively.
func (c *Catalog) Lookup(key string) (Station, bool) {
	st, ok := c.byKey[strings.ToLower(strings.TrimSpace(key))]
	return st, ok
}

// Resolve turns user input into a playable (display name, stream URL)
// pair. Catalog keys win; anything else is treated literally as a URL,
// stripped of the <...> delimiters used to suppress link previews.
func (c *Catalog) Resolve(input string) (name, url string, err error) {
	if st, ok := c.Lookup(input); ok {
		return st.Name, st.URL, nil
	}

	url = strings.Trim(strings.TrimSpace(input), "<>")
	if url == "" {
		return "", "", ErrNoURL
	}

	return DirectURLName, url, nil
}

func displayNameFromKey(key string) string {
	name := strings.NewReplacer("_", " ", "-", " ").Replace(key)
	return titler.String(name)
}
