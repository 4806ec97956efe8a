package carto

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gi8lino/tilecarto/internal/namedmap"
	"github.com/gi8lino/tilecarto/internal/protocols"
)

// Supported connection string schemes.
const (
	SchemeByName   = "cartodb"
	SchemeByConfig = "cartodb+file"
)

// DefaultHostname is used when neither the connection string nor the defaults name a host.
const DefaultHostname = "cartodb.com"

// Mode selects how a descriptor is resolved.
type Mode int

const (
	ModeByName Mode = iota
	ModeByConfig

	modeUnknown Mode = -1
)

func (m Mode) String() string {
	switch m {
	case ModeByName:
		return SchemeByName
	case ModeByConfig:
		return SchemeByConfig
	default:
		return "unknown"
	}
}

// Defaults are process-wide fallbacks for values missing from a connection string.
type Defaults struct {
	Username string
	APIKey   string
	Hostname string
}

// Descriptor holds everything needed for one resolution.
type Descriptor struct {
	Username string
	APIKey   string
	Hostname string
	Scale    int
	Mode     Mode

	MapName    string             // ModeByName
	ConfigPath string             // ModeByConfig, loaded when MapConfig is nil
	MapConfig  namedmap.MapConfig // ModeByConfig, must carry a name
}

// ParseURI decomposes a cartodb:// or cartodb+file:// connection string.
// The scheme is checked before anything else is parsed.
func ParseURI(raw string) (Descriptor, error) {
	scheme, err := protocols.Scheme(raw)
	if err != nil {
		return Descriptor{}, err
	}

	var d Descriptor
	switch scheme {
	case SchemeByName:
		d.Mode = ModeByName
	case SchemeByConfig:
		d.Mode = ModeByConfig
	default:
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Descriptor{}, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}

	if u.User != nil {
		d.Username = u.User.Username()
		d.APIKey, _ = u.User.Password()
	}

	d.Scale, err = parseScale(u.Query().Get("scale"))
	if err != nil {
		return Descriptor{}, err
	}

	switch d.Mode {
	case ModeByName:
		d.Hostname = u.Hostname()
		d.MapName = strings.TrimPrefix(u.Path, "/")
	case ModeByConfig:
		// host and path together locate the document; the API host comes from defaults.
		d.ConfigPath = filepath.Join(u.Host, u.Path)
	}
	return d, nil
}

// ConnectionString returns the cartodb:// form of a by-name descriptor.
func (d Descriptor) ConnectionString() string {
	u := url.URL{
		Scheme:   SchemeByName,
		User:     url.UserPassword(d.Username, d.APIKey),
		Host:     d.Hostname,
		Path:     "/" + d.MapName,
		RawQuery: "scale=" + strconv.Itoa(d.Scale),
	}
	return u.String()
}

// withDefaults fills empty fields from defaults and checks credentials.
func (d Descriptor) withDefaults(def Defaults) (Descriptor, error) {
	d.Username = firstNonEmpty(d.Username, def.Username)
	d.APIKey = firstNonEmpty(d.APIKey, def.APIKey)

	switch d.Mode {
	case ModeByConfig:
		d.Hostname = firstNonEmpty(def.Hostname, DefaultHostname)
	default:
		d.Hostname = firstNonEmpty(d.Hostname, def.Hostname, DefaultHostname)
	}

	if d.Scale == 0 {
		d.Scale = 1
	}

	var missing []string
	if d.Username == "" {
		missing = append(missing, "username")
	}
	if d.APIKey == "" {
		missing = append(missing, "api key")
	}
	if len(missing) > 0 {
		return d, fmt.Errorf("%w: %s required", ErrMissingCredentials, strings.Join(missing, " and "))
	}

	if d.Scale < 1 {
		return d, fmt.Errorf("%w: scale must be >= 1, got %d", ErrInvalidDescriptor, d.Scale)
	}
	switch d.Mode {
	case ModeByName:
		if d.MapName == "" {
			return d, fmt.Errorf("%w: map name is required", ErrInvalidDescriptor)
		}
	case ModeByConfig:
		if d.MapConfig == nil && d.ConfigPath == "" {
			return d, fmt.Errorf("%w: map config or config path is required", ErrInvalidDescriptor)
		}
	default:
		return d, fmt.Errorf("%w: unknown mode %d", ErrInvalidDescriptor, d.Mode)
	}
	return d, nil
}

// parseScale parses the scale query value; empty means 1.
func parseScale(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: scale must be an integer >= 1, got %q", ErrInvalidDescriptor, s)
	}
	return n, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
