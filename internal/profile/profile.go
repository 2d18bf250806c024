// Package profile loads an optional on-disk server profile, repurposing
// gopkg.in/ini.v1 (the teacher's EDS-parsing dependency in od_parser.go)
// for a plain key/value file instead of a CANopen object dictionary.
package profile

import (
	"github.com/pkg/errors"
	"gopkg.in/ini.v1"

	"github.com/udpbdgo/udpbd/pkg/blockdevice"
)

// Profile is the parsed contents of a server profile file. Every key is
// optional; a key absent from the file leaves the corresponding CLI flag
// untouched.
type Profile struct {
	section *ini.Section
}

// Load reads and parses an ini-format profile file at path.
func Load(path string) (*Profile, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "profile: load %s", path)
	}
	return &Profile{section: f.Section("server")}, nil
}

// Apply overwrites any of the given settings present in the profile.
// Pointers let the caller pass its own CLI-flag-derived defaults and have
// only the keys present in the file override them.
func (p *Profile) Apply(opts *blockdevice.Options, port *int, debugHTTP *bool, debugHTTPAddr *string, logBroadcast *bool) {
	if k := p.section.Key("path"); k.String() != "" {
		opts.Path = k.String()
	}
	if k := p.section.Key("sector_size"); k.String() != "" {
		opts.SectorSize = uint32(k.MustInt(int(opts.SectorSize)))
	}
	if k := p.section.Key("read_only"); k.String() != "" {
		opts.ReadOnly = k.MustBool(opts.ReadOnly)
	}
	if k := p.section.Key("test_mode"); k.String() != "" {
		opts.TestMode = k.MustBool(opts.TestMode)
	}
	if k := p.section.Key("port"); k.String() != "" {
		*port = k.MustInt(*port)
	}
	if k := p.section.Key("debug_http"); k.String() != "" {
		*debugHTTP = k.MustBool(*debugHTTP)
	}
	if k := p.section.Key("debug_http_addr"); k.String() != "" {
		*debugHTTPAddr = k.String()
	}
	if k := p.section.Key("log_broadcast"); k.String() != "" {
		*logBroadcast = k.MustBool(*logBroadcast)
	}
}
