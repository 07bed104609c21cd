package protocol

import "encoding/json"

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	Filters         []string       `json:"filters"`
	MaxRegionVolume int            `json:"max_region_volume,omitempty"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type CatalogDigests struct {
	Materials    DigestRef `json:"materials"`
	TuningDigest string    `json:"tuning_digest,omitempty"`
}

type DigestRef struct {
	Digest string `json:"digest"`
	Count  int    `json:"count"`
}

// RUN (client -> server): apply a filter to an inline region.
type RunMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id"`
	Filter          string `json:"filter"`
	// Region is a region file body.
	Region json.RawMessage `json:"region"`
	// ReturnRegion asks for the rewritten region in the result.
	ReturnRegion bool `json:"return_region,omitempty"`
}

// RESULT (server -> client)
type ResultMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id"`
	Filter          string `json:"filter"`

	Changes []ChangeRef `json:"changes"`

	Networks *int `json:"networks,omitempty"`
	Painted  int  `json:"painted,omitempty"`
	Skipped  int  `json:"skipped,omitempty"`

	Colors   []ColorResult `json:"colors,omitempty"`
	Unpaired []uint8       `json:"unpaired,omitempty"`

	Region json.RawMessage `json:"region,omitempty"`
}

// ChangeRef carries packed voxels: material<<4 | data.
type ChangeRef struct {
	Pos  [3]int `json:"pos"`
	From uint16 `json:"from"`
	To   uint16 `json:"to"`
}

type ColorResult struct {
	Color     uint8   `json:"color"`
	Name      string  `json:"name"`
	Start     [3]int  `json:"start"`
	End       [3]int  `json:"end"`
	Guides    int     `json:"guides"`
	Reached   int     `json:"reached"`
	Placed    int     `json:"placed"`
	Repeaters int     `json:"repeaters"`
	Complete  bool    `json:"complete"`
	DeadEnd   *[3]int `json:"dead_end,omitempty"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id,omitempty"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}
