package wled

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Artifact names one configuration document a WLED device exposes
type Artifact string

const (
	// ArtifactConfig is the device configuration served at /cfg.json
	ArtifactConfig Artifact = "cfg"

	// ArtifactPresets is the preset library served at /presets.json
	ArtifactPresets Artifact = "presets"

	// ArtifactState is the state document pushed on the /ws websocket
	ArtifactState Artifact = "state"
)

// DefaultArtifacts are fetched when no artifact list is configured
var DefaultArtifacts = []Artifact{ArtifactConfig, ArtifactPresets}

// knownArtifacts lists every supported artifact in fetch order
var knownArtifacts = []Artifact{ArtifactConfig, ArtifactPresets, ArtifactState}

// Path returns the HTTP path of the artifact, or "" for websocket artifacts
func (a Artifact) Path() string {
	switch a {
	case ArtifactConfig:
		return "/cfg.json"
	case ArtifactPresets:
		return "/presets.json"
	default:
		return ""
	}
}

// Valid reports whether the artifact is supported
func (a Artifact) Valid() bool {
	for _, known := range knownArtifacts {
		if a == known {
			return true
		}
	}
	return false
}

// ParseArtifacts parses artifact names ("cfg", "presets", "state"). The result
// always starts with the config artifact, which identifies the device, and
// contains no duplicates. An empty list yields DefaultArtifacts.
func ParseArtifacts(names []string) ([]Artifact, error) {
	if len(names) == 0 {
		return append([]Artifact(nil), DefaultArtifacts...), nil
	}

	wanted := map[Artifact]bool{ArtifactConfig: true}
	for _, name := range names {
		a := Artifact(strings.ToLower(strings.TrimSpace(name)))
		if a == "" {
			continue
		}
		if !a.Valid() {
			return nil, fmt.Errorf("unknown artifact %q (valid: cfg, presets, state)", name)
		}
		wanted[a] = true
	}

	artifacts := make([]Artifact, 0, len(wanted))
	for _, a := range knownArtifacts {
		if wanted[a] {
			artifacts = append(artifacts, a)
		}
	}
	return artifacts, nil
}

// DeviceName extracts the device's self-reported name (id.name) from a
// cfg.json payload. It fails if the payload is not a JSON object, either field
// is missing, the name is not a string, or the name is blank.
func DeviceName(cfg []byte) (string, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(cfg, &root); err != nil {
		return "", NewParseError("cfg.json is not a JSON object", err)
	}

	idRaw, ok := root["id"]
	if !ok {
		return "", NewParseError("missing 'id' field in cfg.json", nil)
	}
	var id map[string]json.RawMessage
	if err := json.Unmarshal(idRaw, &id); err != nil || id == nil {
		return "", NewParseError("expected 'id' to be an object in cfg.json", err)
	}

	nameRaw, ok := id["name"]
	if !ok {
		return "", NewParseError("missing 'name' field in cfg.json", nil)
	}
	var name string
	if string(nameRaw) == "null" {
		return "", NewParseError("expected 'name' to be a string in cfg.json", nil)
	}
	if err := json.Unmarshal(nameRaw, &name); err != nil {
		return "", NewParseError("expected 'name' to be a string in cfg.json", nil)
	}
	if strings.TrimSpace(name) == "" {
		return "", NewParseError("device name is empty or contains only whitespace", nil)
	}
	return name, nil
}

// validateJSON rejects payloads that are not a JSON document
func validateJSON(artifact Artifact, payload []byte) error {
	if !json.Valid(payload) {
		return NewParseError(fmt.Sprintf("%s response is not valid JSON", artifact), errors.New("invalid JSON"))
	}
	return nil
}
