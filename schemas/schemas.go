// Package schemas embeds the JSON Schemas for resume payloads and
// coordinator commands.
package schemas

import _ "embed"

// Resume validates resume documents fetched from the service.
//
//go:embed resume.schema.json
var Resume []byte

// Command validates raw coordinator commands.
//
//go:embed command.schema.json
var Command []byte
