// Package data embeds the default milestone catalog
package data

import _ "embed"

//go:embed milestones.yaml
var Milestones []byte
