package carto

import "fmt"

// BuildTemplate returns the XYZ tile template for a layer group.
// A scale above 1 adds an "@{scale}x" modifier before the extension.
func BuildTemplate(username, hostname, layerGroupID string, scale int) string {
	modifier := ""
	if scale > 1 {
		modifier = fmt.Sprintf("@%dx", scale)
	}
	return fmt.Sprintf("https://%s.%s/api/v1/map/%s/{z}/{x}/{y}%s.png", username, hostname, layerGroupID, modifier)
}
