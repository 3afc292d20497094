package schemas

import "embed"

// SchemasFS holds event contracts laid out as events/<event-name>/v<major>.json
//
//go:embed events
var SchemasFS embed.FS
