package catalog

import _ "embed"

// Shipped catalog used when CATALOG_PATH is not set.
//
//go:embed default.yaml
var defaultCatalog []byte
