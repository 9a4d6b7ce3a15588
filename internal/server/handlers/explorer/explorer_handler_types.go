package explorer

import "github.com/openmined/filedrop/internal/server/registry"

// indexData contains data for the index template
type indexData struct {
	Version          string
	Flash            string
	Sort             registry.SortKey
	SortKeys         []registry.SortKey
	Files            []registry.FileRecord
	Converted        []string
	RemoteConfigured bool
	RemoteBackend    string
	Formats          []string // conversion targets
	Allowed          []string // upload allow-list
	Editable         []string // inline create/edit extensions
}
