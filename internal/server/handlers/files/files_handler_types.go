package files

import (
	"github.com/openmined/filedrop/internal/server/files"
	"github.com/openmined/filedrop/internal/server/registry"
)

type ListResponse struct {
	Sort  registry.SortKey      `json:"sort"`
	Files []registry.FileRecord `json:"files"`
}

type UploadResponse struct {
	Saved   int                  `json:"saved"`
	Results []files.UploadResult `json:"results"`
}
