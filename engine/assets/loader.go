package assets

import "github.com/spaghettifunk/glmesh/engine/renderer/metadata"

type Loader interface {
	Load(path string, assetType metadata.ResourceType) (*metadata.Resource, error)
}
