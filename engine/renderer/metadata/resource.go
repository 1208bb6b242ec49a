package metadata

type ResourceType int

/** @brief Pre-defined resource types. */
const (
	/** @brief Unknown files are not indexed. */
	ResourceTypeNone ResourceType = iota
	/** @brief Mesh resource type (vertices and indices of one geometry). */
	ResourceTypeMesh
)

/**
 * @brief A generic structure for a resource. All resource loaders
 * load data into these.
 */
type Resource struct {
	/** @brief The name of the resource. */
	Name string
	/** @brief The full file path of the resource. */
	FullPath string
	/** @brief The resource type. */
	Type ResourceType
	/** @brief The resource data. */
	Data interface{}
}
