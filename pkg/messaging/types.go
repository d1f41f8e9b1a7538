package messaging

type ChangeTopic string

const (
	SearchTracked        ChangeTopic = "tracking"
	HierarchyInvalidated ChangeTopic = "hierarchy_invalidated"
)
