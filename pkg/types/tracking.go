package types

// Renderer receives the ordered, filtered result set. The core makes no
// assumption about how it is displayed.
type Renderer interface {
	Render(items []ResultItem, activeFilters int)
	ReportError(err error)
}

type SearchEvent struct {
	InstanceId string            `json:"instance_id"`
	Endpoint   string            `json:"endpoint"`
	Query      string            `json:"query,omitempty"`
	Params     map[string]string `json:"params,omitempty"`
	Results    int               `json:"noi"`
	Downgraded bool              `json:"downgraded,omitempty"`
}

type Tracking interface {
	TrackSearch(event SearchEvent)
	Close() error
}
