package api

// UpdateRequest is the body of an entity create/update call.
type UpdateRequest struct {
	Attributes []Attribute `json:"attributes"`
}

// StatusCode is the status block embedded in broker response bodies. Delete
// responses carry it at the top level.
type StatusCode struct {
	Code         Code   `json:"code"`
	ReasonPhrase string `json:"reasonPhrase,omitempty"`
	Details      string `json:"details,omitempty"`
}

type ContextElement struct {
	ID         string      `json:"id"`
	Type       string      `json:"type,omitempty"`
	IsPattern  string      `json:"isPattern,omitempty"`
	Attributes []Attribute `json:"attributes"`
}

// ContextElementResponse is returned for a single entity lookup and as one
// item of a collection lookup.
type ContextElementResponse struct {
	ContextElement ContextElement `json:"contextElement"`
	StatusCode     StatusCode     `json:"statusCode"`
}

// ContextResponses is returned for collection lookups and entity updates.
// ErrorCode is set instead of ContextResponses when the whole call failed.
type ContextResponses struct {
	ContextResponses []ContextElementResponse `json:"contextResponses,omitempty"`
	ErrorCode        *StatusCode              `json:"errorCode,omitempty"`
}

type VersionResponse struct {
	Orion struct {
		Version     string `json:"version"`
		Uptime      string `json:"uptime,omitempty"`
		GitHash     string `json:"git_hash,omitempty"`
		CompileTime string `json:"compile_time,omitempty"`
	} `json:"orion"`
}
