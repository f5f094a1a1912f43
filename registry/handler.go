package registry

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/joelanford/ngsi-client-go/api"
)

const (
	entityPrefix     = "/contextEntities/type/"
	collectionPrefix = "/contextEntityTypes/"

	reasonNotFound = "No context element found"
)

var statusOK = api.StatusCode{Code: api.CodeOK, ReasonPhrase: "OK"}

// Handler serves the context entities API. Broker paths may sit below any
// prefix, so both /contextEntities/... and /v1/contextEntities/... resolve.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(resp http.ResponseWriter, req *http.Request) {
		if r.AuthToken != "" && req.Header.Get("X-Auth-Token") != r.AuthToken {
			r.writeJSON(resp, http.StatusUnauthorized, api.StatusCode{Code: "401", ReasonPhrase: "Unauthorized"})
			return
		}

		path := req.URL.Path
		switch {
		case path == "/version":
			r.serveVersion(resp, req)
		case strings.Contains(path, entityPrefix):
			r.serveEntity(resp, req, path[strings.Index(path, entityPrefix)+len(entityPrefix):])
		case strings.Contains(path, collectionPrefix):
			r.serveCollection(resp, req, path[strings.Index(path, collectionPrefix)+len(collectionPrefix):])
		default:
			http.NotFound(resp, req)
		}
	})
}

func (r *Registry) serveEntity(resp http.ResponseWriter, req *http.Request, rest string) {
	// rest is "{type}/id/{type}:{id}"
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] != "id" || parts[2] == "" {
		http.NotFound(resp, req)
		return
	}
	entityType, qualifiedID := parts[0], parts[2]
	k := key{Type: entityType, ID: qualifiedID}

	switch req.Method {
	case http.MethodPost:
		var update api.UpdateRequest
		if err := json.NewDecoder(req.Body).Decode(&update); err != nil {
			http.Error(resp, fmt.Sprintf("decode update: %v", err), http.StatusBadRequest)
			return
		}
		rec := r.upsertAttributes(entityType, qualifiedID, update.Attributes)
		r.Log.V(1).Info("upserted entity", "type", entityType, "id", qualifiedID, "attributes", len(rec.Attributes))

		// The broker echoes attribute names and types without values.
		echoed := make([]api.Attribute, 0, len(update.Attributes))
		for _, a := range update.Attributes {
			echoed = append(echoed, api.Attribute{Name: a.Name, Type: a.Type})
		}
		r.writeJSON(resp, http.StatusOK, api.ContextResponses{
			ContextResponses: []api.ContextElementResponse{{
				ContextElement: api.ContextElement{ID: qualifiedID, Type: entityType, IsPattern: "false", Attributes: echoed},
				StatusCode:     statusOK,
			}},
		})
	case http.MethodGet:
		rec, ok := r.entities.GetCheck(k)
		if !ok {
			r.writeJSON(resp, http.StatusOK, api.ContextElementResponse{
				ContextElement: api.ContextElement{ID: qualifiedID, Type: entityType, IsPattern: "false", Attributes: []api.Attribute{}},
				StatusCode:     notFound(qualifiedID),
			})
			return
		}
		r.writeJSON(resp, http.StatusOK, api.ContextElementResponse{
			ContextElement: element(rec),
			StatusCode:     statusOK,
		})
	case http.MethodDelete:
		r.failures.Delete(k)
		if !r.entities.Delete(k) {
			r.writeJSON(resp, http.StatusOK, notFound(qualifiedID))
			return
		}
		r.Log.V(1).Info("deleted entity", "type", entityType, "id", qualifiedID)
		r.writeJSON(resp, http.StatusOK, statusOK)
	default:
		resp.Header().Set("Allow", "GET, POST, DELETE")
		http.Error(resp, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

func (r *Registry) serveCollection(resp http.ResponseWriter, req *http.Request, entityType string) {
	if req.Method != http.MethodGet {
		resp.Header().Set("Allow", "GET")
		http.Error(resp, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	if entityType == "" || strings.Contains(entityType, "/") {
		http.NotFound(resp, req)
		return
	}

	records := r.records(entityType)
	if len(records) == 0 {
		missing := api.StatusCode{Code: api.CodeNotFound, ReasonPhrase: reasonNotFound}
		r.writeJSON(resp, http.StatusOK, api.ContextResponses{ErrorCode: &missing})
		return
	}

	out := api.ContextResponses{ContextResponses: make([]api.ContextElementResponse, 0, len(records))}
	for _, rec := range records {
		status := statusOK
		if failed, ok := r.failures.GetCheck(key{Type: rec.Type, ID: rec.ID}); ok {
			status = failed
		}
		out.ContextResponses = append(out.ContextResponses, api.ContextElementResponse{
			ContextElement: element(rec),
			StatusCode:     status,
		})
	}
	r.writeJSON(resp, http.StatusOK, out)
}

func (r *Registry) serveVersion(resp http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		resp.Header().Set("Allow", "GET")
		http.Error(resp, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	var v api.VersionResponse
	v.Orion.Version = r.Version
	if v.Orion.Version == "" {
		v.Orion.Version = DefaultVersion
	}
	r.writeJSON(resp, http.StatusOK, v)
}

func (r *Registry) writeJSON(resp http.ResponseWriter, status int, v any) {
	resp.Header().Set("Content-Type", "application/json")
	resp.WriteHeader(status)
	enc := json.NewEncoder(resp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		r.Log.Error(err, "error encoding response")
	}
}

func element(rec *record) api.ContextElement {
	return api.ContextElement{
		ID:         rec.ID,
		Type:       rec.Type,
		IsPattern:  "false",
		Attributes: append([]api.Attribute{}, rec.Attributes...),
	}
}

func notFound(qualifiedID string) api.StatusCode {
	return api.StatusCode{
		Code:         api.CodeNotFound,
		ReasonPhrase: reasonNotFound,
		Details:      fmt.Sprintf("Entity id: /%s/", qualifiedID),
	}
}
