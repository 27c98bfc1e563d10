package api

import (
	"net/http"

	"github.com/nerrad567/mqtt-topics-translator/internal/mapping"
)

// MappingsResponse is the body of GET /api/v1/mappings.
type MappingsResponse struct {
	Description  string         `json:"description,omitempty"`
	Translations []mapping.Rule `json:"translations"`
	Count        int            `json:"count"`
}

func (s *Server) handleListMappings(w http.ResponseWriter, _ *http.Request) {
	rules := s.table.Rules()
	writeJSON(w, http.StatusOK, MappingsResponse{
		Description:  s.table.Description(),
		Translations: rules,
		Count:        len(rules),
	})
}
