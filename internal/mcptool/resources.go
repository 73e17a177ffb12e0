package mcptool

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const modelsResourceURI = "models://openrouter"

func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         modelsResourceURI,
		Name:        "openrouter-models",
		Description: "The aggregator's current model catalog as JSON.",
		MIMEType:    "application/json",
	}, s.readModels)
}

func (s *Server) readModels(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	models, err := s.chatService().ListModels(ctx, "")
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(models, "", "  ")
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      modelsResourceURI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
