package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	uriScheme      = "corpusqa://"
	corpusURI      = uriScheme + "corpus"
	documentPrefix = uriScheme + "documents/"
)

func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         corpusURI,
		Name:        "corpus",
		Description: "Size and load time of the corpus being served",
		MIMEType:    "application/json",
	}, s.handleCorpusResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: documentPrefix + "{id}",
		Name:        "document",
		Description: "Full text of one corpus document",
		MIMEType:    "text/plain",
	}, s.handleDocumentResource)
}

func (s *Server) handleCorpusResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(s.engine.Stats(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling corpus stats: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

func (s *Server) handleDocumentResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id := strings.TrimPrefix(req.Params.URI, documentPrefix)
	if id == req.Params.URI || id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	text, ok := s.engine.Document(id)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     text,
		}},
	}, nil
}
