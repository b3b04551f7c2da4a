package pipeline

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterMCP registers card extraction tools on an MCP server.
func (p *Pipeline) RegisterMCP(srv *mcp.Server) {
	type extractIn struct {
		Path string `json:"path" jsonschema:"file path to extract cards from"`
	}
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "cardpipe_extract",
		Description: "Extract citation cards from a document file (docx, html).",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in extractIn) (*mcp.CallToolResult, *Document, error) {
		doc, err := p.Extract(ctx, in.Path)
		if err != nil {
			return nil, nil, err
		}
		return nil, doc, nil
	})

	type detectIn struct {
		Path string `json:"path" jsonschema:"file path to detect"`
	}
	type detectOut struct {
		Format string `json:"format"`
	}
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "cardpipe_detect",
		Description: "Detect the format of a document file from its extension.",
	}, func(_ context.Context, req *mcp.CallToolRequest, in detectIn) (*mcp.CallToolResult, detectOut, error) {
		format, err := p.Detect(in.Path)
		if err != nil {
			return nil, detectOut{}, err
		}
		return nil, detectOut{Format: string(format)}, nil
	})

	type formatsOut struct {
		Formats []string `json:"formats"`
	}
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "cardpipe_formats",
		Description: "List all supported document formats.",
	}, func(_ context.Context, req *mcp.CallToolRequest, in struct{}) (*mcp.CallToolResult, formatsOut, error) {
		return nil, formatsOut{Formats: SupportedFormats()}, nil
	})
}
