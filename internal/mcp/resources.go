// ABOUTME: MCP resource implementations for recovery scoring.
// ABOUTME: Provides the recovery://policy prescription table.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harperreed/recovery/internal/scoring"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const policyURI = "recovery://policy"

func (s *Server) registerResources() {
	// recovery://policy - category thresholds and training modifiers
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         policyURI,
		Name:        "Recovery Policy",
		Description: "Score thresholds per category and the intensity and volume modifiers each prescribes",
		MIMEType:    "application/json",
	}, s.handlePolicyResource)
}

type policyEntry struct {
	scoring.Policy
	MinScore int `json:"min_score"`
	MaxScore int `json:"max_score"`
}

func (s *Server) handlePolicyResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	var entries []policyEntry
	for _, p := range scoring.PolicyTable() {
		lo, hi := scoring.CategoryRange(p.Category)
		entries = append(entries, policyEntry{Policy: p, MinScore: lo, MaxScore: hi})
	}

	result := map[string]interface{}{
		"weights":  scoring.DefaultWeights,
		"policies": entries,
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      policyURI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
