package mcpserver

import (
	"encoding/json"
	"fmt"
)

// Manifest represents the MCP server manifest (server.json) format.
// Uses schema version 2025-10-17.
type Manifest struct {
	Schema      string      `json:"$schema"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Version     string      `json:"version"`
	Repository  *Repository `json:"repository,omitempty"`
	Packages    []Package   `json:"packages,omitempty"`
	Meta        *Meta       `json:"_meta,omitempty"`
}

// Meta carries the capabilities chronicle advertises to the registry, under
// the registry's publisher-provided namespace.
type Meta struct {
	Publisher Capabilities `json:"io.modelcontextprotocol.registry/publisher-provided"`
}

// Capabilities lists the tools and prompts the server registers.
type Capabilities struct {
	Tools   []ToolInfo `json:"tools"`
	Prompts []string   `json:"prompts"`
}

// Repository contains source repository information.
type Repository struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// Package describes how to install/run the MCP server.
type Package struct {
	RegistryType     string     `json:"registryType"`
	Identifier       string     `json:"identifier"`
	PackageArguments []Argument `json:"packageArguments,omitempty"`
	Transport        Transport  `json:"transport"`
}

// Argument represents a command-line argument.
type Argument struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// Transport describes the communication method.
type Transport struct {
	Type string `json:"type"`
}

// GenerateManifest creates the MCP server manifest JSON.
func GenerateManifest(version string) ([]byte, error) {
	if version == "" {
		version = "0.0.0"
	}

	manifest := Manifest{
		Schema:      "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json",
		Name:        "io.github.panbanda/chronicle",
		Description: fmt.Sprintf("Git history analytics over %d tools: churn, complexity trends, ownership drift, burnout and risk", len(Tools())),
		Version:     version,
		Repository: &Repository{
			URL:    "https://github.com/panbanda/chronicle",
			Source: "github",
		},
		Packages: []Package{
			{
				RegistryType: "oci",
				Identifier:   "ghcr.io/panbanda/chronicle:" + version,
				PackageArguments: []Argument{
					{Type: "positional", Value: "mcp"},
				},
				Transport: Transport{Type: "stdio"},
			},
		},
		Meta: &Meta{Publisher: Capabilities{
			Tools:   Tools(),
			Prompts: PromptNames(),
		}},
	}

	return json.MarshalIndent(manifest, "", "  ")
}
