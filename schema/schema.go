// Package schema holds the JSON Schema documents that ship inside every
// ownable package. The documents are fixed by the package format, not
// introspected from compiled code; a toolchain that exposes the
// contract's declared message types may substitute derived documents as
// long as one document exists per required name.
package schema

import "encoding/json"

// Document names as they appear in the final artifact.
const (
	InstantiateMsg   = "instantiate_msg.json"
	ExecuteMsg       = "execute_msg.json"
	QueryMsg         = "query_msg.json"
	ExternalEventMsg = "external_event_msg.json"
	InfoResponse     = "info_response.json"
	Metadata         = "metadata.json"
)

// Names returns the required document names in emission order.
func Names() []string {
	return []string{
		InstantiateMsg,
		ExecuteMsg,
		QueryMsg,
		ExternalEventMsg,
		InfoResponse,
		Metadata,
	}
}

const draft = "http://json-schema.org/draft-07/schema#"

type obj = map[string]any

var documents = map[string]obj{
	InstantiateMsg: {
		"$schema": draft,
		"title":   "InstantiateMsg",
		"type":    "object",
		"required": []string{
			"ownable_id",
		},
		"properties": obj{
			"ownable_id":    obj{"type": "string"},
			"package":       obj{"type": "string"},
			"network_id":    obj{"type": "integer"},
			"ownable_type":  obj{"type": []string{"string", "null"}},
			"nft":           obj{"type": []string{"object", "null"}},
			"token_amount":  obj{"type": []string{"string", "null"}},
			"token_address": obj{"type": []string{"string", "null"}},
		},
	},
	ExecuteMsg: {
		"$schema":     draft,
		"title":       "ExecuteMsg",
		"description": "Contract execute variants; exactly one key per message.",
		"type":        "object",
		"minProperties": 1,
		"maxProperties": 1,
		"additionalProperties": obj{"type": "object"},
	},
	QueryMsg: {
		"$schema":     draft,
		"title":       "QueryMsg",
		"description": "Read-only query variants; exactly one key per message.",
		"type":        "object",
		"minProperties": 1,
		"maxProperties": 1,
		"additionalProperties": obj{"type": "object"},
	},
	ExternalEventMsg: {
		"$schema": draft,
		"title":   "ExternalEventMsg",
		"type":    "object",
		"required": []string{
			"event_type",
			"attributes",
		},
		"properties": obj{
			"event_type": obj{"type": "string"},
			"attributes": obj{
				"type": "array",
				"items": obj{
					"type":     "object",
					"required": []string{"key", "value"},
					"properties": obj{
						"key":   obj{"type": "string"},
						"value": obj{"type": "string"},
					},
				},
			},
			"network": obj{"type": []string{"string", "null"}},
		},
	},
	InfoResponse: {
		"$schema": draft,
		"title":   "InfoResponse",
		"type":    "object",
		"required": []string{
			"owner",
			"issuer",
		},
		"properties": obj{
			"owner":         obj{"type": "string"},
			"issuer":        obj{"type": "string"},
			"nft":           obj{"type": []string{"object", "null"}},
			"ownable_type":  obj{"type": []string{"string", "null"}},
		},
	},
	Metadata: {
		"$schema": draft,
		"title":   "Metadata",
		"type":    "object",
		"required": []string{
			"name",
		},
		"properties": obj{
			"name":        obj{"type": "string"},
			"description": obj{"type": []string{"string", "null"}},
			"image":       obj{"type": []string{"string", "null"}},
			"image_data":  obj{"type": []string{"string", "null"}},
		},
	},
}

// Documents renders every required document. Marshaling is
// deterministic: object keys are emitted sorted.
func Documents() map[string][]byte {
	out := make(map[string][]byte, len(documents))
	for name, doc := range documents {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			// documents are static literals; a marshal failure is a
			// programming error
			panic(err)
		}
		out[name] = data
	}
	return out
}

// DefaultConfig renders the default config.json document for a package
// that ships no project-supplied configuration.
func DefaultConfig(packageName, description string) []byte {
	doc := obj{
		"$schema":     "./config_schema.json",
		"name":        packageName,
		"description": description,
		"ownable_type": "basic",
		"capabilities": obj{
			"transferable": true,
			"consumable":   false,
		},
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		panic(err)
	}
	return data
}
