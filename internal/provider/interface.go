// Package provider implements the four wire-protocol adapters behind the
// model.Provider contract: OpenAI-style chat completions, Anthropic
// Messages, OpenAI Responses, and an asynchronous thread/run protocol.
//
// Every adapter owns its own HTTP client and speaks its own wire format;
// none of that leaks past this package — callers only see model.Provider,
// model.Message, and model.ChunkStream.
package provider

// Type identifies which wire-protocol adapter to construct.
type Type string

const (
	TypeOpenAIChat Type = "openai-chat"      // variant A
	TypeAnthropic  Type = "anthropic"        // variant B
	TypeOpenAIResp Type = "openai-responses" // variant C
	TypeThreadRun  Type = "threadrun"        // variant D
)

// Config holds the connection details for one provider instance. Apart
// from Type and the UseAzureCLIAuth bool, fields are plain strings (not
// provider-specific enums) since config loading and CLI flag parsing live
// outside this package's scope.
type Config struct {
	Type Type

	// Endpoint is the backend base URL. Its shape differs per Type: a
	// deployment root for TypeOpenAIChat, the API root for the others.
	Endpoint string

	APIKey string
	Model  string

	// AzureAPIVersion is required by TypeOpenAIChat's "?api-version="
	// query parameter.
	AzureAPIVersion string

	// AzureDeploymentPath is the path segment appended after the model
	// deployment name for TypeOpenAIChat, e.g. "/chat/completions".
	AzureDeploymentPath string

	// AnthropicVersion sets the anthropic-version header for TypeAnthropic.
	AnthropicVersion string

	// UseAzureCLIAuth selects the `az account get-access-token` bearer
	// flow for TypeThreadRun instead of a static api-key header.
	UseAzureCLIAuth bool
}
