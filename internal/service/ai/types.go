package ai

// Role tags a message in a generation request.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// Request is a provider-neutral generation call: ordered role-tagged messages
// plus the generation knobs.
type Request struct {
	Stage           string
	Messages        []Message
	MaxOutputTokens int
	Temperature     float32
	JSON            bool
	Model           string
}

// GenerateMetadata contains metadata about the generation
type GenerateMetadata struct {
	Provider     string
	Model        string
	UsedFallback bool
}

type Response struct {
	Text     string
	Metadata GenerateMetadata
}

type ProviderResult struct {
	Text  string
	Model string
}

// SystemPrompt joins every system message; providers that take a single
// system instruction use it.
func (r Request) SystemPrompt() string {
	var out string
	for _, m := range r.Messages {
		if m.Role != RoleSystem || m.Content == "" {
			continue
		}
		if out != "" {
			out += "\n\n"
		}
		out += m.Content
	}
	return out
}
