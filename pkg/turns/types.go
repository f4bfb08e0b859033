package turns

// BlockKind discriminates the kinds of blocks a Turn can carry.
type BlockKind string

const (
	BlockKindSystem   BlockKind = "system"
	BlockKindUser     BlockKind = "user"
	BlockKindLLMText  BlockKind = "llm_text"
	BlockKindToolCall BlockKind = "tool_call"
	BlockKindToolUse  BlockKind = "tool_use"
)

// Block represents a single atomic unit within a Turn.
type Block struct {
	ID      string         `yaml:"id,omitempty" json:"id,omitempty"`
	Kind    BlockKind      `yaml:"kind" json:"kind"`
	Role    string         `yaml:"role,omitempty" json:"role,omitempty"`
	Payload map[string]any `yaml:"payload,omitempty" json:"payload,omitempty"`
}

// Turn contains an ordered list of Blocks plus the per-query data payload.
//
// A Turn is owned by exactly one query loop invocation. It is never shared
// across concurrent queries and is discarded when the loop returns.
type Turn struct {
	ID     string         `yaml:"id,omitempty" json:"id,omitempty"`
	Blocks []Block        `yaml:"blocks" json:"blocks"`
	Data   map[string]any `yaml:"data,omitempty" json:"data,omitempty"`
}

// Standard keys used in Block.Payload maps.
const (
	PayloadKeyText   = "text"
	PayloadKeyID     = "id"
	PayloadKeyName   = "name"
	PayloadKeyArgs   = "args"
	PayloadKeyResult = "result"
	PayloadKeyError  = "error"
)

// Keys used in Turn.Data.
const (
	DataKeyToolRegistry = "tool_registry"
	DataKeyQueryID      = "query_id"
)

// Role string constants used for chat roles in blocks.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Clone returns a deep copy of the Turn suitable for mutation without
// affecting the original. Payload and Data values are copied one level deep;
// reference-typed values inside remain shared.
func (t *Turn) Clone() *Turn {
	if t == nil {
		return nil
	}
	out := &Turn{ID: t.ID}
	if t.Data != nil {
		out.Data = make(map[string]any, len(t.Data))
		for k, v := range t.Data {
			out.Data[k] = v
		}
	}
	if len(t.Blocks) == 0 {
		return out
	}
	out.Blocks = make([]Block, len(t.Blocks))
	for i := range t.Blocks {
		b := t.Blocks[i]
		if b.Payload != nil {
			cp := make(map[string]any, len(b.Payload))
			for k, v := range b.Payload {
				cp[k] = v
			}
			b.Payload = cp
		}
		out.Blocks[i] = b
	}
	return out
}

// AppendBlock appends a Block to a Turn.
func AppendBlock(t *Turn, b Block) {
	t.Blocks = append(t.Blocks, b)
}

// AppendBlocks appends multiple Blocks in order.
func AppendBlocks(t *Turn, blocks ...Block) {
	for _, b := range blocks {
		AppendBlock(t, b)
	}
}

// FindBlocksByKind returns blocks of the requested kinds in block order.
func FindBlocksByKind(t *Turn, kinds ...BlockKind) []Block {
	lookup := map[BlockKind]bool{}
	for _, k := range kinds {
		lookup[k] = true
	}
	ret := make([]Block, 0, len(t.Blocks))
	for _, b := range t.Blocks {
		if lookup[b.Kind] {
			ret = append(ret, b)
		}
	}
	return ret
}

// LastAssistantText returns the text of the last llm_text block, or "".
func LastAssistantText(t *Turn) string {
	for i := len(t.Blocks) - 1; i >= 0; i-- {
		b := t.Blocks[i]
		if b.Kind != BlockKindLLMText {
			continue
		}
		if s, ok := b.Payload[PayloadKeyText].(string); ok {
			return s
		}
	}
	return ""
}
