package model

// Document keys of the prompt template set
const (
	CategorizationPromptKey = "categorization_prompt"
	ActionPromptKey         = "action_prompt"
	AutoReplyPromptKey      = "auto_reply_prompt"
)

// Template placeholders
const (
	EmailTextPlaceholder       = "{email_text}"
	UserInstructionPlaceholder = "{user_instruction}"
)

// PromptSet maps document keys to prompt templates
type PromptSet map[string]string

// Template returns the template stored under key
func (p PromptSet) Template(key string) (string, bool) {
	t, ok := p[key]
	return t, ok
}

// PromptRow is the SQL representation of one template
type PromptRow struct {
	Name     string `gorm:"primaryKey;type:varchar(64)"`
	Template string `gorm:"type:text"`
}

// TableName specifies the table name for PromptRow
func (PromptRow) TableName() string {
	return "prompts"
}
