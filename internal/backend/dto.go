package backend

// ScriptRow is one reference row from GET /rest/v1/scripts.
// Pointer fields distinguish absent values from zero values; defaults are
// applied by the accessors below before rows enter the store.
type ScriptRow struct {
	ID             string  `json:"id"`
	Slug           string  `json:"slug"`
	Name           string  `json:"name"`
	Description    *string `json:"description"`
	Category       *string `json:"category"`
	Language       *string `json:"language"`
	Code           string  `json:"code"`
	Icon           *string `json:"icon"`
	IsActive       *bool   `json:"is_active"`
	RequiresAdmin  *bool   `json:"requires_admin"`
	EstimatedTime  *string `json:"estimated_time"`
	SuccessMessage *string `json:"success_message"`
}

// CategoryOrDefault returns the category, defaulting to "general".
func (r ScriptRow) CategoryOrDefault() string {
	if r.Category == nil || *r.Category == "" {
		return "general"
	}
	return *r.Category
}

// LanguageOrDefault returns the language tag, defaulting to "powershell".
func (r ScriptRow) LanguageOrDefault() string {
	if r.Language == nil || *r.Language == "" {
		return "powershell"
	}
	return *r.Language
}

// ActiveOrDefault returns the active flag, defaulting to true.
func (r ScriptRow) ActiveOrDefault() bool {
	if r.IsActive == nil {
		return true
	}
	return *r.IsActive
}

// AdminOrDefault returns the admin-required flag, defaulting to false.
func (r ScriptRow) AdminOrDefault() bool {
	return r.RequiresAdmin != nil && *r.RequiresAdmin
}

// deviceRow is one row from GET /rest/v1/devices.
type deviceRow struct {
	ID string `json:"id"`
}

// ActionRow is one actionable item from GET /rest/v1/remote_executions,
// with the nested reference join the backend inlines under "scripts".
type ActionRow struct {
	ID          string        `json:"id"`
	ScriptID    string        `json:"script_id"`
	Status      string        `json:"status"`
	RequestedBy *string       `json:"requested_by"`
	Script      *ScriptDetail `json:"scripts"`
}

// ScriptDetail is the nested reference lookup inside an ActionRow.
type ScriptDetail struct {
	Name     *string `json:"name"`
	Code     *string `json:"code"`
	Language *string `json:"language"`
}

// actionPatch is the PATCH body for updating a remote action's status.
type actionPatch struct {
	Status     string `json:"status"`
	Output     string `json:"output,omitempty"`
	Error      string `json:"error,omitempty"`
	ExecutedAt string `json:"executed_at,omitempty"`
}

// Truncate bounds s to at most n runes. Applied to output and error text
// before transmission and before outbox storage so failed payloads cannot
// grow without bound.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
