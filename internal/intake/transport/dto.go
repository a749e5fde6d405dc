package transport

// SelectStepRequest jumps the wizard to a category index.
type SelectStepRequest struct {
	Index *int `json:"index" validate:"required,min=0"`
}

// SetAnswerRequest records one field value.
type SetAnswerRequest struct {
	Category string `json:"category" validate:"required,max=64"`
	Field    string `json:"field" validate:"required,max=64"`
	Value    string `json:"value" validate:"max=4000"`
}

// FieldResponse describes one form field.
type FieldResponse struct {
	Name        string   `json:"name"`
	Label       string   `json:"label"`
	InputKind   string   `json:"inputKind"`
	Placeholder string   `json:"placeholder,omitempty"`
	Required    bool     `json:"required"`
	Options     []string `json:"options,omitempty"`
	NumericStep string   `json:"numericStep,omitempty"`
}

// CategoryResponse describes one wizard step and its fields.
type CategoryResponse struct {
	ID     string          `json:"id"`
	Label  string          `json:"label"`
	Fields []FieldResponse `json:"fields"`
}

// FormResponse is the whole intake form.
type FormResponse struct {
	Categories []CategoryResponse `json:"categories"`
	TotalSteps int                `json:"totalSteps"`
}

// CategorySummary lists a category in the sidebar with its completion mark.
type CategorySummary struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Completed bool   `json:"completed"`
	Current   bool   `json:"current"`
}

// StateResponse is the wizard state of the session.
type StateResponse struct {
	CurrentIndex    int                          `json:"currentIndex"`
	CurrentCategory CategoryResponse             `json:"currentCategory"`
	StepLabel       string                       `json:"stepLabel"`
	ProgressPercent float64                      `json:"progressPercent"`
	Categories      []CategorySummary            `json:"categories"`
	Answers         map[string]map[string]string `json:"answers"`
	Completed       []string                     `json:"completed"`
	CanPrevious     bool                         `json:"canPrevious"`
	CanSubmit       bool                         `json:"canSubmit"`
}

// SubmitResponse confirms a submission.
type SubmitResponse struct {
	Message string        `json:"message"`
	State   StateResponse `json:"state"`
}

// IssueResponse is one advisory review finding.
type IssueResponse struct {
	Category string `json:"category"`
	Field    string `json:"field"`
	Kind     string `json:"kind"`
	Message  string `json:"message"`
}

// ReviewResponse lists advisory findings. They never block navigation or submit.
type ReviewResponse struct {
	Issues   []IssueResponse `json:"issues"`
	Complete bool            `json:"complete"`
}
