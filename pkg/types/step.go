package types

// StepAction enumerates the closed set of step kinds an operation program may
// contain. Executors dispatch exhaustively over these values; adding a kind
// means touching every switch that consumes it.
type StepAction string

const (
	StepNavigate                StepAction = "navigate"                   // StepNavigate opens a URL.
	StepWaitForSelector         StepAction = "wait_for_selector"          // StepWaitForSelector blocks until an element appears.
	StepType                    StepAction = "type"                       // StepType fills an input with a templated value.
	StepClick                   StepAction = "click"                      // StepClick clicks an element.
	StepSelectOption            StepAction = "select_option"              // StepSelectOption picks an option with a templated value.
	StepUploadFileIfPresent     StepAction = "upload_file_if_present"     // StepUploadFileIfPresent uploads files when the parameter is supplied.
	StepWaitForResponseComplete StepAction = "wait_for_response_complete" // StepWaitForResponseComplete polls the submit control until re-enabled.
	StepExtractResponse         StepAction = "extract_response"           // StepExtractResponse pulls the result out of the page.
)

// OperationStep is one instruction in an operation program. Which fields are
// meaningful depends on Action; unused fields are zero.
type OperationStep struct {
	// Action selects the step kind.
	Action StepAction `json:"action"`

	// URL is the navigation target (navigate).
	URL string `json:"url,omitempty"`

	// Selector locates the element the step operates on.
	Selector string `json:"selector,omitempty"`

	// Value is the raw or templated value for type/select_option steps.
	// Templates use {{param_name}} and are substituted at execution time.
	Value string `json:"value,omitempty"`

	// TimeoutMs bounds wait_for_selector and wait_for_response_complete.
	TimeoutMs float64 `json:"timeout_ms,omitempty"`

	// Optional marks a select_option step that is silently skipped when
	// its resolved parameter is absent.
	Optional bool `json:"optional,omitempty"`

	// Condition names a runtime parameter; when set, the step runs only
	// if that parameter is truthy. A false condition skips without error.
	Condition string `json:"condition,omitempty"`
}

// ParameterSpec describes one entry in a program's parameter schema.
type ParameterSpec struct {
	// Type is the JSON-ish parameter type ("string", "boolean", "array").
	Type string `json:"type"`

	// Required reports whether callers must supply the parameter.
	Required bool `json:"required"`

	// Enum restricts the parameter to a fixed set of values, when non-nil.
	Enum []string `json:"enum,omitempty"`
}

// ExtractionMethod selects the primary strategy for pulling a result off the
// page once an operation completes.
type ExtractionMethod string

const (
	ExtractAI   ExtractionMethod = "ai_extract"   // ExtractAI asks the model to read the element semantically.
	ExtractText ExtractionMethod = "text_extract" // ExtractText takes the element's text content verbatim.
)

// ResponseExtraction configures how an executed operation's result is read.
type ResponseExtraction struct {
	Method   ExtractionMethod `json:"method"`
	Selector string           `json:"selector"`
}

// OperationStepProgram is a compiled, parameterized, ordered sequence of
// browser steps representing one invocable capability of a service. Step
// order is execution order and is preserved exactly from synthesis through
// execution.
type OperationStepProgram struct {
	// ID is the stable operation identifier, e.g. "chat_completion".
	ID string `json:"id"`

	// Name is the human-readable operation name.
	Name string `json:"name"`

	// Parameters is the schema of runtime parameters the program accepts.
	Parameters map[string]ParameterSpec `json:"parameters"`

	// Steps is the ordered instruction list.
	Steps []OperationStep `json:"steps"`

	// ResponseExtraction configures result readout after the final step.
	ResponseExtraction ResponseExtraction `json:"response_extraction"`
}
