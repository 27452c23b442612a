package types

// PrimaryOperation classifies the main capability a service exposes.
type PrimaryOperation string

const (
	OperationChat            PrimaryOperation = "chat"             // OperationChat indicates a conversational chat interface.
	OperationImageGeneration PrimaryOperation = "image_generation" // OperationImageGeneration indicates an image creation interface.
	OperationCodeExecution   PrimaryOperation = "code_execution"   // OperationCodeExecution indicates a code sandbox or notebook.
	OperationSearch          PrimaryOperation = "search"           // OperationSearch indicates a search interface.
	OperationEmbedding       PrimaryOperation = "embedding"        // OperationEmbedding indicates an embedding/vector interface.
	OperationCompletion      PrimaryOperation = "completion"       // OperationCompletion indicates a raw text completion interface.
	OperationGeneric         PrimaryOperation = "generic"          // OperationGeneric is the fallback when classification is inconclusive.
)

// FeatureKind categorizes a configurable control found on a service page.
type FeatureKind string

const (
	FeatureModelSelector FeatureKind = "model_selector" // FeatureModelSelector is a dropdown or picker that chooses the model.
	FeatureToggle        FeatureKind = "toggle"         // FeatureToggle is an on/off switch for an auxiliary behavior.
	FeatureSlider        FeatureKind = "slider"         // FeatureSlider is a numeric range control.
)

// FeatureControl describes one configurable control discovered on a page.
type FeatureControl struct {
	// Kind categorizes the control (model selector, toggle, slider).
	Kind FeatureKind `json:"kind"`

	// Label is the human-visible label of the control.
	Label string `json:"label"`

	// Selector locates the control on the page.
	Selector string `json:"selector"`
}

// ServiceCapabilities is the structured result of one feature-mapping run.
// It is produced once per discovery and never mutated afterward.
type ServiceCapabilities struct {
	// PrimaryOperation is the classified main capability of the service.
	PrimaryOperation PrimaryOperation `json:"primary_operation"`

	// AvailableModels lists model names offered by the service, in the
	// order they were discovered.
	AvailableModels []string `json:"available_models"`

	// Features lists configurable controls, in discovery order.
	Features []FeatureControl `json:"features"`

	// InputSelector locates the main input control.
	InputSelector string `json:"input_selector"`

	// SubmitSelector locates the submit control.
	SubmitSelector string `json:"submit_selector"`

	// OutputSelector locates the response/output region.
	OutputSelector string `json:"output_selector"`

	// HasFileUpload reports whether the service accepts file attachments.
	HasFileUpload bool `json:"has_file_upload"`
}

// AuthType tags the authentication mechanism detected for a service.
type AuthType string

const (
	AuthFormLogin AuthType = "form_login" // AuthFormLogin is a classic email/password form.
	AuthOAuth     AuthType = "oauth"      // AuthOAuth is a third-party provider button flow.
	AuthAPIKey    AuthType = "api_key"    // AuthAPIKey is a single API key input.
	AuthUnknown   AuthType = "unknown"    // AuthUnknown means no detector matched; manual config required.
)

// AuthConfig describes how to authenticate against a service. It is a tagged
// union over Type: only the fields for the matching type are populated.
// Created during auth detection and never mutated.
type AuthConfig struct {
	// Type selects which variant of the union is populated.
	Type AuthType `json:"type"`

	// URL is the page the detection ran against.
	URL string `json:"url"`

	// EmailSelector locates the email/username input (form_login).
	EmailSelector string `json:"email_selector,omitempty"`

	// PasswordSelector locates the password input (form_login).
	PasswordSelector string `json:"password_selector,omitempty"`

	// SubmitSelector locates the login submit control (form_login).
	SubmitSelector string `json:"submit_selector,omitempty"`

	// Provider names the OAuth provider, e.g. "google" (oauth).
	Provider string `json:"provider,omitempty"`

	// ButtonSelector locates the OAuth button (oauth).
	ButtonSelector string `json:"button_selector,omitempty"`

	// KeySelector locates the API key input (api_key).
	KeySelector string `json:"key_selector,omitempty"`

	// RawAnalysis carries the free-form AI analysis text (unknown).
	RawAnalysis string `json:"raw_analysis,omitempty"`

	// RequiresManualConfig is set when detection fell through to the
	// unknown variant and a human has to fill in the blanks.
	RequiresManualConfig bool `json:"requires_manual_config,omitempty"`
}

// Credentials holds the secrets used to log into a service.
type Credentials struct {
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
	APIKey   string `json:"api_key,omitempty"`
}

// ServiceConfig is the complete, self-contained description of a discovered
// service: how to authenticate, what it can do, and the compiled operation
// programs that invoke it. A successful discovery run replaces the stored
// config wholesale; there is no partial merge.
type ServiceConfig struct {
	// ServiceID identifies the service.
	ServiceID string `json:"service_id"`

	// URL is the service entry point.
	URL string `json:"url"`

	// Auth describes the detected authentication mechanism.
	Auth AuthConfig `json:"auth"`

	// Capabilities is the feature-map snapshot.
	Capabilities ServiceCapabilities `json:"capabilities"`

	// Operations maps operation id to its compiled program. A stored
	// program is never mutated in place; re-synthesis replaces the entry.
	Operations map[string]*OperationStepProgram `json:"operations"`
}

// Operation returns the program with the given id, or nil if absent.
func (c *ServiceConfig) Operation(id string) *OperationStepProgram {
	if c == nil || c.Operations == nil {
		return nil
	}
	return c.Operations[id]
}
