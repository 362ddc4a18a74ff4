package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Store Errors (S001-S009)
	// ============================================

	"S001": {
		Category:   CategoryStore,
		Message:    "Watched key not found",
		Detail:     "A view subscribed to a key that does not exist in state.",
		Suggestion: "Add the key to the initial state, or create the store with WithStrictKeys(false)",
	},
	"S002": {
		Category:   CategoryStore,
		Message:    "Watched selector not found",
		Detail:     "A view subscribed to a selector that was not registered when the store was created.",
		Suggestion: "Register the selector in the map passed to store.New",
	},
	"S003": {
		Category:   CategoryState,
		Message:    "Invalid key path",
		Detail:     "A key-path is empty, has an empty segment, or walks through a value that is not a mapping.",
		Suggestion: "Use dotted paths like \"user.name\" whose intermediate values are objects",
	},
	"S004": {
		Category: CategoryStore,
		Message:  "Nil view",
		Detail:   "A Use call was given a nil view.",
	},

	// ============================================
	// Config Errors (S010-S019)
	// ============================================

	"S010": {
		Category:   CategoryConfig,
		Message:    "Invalid configuration file",
		Detail:     "The configuration file could not be read or parsed.",
		Suggestion: "Check that storekit.json is valid JSON",
	},
	"S011": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},
	"S012": {
		Category:   CategoryConfig,
		Message:    "Invalid environment configuration",
		Detail:     "A STOREKIT_* environment variable could not be parsed.",
		Suggestion: "Check the types of STOREKIT_* variables, e.g. STOREKIT_STRICT_KEYS=true",
	},

	// ============================================
	// Server Errors (S020-S029)
	// ============================================

	"S020": {
		Category:   CategoryServer,
		Message:    "Inspector server failed",
		Suggestion: "Check that the address is free, or set a different one with --addr",
	},

	// ============================================
	// CLI Errors (S030-S039)
	// ============================================

	"S030": {
		Category: CategoryCLI,
		Message:  "Terminal UI failed",
	},

	"S999": {
		Category: CategoryCLI,
		Message:  "Unexpected error",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds or replaces an error template. Call it from init only.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
