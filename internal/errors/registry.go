package errors

// Template defines a registered error code.
type Template struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// Configuration (E100-E199)

	"E101": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "No loom.json was found at the given path. Without --config, defaults are used when loom.json is absent.",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Invalid config file",
		Detail:   "loom.json could not be read or is not valid JSON.",
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Invalid duration",
		Detail:   "Durations are Go duration strings such as \"16ms\" or \"1.5s\".",
	},
	"E104": {
		Category: CategoryConfig,
		Message:  "Invalid scheduler settings",
		Detail:   "The slice budget must be positive and no larger than the frame interval, and the yield threshold must be smaller than the slice budget.",
	},
	"E105": {
		Category: CategoryConfig,
		Message:  "Invalid log settings",
		Detail:   "log.level is one of debug, info, warn, error and log.format is one of text, json.",
	},
	"E106": {
		Category: CategoryConfig,
		Message:  "Invalid serve address",
		Detail:   "serve.addr must be host:port.",
	},
	"E107": {
		Category: CategoryConfig,
		Message:  "Cannot write config file",
	},

	// Rendering (E200-E299)

	"E201": {
		Category: CategoryRender,
		Message:  "Cannot read element file",
	},
	"E202": {
		Category: CategoryRender,
		Message:  "Invalid element document",
		Detail:   "Element documents are YAML or JSON mappings with a type, optional props and a children list. Scalar children become text.",
	},
	"E203": {
		Category: CategoryRender,
		Message:  "Render failed",
		Detail:   "The tree could not be built. The previously committed output is unchanged.",
	},
	"E204": {
		Category: CategoryRender,
		Message:  "Commit failed",
		Detail:   "The surface rejected a mutation while the tree was being committed.",
	},

	// Serving and snapshots (E300-E399)

	"E301": {
		Category: CategoryServe,
		Message:  "Server failed",
		Detail:   "The HTTP server could not listen on the configured address or stopped unexpectedly.",
	},
	"E310": {
		Category: CategorySnapshot,
		Message:  "Snapshot write failed",
	},
	"E311": {
		Category: CategorySnapshot,
		Message:  "Snapshot upload failed",
		Detail:   "The snapshot could not be stored in the configured bucket. Check the region and AWS credentials.",
	},
	"E312": {
		Category: CategorySnapshot,
		Message:  "Invalid snapshot settings",
		Detail:   "A snapshot needs either a directory or a bucket.",
	},
}

// Codes returns all registered error codes.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// Lookup returns the template for an error code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds or replaces an error template.
func Register(code string, template Template) {
	registry[code] = template
}
