package planner

// Provider identifies a supported AI backend.
type Provider string

const (
	ProviderClaude Provider = "claude"
	ProviderGemini Provider = "gemini"
)

// DefaultProviders returns the built-in limits table. The map is built
// fresh on each call so callers can adjust their copy (e.g. apply config
// overrides) without mutating shared state.
func DefaultProviders() map[Provider]ProviderLimits {
	return map[Provider]ProviderLimits{
		ProviderClaude: {
			MaxImages:         100,
			RecommendedImages: 80,
			MaxImageSizeMB:    5.0,
			TokensPerImage:    1500, // roughly a 1000x1000px image
			Description:       "Claude (max 100 images, 80 recommended)",
		},
		ProviderGemini: {
			MaxImages:         3600,
			RecommendedImages: 200, // kept well under the API max for token cost
			MaxImageSizeMB:    100.0,
			TokensPerImage:    258, // fixed cost for small images
			Description:       "Gemini (max 3600 images, 200 recommended)",
		},
	}
}

// Providers lists the supported backends in a stable order.
func Providers() []Provider {
	return []Provider{ProviderClaude, ProviderGemini}
}
