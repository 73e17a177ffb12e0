package config

// Credentials is the read-only per-call view of provider configuration.
// It is resolved exactly once at the start of a call and passed down; no
// component reads the environment mid-call.
type Credentials struct {
	GeminiKey      string
	OpenRouterKey  string
	OpenRouterBase string
	Proxy          string
	OutputDir      string
}

// Overrides are call-level arguments. A non-empty override always wins over
// the environment-derived value; resolution order never depends on runtime
// state, so the same inputs always produce the same Credentials.
type Overrides struct {
	GeminiKey string
	Proxy     string
	OutputDir string
}

// Resolve produces the credentials for one call. Proxy preference is the
// explicit argument, then the HTTP proxy, then the HTTPS proxy.
func (c *Config) Resolve(o Overrides) Credentials {
	creds := Credentials{
		GeminiKey:      c.Gemini.APIKey,
		OpenRouterKey:  c.OpenRouter.APIKey,
		OpenRouterBase: c.OpenRouter.BaseURL,
		OutputDir:      c.Output.Dir,
	}

	if o.GeminiKey != "" {
		creds.GeminiKey = o.GeminiKey
	}

	switch {
	case o.Proxy != "":
		creds.Proxy = o.Proxy
	case c.Proxy.HTTP != "":
		creds.Proxy = c.Proxy.HTTP
	default:
		creds.Proxy = c.Proxy.HTTPS
	}

	if o.OutputDir != "" {
		creds.OutputDir = o.OutputDir
	}

	return creds
}

// HasGemini reports whether the direct provider can be attempted at all.
func (c Credentials) HasGemini() bool { return c.GeminiKey != "" }

// HasOpenRouter reports whether the aggregator is configured.
func (c Credentials) HasOpenRouter() bool { return c.OpenRouterKey != "" }
