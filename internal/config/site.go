package config

// SiteConfig holds request settings for one host.
type SiteConfig struct {
	// Cookie is sent as the Cookie header, e.g. "a=1; b=2".
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are added to every request to the host.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Strategy overrides the depth strategy for the host.
	Strategy string `yaml:"strategy,omitempty"`

	// UserAgent overrides the User-Agent for the host.
	UserAgent string `yaml:"user_agent,omitempty"`
}

// File is the layout of the .deeptext configuration file.
type File struct {
	// Defaults apply to every host.
	Defaults SiteConfig `yaml:"defaults,omitempty"`

	// Sites maps a host name (no scheme, no port) to its settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`
}

// GetSiteConfig merges the settings of host over Defaults.
// Site headers are added to default headers and win on conflicts.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	if len(cf.Defaults.Headers) > 0 {
		result.Headers = make(map[string]string, len(cf.Defaults.Headers))
		for k, v := range cf.Defaults.Headers {
			result.Headers[k] = v
		}
	}

	site, ok := cf.Sites[host]
	if !ok {
		return result
	}

	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if site.Strategy != "" {
		result.Strategy = site.Strategy
	}
	if site.UserAgent != "" {
		result.UserAgent = site.UserAgent
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(site.Headers))
		}
		for k, v := range site.Headers {
			result.Headers[k] = v
		}
	}
	return result
}
