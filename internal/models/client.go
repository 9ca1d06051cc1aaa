package models

// Caller describes who invoked the API as reported by the hosting platform.
// Nothing here is verified; identity checks happen upstream.
type Caller struct {
	Token      string `json:"-"`
	ClientInfo string `json:"client_info,omitempty"`
}

// MaskedToken returns the first 8 characters of the forwarded token for logging
func (c *Caller) MaskedToken() string {
	if c == nil || c.Token == "" {
		return ""
	}
	if len(c.Token) < 8 {
		return "***"
	}
	return c.Token[:8] + "..."
}

// Label is a loggable identifier for the caller
func (c *Caller) Label() string {
	if c == nil {
		return "anonymous"
	}
	if masked := c.MaskedToken(); masked != "" {
		return masked
	}
	if c.ClientInfo != "" {
		return c.ClientInfo
	}
	return "anonymous"
}
