package auth

// DiscordUser is the profile snapshot returned by Discord's /users/@me endpoint.
type DiscordUser struct {
	ID            string  `json:"id"`
	Username      string  `json:"username"`
	Discriminator string  `json:"discriminator"`
	Avatar        *string `json:"avatar,omitempty"`
	Bot           *bool   `json:"bot,omitempty"`
	System        *bool   `json:"system,omitempty"`
	MFAEnabled    *bool   `json:"mfa_enabled,omitempty"`
	Locale        *string `json:"locale,omitempty"`
	Verified      *bool   `json:"verified,omitempty"`
	Email         *string `json:"email,omitempty"`
	Flags         *uint64 `json:"flags,omitempty"`
	PremiumType   *uint8  `json:"premium_type,omitempty"`
	PublicFlags   *uint64 `json:"public_flags,omitempty"`
}

// Tag returns the familiar username#discriminator form.
func (u DiscordUser) Tag() string {
	return u.Username + "#" + u.Discriminator
}

// AuthUser is the identity handed to protected handlers once a credential verifies.
type AuthUser struct {
	ID      string      `json:"id"`
	Discord DiscordUser `json:"discord"`
}
