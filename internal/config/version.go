package config

// Version is the triplewalk binary version.
// Set at build time via: -ldflags "-X github.com/persistorai/triplewalk/internal/config.Version=<tag>"
// Defaults to "dev" when built without ldflags.
var Version = "dev"

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}
