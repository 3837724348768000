package core

// Config is the application-level configuration shared by services.
// Admins bypass every capability check, the way the original deployment's
// superusers did.
type Config struct {
	FQDN   string   `yaml:"fqdn" json:"fqdn"`
	Admins []string `yaml:"admins" json:"admins"`
}
