package devenv

const PortalTestConfigFile = "ecocito_config.json"

// PortalTestConfig holds real portal credentials for tests that talk to
// the live portal, it lives in dev/.state and is never committed.
type PortalTestConfig struct {
	Subdomain string `json:"subdomain"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}
