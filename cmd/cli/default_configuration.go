package cli

import _ "embed"

//go:embed default_config.yaml
var embeddedDefaultConfiguration []byte

// EmbeddedDefaultConfiguration returns the packaged default configuration document.
func EmbeddedDefaultConfiguration() []byte {
	duplicatedConfiguration := make([]byte, len(embeddedDefaultConfiguration))
	copy(duplicatedConfiguration, embeddedDefaultConfiguration)
	return duplicatedConfiguration
}
