// Package config handles loading and validating the translator's service configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// The topic mapping document is not part of this configuration; only its
// path is (mapping.file). See package mapping for the document itself.
//
// Security Considerations:
//   - Broker credentials should be set via environment variables
//     (TRANSLATOR_MQTT_USERNAME, TRANSLATOR_MQTT_PASSWORD)
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.MQTT.Broker.Host)
package config
