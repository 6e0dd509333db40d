// Package config resolves the SPARC client configuration.
//
// A configuration has two levels: a "global" section that names the default
// profile, and one section per profile holding the settings handed to every
// service plugin.
//
//	[global]
//	default_profile = ci
//
//	[ci]
//	pennsieve_profile_name = ci
//	scicrunch_api_key = xyz
//
// # Sources
//
// Three input channels produce the same *Config:
//
//   - FromFile reads an INI file (or a YAML/JSON file by extension). A missing
//     or malformed file is logged and replaced with Defaults.
//   - FromMap accepts a flat mapping, whose keys all land in the "default"
//     profile, or a nested mapping that already has a "global" section.
//   - FromEnv reads SPARC_* environment variables, optionally seeded from a
//     dotenv file that never overrides variables already set.
//
// All of them go through Normalize, which guarantees that "global" holds
// "default_profile" and that the profile it names exists.
//
// # Usage
//
//	cfg, err := config.FromMap(map[string]any{
//		"pennsieve_profile_name": "prod",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(cfg.Profile().Get("pennsieve_profile_name"))
package config
