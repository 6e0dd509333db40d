package config_test

import (
	"fmt"
	"log"

	"github.com/nih-sparc/sparc-client-go/pkg/config"
)

// ExampleFromMap demonstrates resolving a flat mapping. Every key lands in
// the "default" profile on top of the seed settings.
func ExampleFromMap() {
	cfg, err := config.FromMap(map[string]any{
		"pennsieve_profile_name": "prod",
		"scicrunch_api_key":      "key",
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(cfg.DefaultProfile())
	fmt.Println(cfg.Profile().Get("pennsieve_profile_name"))
	fmt.Println(cfg.Profile().Get("scicrunch_api_key"))

	// Output:
	// default
	// prod
	// key
}

// ExampleFromMap_nested shows a mapping that already carries a global
// section. Sections are copied as they are.
func ExampleFromMap_nested() {
	cfg, err := config.FromMap(map[string]any{
		"global":      map[string]any{"default_profile": "development"},
		"development": map[string]any{"pennsieve_profile_name": "dev_pennsieve"},
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(cfg.DefaultProfile())
	fmt.Println(cfg.Profile().Get("pennsieve_profile_name"))
	fmt.Println(cfg.Sections())

	// Output:
	// development
	// dev_pennsieve
	// [global development]
}

// ExampleDefaults shows the seed configuration.
func ExampleDefaults() {
	cfg := config.Defaults()

	for _, name := range cfg.Sections() {
		for _, key := range cfg.Keys(name) {
			v, _ := cfg.Get(name, key)
			fmt.Printf("%s.%s = %s\n", name, key, v)
		}
	}

	// Output:
	// global.default_profile = default
	// default.pennsieve_profile_name = pennsieve
}
