// Package sparc is the Go client for the NIH SPARC platform services.
//
// The client resolves a two-level configuration (a "global" section naming
// the active profile plus one section per profile), discovers the service
// integrations registered with pkg/registry and loads each one with the
// active profile section.
//
// # Quick Start
//
//	c, err := client.New(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(c.ModuleNames()) // [o2sparc pennsieve scicrunch]
//
// Configuration can come from an INI, YAML or JSON file (client.FromFile),
// a Go map (client.FromMap) or SPARC_* environment variables with an
// optional .env file (client.FromEnv).
//
// # Packages
//
//   - pkg/config: configuration resolution and normalization
//   - pkg/registry: service unit registration and discovery
//   - pkg/client: the client facade
//   - pkg/services/...: Pennsieve, SciCrunch and o²S²PARC integrations
//   - pkg/clients: HTTP transport shared by the integrations
//   - pkg/errors, pkg/logger, pkg/metrics, pkg/observability: support code
//
// The sparc command in cmd/sparc exposes the same operations on the command
// line.
package sparc
