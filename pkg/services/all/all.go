// Package all registers every bundled service unit. Import it for its side
// effects:
//
//	import _ "github.com/nih-sparc/sparc-client-go/pkg/services/all"
package all

import (
	// Register the bundled services
	_ "github.com/nih-sparc/sparc-client-go/pkg/services/o2sparc"
	_ "github.com/nih-sparc/sparc-client-go/pkg/services/pennsieve"
	_ "github.com/nih-sparc/sparc-client-go/pkg/services/scicrunch"
)
