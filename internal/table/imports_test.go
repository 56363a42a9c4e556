package table

import (
	"testing"

	"sspdb/testutil"
)

func TestImportBoundary(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.Under("sspdb", "internal/core", "internal/console", "internal/export", "cmd"), "tables know nothing of services or front ends")
}
