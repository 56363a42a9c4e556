package domain

import (
	"testing"

	"sspdb/testutil"
)

func TestImportBoundary(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden, "the domain model stays free of storage and UI packages")
}
