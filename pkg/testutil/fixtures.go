package testutil

import (
	"github.com/google/uuid"
)

// Fixed borrower IDs for deterministic testing.
var (
	TestBorrowerID1 = uuid.MustParse("00000000-0000-0000-0000-000000000001").String()
	TestBorrowerID2 = uuid.MustParse("00000000-0000-0000-0000-000000000002").String()
)
