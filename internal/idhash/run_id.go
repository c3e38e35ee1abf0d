package idhash

import (
	"github.com/google/uuid"
)

// runNamespace scopes run ids so they never collide with other SHA1 uuids.
var runNamespace = uuid.MustParse("6f1c1b52-5a3e-4f0e-9a57-3c2a8e0d4b11")

// ComputeRunID derives the run id for a batch. The same (as_of_date, label)
// always yields the same id, so re-executing a batch re-uses its run id and
// its snapshots collapse into no-ops.
func ComputeRunID(asOfDate, label string) string {
	return uuid.NewSHA1(runNamespace, []byte(asOfDate+"|"+label)).String()
}
