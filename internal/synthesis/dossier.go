package synthesis

import (
	"fmt"
	"sync/atomic"
	"time"
)

var dossierSeq atomic.Int64

// newDossierID builds a process-unique, time-derived dossier identifier,
// e.g. "DOSS-20260829_143005_0007". The sequence keeps ids distinct when
// several syntheses land in the same second.
func newDossierID(now time.Time) string {
	return fmt.Sprintf("DOSS-%s_%04d", now.Format("20060102_150405"), dossierSeq.Add(1))
}
