package cos

import (
	"sync"

	"github.com/teris-io/shortid"
)

const uuidABC = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"

var (
	sidOnce sync.Once
	sidGen  *shortid.Shortid
)

// GenRunId returns a short, URL-safe id suitable for tagging one pipeline
// execution (e.g. for log correlation); no package in this module calls it.
func GenRunId(seed uint64) string {
	sidOnce.Do(func() { sidGen = shortid.MustNew(1, uuidABC, seed) })
	return sidGen.MustGenerate()
}
