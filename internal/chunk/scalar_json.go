package chunk

import (
	"time"

	"github.com/scrapbird/chunkcore/internal/jsonscalar"
	"github.com/scrapbird/chunkcore/internal/jsontok"
	"github.com/scrapbird/chunkcore/internal/types"
)

// scalarFromJSON delegates to internal/jsonscalar, which also backs
// internal/structured's scalar leaves — kept as a thin wrapper here so the
// rest of this package's call sites read uniformly with scalarFromArrow.
func scalarFromJSON(v jsontok.JsonValue, lt types.LogicalType, loc *time.Location, policy types.WideningPolicy) (any, error) {
	return jsonscalar.ScalarFromJSON(v, lt, loc, policy)
}
