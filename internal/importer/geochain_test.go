package importer

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planpro/internal/domain"
	"planpro/internal/geo"
	"planpro/pkg/planpro"
)

// chainRequest builds an n-segment chain from A (0,0) to B (n,0).
func chainRequest(n int) (ChainRequest, *containerIndex) {
	f := &fixture{}
	f.node("A", 0, 0)
	f.node("B", float64(n), 0)
	f.edge("e", "A", "B", float64(n), "Ende", "Ende")
	f.chain("e", "A", "B", n)

	idx := newContainerIndex(0, &f.c)
	start, _ := idx.geoPoint(geoID("A"), "")
	end, _ := idx.geoPoint(geoID("B"), "")
	return ChainRequest{
		EdgeID:   "e",
		Start:    toDomainGeo(start, geoID("A")),
		End:      toDomainGeo(end, geoID("B")),
		Segments: idx.geoEdgesByTopEdge["e"],
		Lookup:   idx.geoLookup(""),
	}, idx
}

func pointIDs(points []domain.GeoPoint) []string {
	ids := make([]string, len(points))
	for i, p := range points {
		ids[i] = p.ID
	}
	return ids
}

func TestReconstructChainPointCount(t *testing.T) {
	for _, n := range []int{1, 2, 3, 7} {
		t.Run(fmt.Sprintf("%d segments", n), func(t *testing.T) {
			req, _ := chainRequest(n)

			points, err := ReconstructChain(req)
			require.NoError(t, err)
			require.Len(t, points, n-1)

			seen := make(map[string]bool)
			for i, p := range points {
				assert.False(t, seen[p.ID], "point %s repeated", p.ID)
				seen[p.ID] = true
				assert.Equal(t, fmt.Sprintf("e-i%d", i+1), p.ID)
				assert.Equal(t, float64(i+1), p.X)
			}
		})
	}
}

func TestReconstructChainNoSegments(t *testing.T) {
	req, _ := chainRequest(1)
	req.Segments = nil

	points, err := ReconstructChain(req)
	require.NoError(t, err)
	assert.NotNil(t, points)
	assert.Empty(t, points)
}

func TestReconstructChainReversedSegments(t *testing.T) {
	req, _ := chainRequest(3)
	for _, seg := range req.Segments {
		seg.NodeAID, seg.NodeBID = seg.NodeBID, seg.NodeAID
	}

	points, err := ReconstructChain(req)
	require.NoError(t, err)
	assert.Equal(t, []string{"e-i1", "e-i2"}, pointIDs(points))
}

func TestReconstructChainParallelSegments(t *testing.T) {
	f := &fixture{}
	f.node("A", 0, 0)
	f.node("B", 2, 0)
	f.edge("e", "A", "B", 2, "Ende", "Ende")
	f.chain("e", "A", "B", 2)
	f.segment("e-s1b", "e", geoID("A"), "e-i1")
	f.segment("e-s2b", "e", "e-i1", geoID("B"))

	idx := newContainerIndex(0, &f.c)
	start, _ := idx.geoPoint(geoID("A"), "")
	end, _ := idx.geoPoint(geoID("B"), "")
	req := ChainRequest{
		EdgeID:   "e",
		Start:    toDomainGeo(start, geoID("A")),
		End:      toDomainGeo(end, geoID("B")),
		Segments: idx.geoEdgesByTopEdge["e"],
		Lookup:   idx.geoLookup(""),
	}
	require.Len(t, req.Segments, 4)

	points, err := ReconstructChain(req)
	require.NoError(t, err)
	assert.Equal(t, []string{"e-i1"}, pointIDs(points))
}

func TestReconstructChainIncomplete(t *testing.T) {
	t.Run("gap", func(t *testing.T) {
		req, _ := chainRequest(4)
		req.Segments = append(req.Segments[:1], req.Segments[2:]...)

		_, err := ReconstructChain(req)
		assert.ErrorIs(t, err, ErrIncompleteChain)
	})

	t.Run("missing coordinates", func(t *testing.T) {
		req, _ := chainRequest(3)
		lookup := req.Lookup
		req.Lookup = func(geoNodeID string) (*planpro.GeoPoint, bool) {
			if geoNodeID == "e-i2" {
				return nil, false
			}
			return lookup(geoNodeID)
		}

		_, err := ReconstructChain(req)
		assert.ErrorIs(t, err, ErrIncompleteChain)
	})

	t.Run("cycle", func(t *testing.T) {
		req, idx := chainRequest(3)
		// e-i2 gets a branch back to e-i1, and the exit to B is gone
		loop := &planpro.GeoEdge{ID: id("e-s0"), NodeAID: id("e-i2"), NodeBID: id("e-i1")}
		req.Segments = []*planpro.GeoEdge{idx.geoEdgesByTopEdge["e"][0], idx.geoEdgesByTopEdge["e"][1], loop}

		_, err := ReconstructChain(req)
		assert.ErrorIs(t, err, ErrIncompleteChain)
	})
}

type fixedConverter struct {
	run []domain.GeoPoint
}

func (c fixedConverter) IntermediatePoints(*planpro.GeoEdge, *planpro.GeoPoint, *planpro.GeoPoint) ([]domain.GeoPoint, error) {
	return c.run, nil
}

func TestReconstructChainConverterOrientation(t *testing.T) {
	req, _ := chainRequest(1)
	req.Converter = fixedConverter{run: []domain.GeoPoint{
		{ID: "far", X: 0.9},
		{ID: "near", X: 0.1},
	}}

	points, err := ReconstructChain(req)
	require.NoError(t, err)
	assert.Equal(t, []string{"near", "far"}, pointIDs(points))
}

func TestReconstructChainAmbiguousOrientation(t *testing.T) {
	req, _ := chainRequest(1)
	req.Converter = fixedConverter{run: []domain.GeoPoint{
		{ID: "up", X: 0, Y: 1},
		{ID: "down", X: 0, Y: -1},
	}}

	_, err := ReconstructChain(req)
	assert.ErrorIs(t, err, ErrAmbiguousOrientation)
}

func TestReconstructChainArcDensifier(t *testing.T) {
	req, _ := chainRequest(2)
	for _, seg := range req.Segments {
		seg.General = &planpro.GeoEdgeGeneral{Form: planpro.Val("Bogen"), RadiusA: planpro.Val(1.0)}
	}
	req.Converter = geo.NewArcDensifier(0.25)

	points, err := ReconstructChain(req)
	require.NoError(t, err)
	require.Greater(t, len(points), 1)

	// every arc point lies between its chord endpoints along x
	last := 0.0
	for _, p := range points {
		assert.GreaterOrEqual(t, p.X, last-1e-9, "point %s", p.ID)
		last = p.X
	}
}

func TestReconstructChainPermutationInvariant(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("segment order does not change the chain", prop.ForAll(
		func(n int, seed int64) bool {
			req, _ := chainRequest(n)
			want, err := ReconstructChain(req)
			if err != nil {
				return false
			}

			shuffled := append([]*planpro.GeoEdge(nil), req.Segments...)
			r := rand.New(rand.NewSource(seed))
			r.Shuffle(len(shuffled), func(i, j int) {
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			})
			req.Segments = shuffled

			got, err := ReconstructChain(req)
			if err != nil {
				return false
			}
			return assert.ObjectsAreEqual(pointIDs(want), pointIDs(got))
		},
		gen.IntRange(1, 12),
		gen.Int64(),
	))

	properties.TestingRun(t)
}
