package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chai-analysis/chai/analysis/absint"
	"github.com/chai-analysis/chai/analysis/ast"
	"github.com/chai-analysis/chai/analysis/extract"
	"github.com/chai-analysis/chai/testutil"
	"github.com/chai-analysis/chai/utils"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newPair(t *testing.T, ids ast.IDSource, p testutil.Pair) FilePair {
	t.Helper()
	src, err := NewVersion(ids, p.Source)
	require.NoError(t, err)
	dst, err := NewVersion(ids, p.Destination)
	require.NoError(t, err)
	return FilePair{Name: p.Name, Source: src, Destination: dst}
}

func newContext(t *testing.T, ids *utils.IDGenerator) *absint.AnalysisContext {
	t.Helper()
	C, err := absint.NewContext(utils.DefaultOptions(), ids)
	require.NoError(t, err)
	return C.WithLogger(zaptest.NewLogger(t))
}

func lines(facts []extract.Fact) []string {
	res := make([]string, 0, len(facts))
	for _, f := range facts {
		res = append(res, f.String())
	}
	return res
}

// The parallel analysis reports the same facts as analysing the
// versions one after the other.
func TestAnalyzePairMatchesGolden(t *testing.T) {
	ids := utils.NewIDGenerator(1)
	for _, p := range testutil.Scenarios(ids) {
		t.Run(p.Name, func(t *testing.T) {
			C := newContext(t, ids)
			rep, err := AnalyzePair(context.Background(), C, newPair(t, ids, p), extract.Factories)
			require.NoError(t, err)

			data, err := os.ReadFile(filepath.Join("..", "extract", "testdata", p.Name+".golden"))
			require.NoError(t, err)
			want := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")

			if diff := cmp.Diff(want, lines(rep.Facts)); diff != "" {
				t.Errorf("facts differ (-want +got):\n%s", diff)
			}

			assert.Equal(t, C.Session, rep.Session)
			assert.Equal(t, ast.Source, rep.Source.Version)
			assert.Equal(t, ast.Destination, rep.Destination.Version)
			assert.False(t, rep.Aborted())
			for _, f := range rep.Facts {
				assert.Equal(t, C.Session, f.Session)
			}
		})
	}
}

func TestAnalyzePairIsRepeatable(t *testing.T) {
	ids := utils.NewIDGenerator(1)
	pair := newPair(t, ids, testutil.ChangedCondition(ids))
	C := newContext(t, ids)

	first, err := AnalyzePair(context.Background(), C, pair, extract.Factories)
	require.NoError(t, err)
	second, err := AnalyzePair(context.Background(), C, pair, extract.Factories)
	require.NoError(t, err)

	assert.Equal(t, lines(first.Facts), lines(second.Facts))
}

func TestAnalyzePairWithoutVisitors(t *testing.T) {
	ids := utils.NewIDGenerator(1)
	rep, err := AnalyzePair(context.Background(), newContext(t, ids),
		newPair(t, ids, testutil.Rename(ids)), nil)
	require.NoError(t, err)

	assert.Empty(t, rep.Facts)
	assert.True(t, rep.Source.Returns)
	assert.True(t, rep.Destination.Returns)
}

func TestAnalyzePairCancelled(t *testing.T) {
	ids := utils.NewIDGenerator(1)
	pair := newPair(t, ids, testutil.UnresolvedCall(ids))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := AnalyzePair(ctx, newContext(t, ids), pair, extract.Factories)
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), pair.Name)
}

// An expired time budget is not an error: the facts of the states
// computed so far are reported and the report is marked as aborted.
func TestAnalyzePairTimeBudget(t *testing.T) {
	ids := utils.NewIDGenerator(1)
	pair := newPair(t, ids, testutil.MutualRecursion(ids))

	opts := utils.DefaultOptions()
	opts.Trace = utils.TraceStackCFA
	opts.K, opts.H = 3, 3
	opts.TimeBudget = time.Microsecond
	C, err := absint.NewContext(opts, ids)
	require.NoError(t, err)
	C = C.WithLogger(zaptest.NewLogger(t))

	start := time.Now()
	rep, err := AnalyzePair(context.Background(), C, pair, extract.Factories)
	took := time.Since(start)

	require.NoError(t, err)
	require.NotNil(t, rep)
	assert.True(t, rep.Aborted())
	assert.True(t, rep.Source.Aborted)
	assert.True(t, rep.Destination.Aborted)
	assert.Less(t, took, 10*time.Second)
	for _, f := range rep.Facts {
		assert.Equal(t, C.Session, f.Session)
	}
}

func TestAnalyzePairRejectsMalformedPairs(t *testing.T) {
	ids := utils.NewIDGenerator(1)
	C := newContext(t, ids)
	good := newPair(t, ids, testutil.ChangedCondition(ids))

	swapped := good
	swapped.Source, swapped.Destination = good.Destination, good.Source
	_, err := AnalyzePair(context.Background(), C, swapped, extract.Factories)
	assert.ErrorIs(t, err, ErrVersionMismatch)

	shared := good
	shared.Destination.CFGs = good.Source.CFGs
	_, err = AnalyzePair(context.Background(), C, shared, extract.Factories)
	assert.Error(t, err)

	missing := good
	missing.Source = Version{}
	_, err = AnalyzePair(context.Background(), C, missing, extract.Factories)
	assert.Error(t, err)
}
