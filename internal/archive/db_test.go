package archive

import (
	"math/rand/v2"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/paddysim/internal/engine"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// finishedEngine runs a small seeded simulation to completion.
func finishedEngine(t *testing.T, cycles int) *engine.Engine {
	t.Helper()
	e := engine.New(rand.New(rand.NewPCG(42, 7)))
	target := cycles
	days := 10
	e.UpdateParameters(engine.Patch{CyclesTarget: &target, DaysPerCycle: &days})
	e.StartInstant()
	e.Advance(time.Duration(cycles) * time.Second)
	require.Equal(t, engine.StatusFinished, e.Snapshot().Status)
	return e
}

func TestRecorderArchivesFullRun(t *testing.T) {
	db := openTestDB(t)
	e := finishedEngine(t, 5)
	rec := &Recorder{DB: db, Eng: e}

	rec.flush()
	snap := e.Snapshot()

	n, err := db.CycleCount(snap.RunID)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	// A second flush of the same state writes nothing new.
	rec.flush()
	n, err = db.CycleCount(snap.RunID)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	var finished int
	require.NoError(t, db.conn.Get(&finished,
		"SELECT finished FROM runs WHERE id = ?", snap.RunID))
	assert.Equal(t, 1, finished)

	var mean float64
	require.NoError(t, db.conn.Get(&mean,
		"SELECT mean_yield FROM runs WHERE id = ?", snap.RunID))
	require.NotNil(t, snap.Summary)
	assert.InDelta(t, snap.Summary.Mean, mean, 1e-9)
}

func TestRecorderIncrementalAppend(t *testing.T) {
	db := openTestDB(t)
	e := engine.New(rand.New(rand.NewPCG(3, 9)))
	target, days := 4, 10
	e.UpdateParameters(engine.Patch{CyclesTarget: &target, DaysPerCycle: &days})
	e.StartInstant()
	rec := &Recorder{DB: db, Eng: e}

	e.Advance(650 * time.Millisecond) // two 300ms cycles complete
	rec.flush()
	runID := e.Snapshot().RunID
	n, err := db.CycleCount(runID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	e.Advance(5 * time.Second) // run to completion
	rec.flush()
	n, err = db.CycleCount(runID)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestRecorderTracksNewRun(t *testing.T) {
	db := openTestDB(t)
	e := finishedEngine(t, 2)
	rec := &Recorder{DB: db, Eng: e}
	rec.flush()
	firstRun := e.Snapshot().RunID

	// A fresh run gets its own row and cycle set.
	e.StartInstant()
	e.Advance(5 * time.Second)
	rec.flush()
	secondRun := e.Snapshot().RunID
	require.NotEqual(t, firstRun, secondRun)

	var runs int
	require.NoError(t, db.conn.Get(&runs, "SELECT COUNT(*) FROM runs"))
	assert.Equal(t, 2, runs)

	n, err := db.CycleCount(secondRun)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRecorderIgnoresIdleEngine(t *testing.T) {
	db := openTestDB(t)
	e := engine.New(rand.New(rand.NewPCG(1, 1)))
	rec := &Recorder{DB: db, Eng: e}
	rec.flush()

	var runs int
	require.NoError(t, db.conn.Get(&runs, "SELECT COUNT(*) FROM runs"))
	assert.Zero(t, runs)
}

func TestCycleRowsRoundTrip(t *testing.T) {
	db := openTestDB(t)
	e := finishedEngine(t, 3)
	rec := &Recorder{DB: db, Eng: e}
	rec.flush()
	snap := e.Snapshot()

	type cycleRow struct {
		CycleIndex int     `db:"cycle_index"`
		YieldTons  float64 `db:"yield_tons"`
		YieldSacks float64 `db:"yield_sacks"`
		Weather    string  `db:"weather"`
	}
	var rows []cycleRow
	require.NoError(t, db.conn.Select(&rows,
		`SELECT cycle_index, yield_tons, yield_sacks, weather
		 FROM cycles WHERE run_id = ? ORDER BY cycle_index`, snap.RunID))
	require.Len(t, rows, 3)

	for i, row := range rows {
		want := snap.CycleRecords[i]
		assert.Equal(t, want.CycleIndex, row.CycleIndex)
		assert.InDelta(t, want.YieldTons, row.YieldTons, 1e-9)
		assert.InDelta(t, want.YieldSacks, row.YieldSacks, 1e-9)
		assert.Equal(t, string(want.Weather), row.Weather)
	}
}
