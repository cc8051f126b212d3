package predictor

import (
	"fmt"
	"math/rand"
)

// GeneratorConfig shapes the synthetic level trees produced by
// SnapshotGenerator. Defaults model a small leveled LSM with a 10x
// size multiplier.
type GeneratorConfig struct {
	NumLevels     int   `json:"numLevels"`
	KeySpace      int   `json:"keySpace"`      // keys are drawn from [0, KeySpace)
	L0Files       int   `json:"l0Files"`       // files to place in L0
	L0Trigger     int   `json:"l0Trigger"`     // L0 score = files / trigger
	FilesPerLevel int   `json:"filesPerLevel"` // files in L1; deeper levels scale by multiplier
	FileSizeBytes int   `json:"fileSizeBytes"` // mean file size
	BaseBytes     int   `json:"baseBytes"`     // target byte size of L1
	Multiplier    int   `json:"multiplier"`    // per-level target growth factor
	FillFactor    float64 `json:"fillFactor"`  // generated bytes per level as a fraction of target
	Seed          int64 `json:"seed"`          // 0 picks a random seed

	// SizeDistribution shapes individual file sizes around the mean.
	SizeDistribution DistributionType `json:"sizeDistribution"`
}

// DefaultGeneratorConfig returns a tree shape that keeps a couple of
// levels hovering around their trigger.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		NumLevels:        5,
		KeySpace:         100000,
		L0Files:          5,
		L0Trigger:        4,
		FilesPerLevel:    8,
		FileSizeBytes:    8 << 20,
		BaseBytes:        64 << 20,
		Multiplier:       10,
		FillFactor:       1.1,
		Seed:             0,
		SizeDistribution: DistExponential,
	}
}

// Validate checks if generator values are reasonable
func (c *GeneratorConfig) Validate() error {
	if c.NumLevels < 2 {
		return ErrInvalidConfig("numLevels must be >= 2")
	}
	if c.KeySpace < 2 {
		return ErrInvalidConfig("keySpace must be >= 2")
	}
	if c.L0Trigger < 1 {
		return ErrInvalidConfig("l0Trigger must be >= 1")
	}
	if c.FilesPerLevel < 1 {
		return ErrInvalidConfig("filesPerLevel must be >= 1")
	}
	if c.FileSizeBytes < 1 || c.BaseBytes < 1 {
		return ErrInvalidConfig("fileSizeBytes and baseBytes must be >= 1")
	}
	if c.Multiplier < 2 {
		return ErrInvalidConfig("multiplier must be >= 2")
	}
	if c.FillFactor <= 0 {
		return ErrInvalidConfig("fillFactor must be > 0")
	}
	return nil
}

// SnapshotGenerator produces synthetic TreeSnapshots for load tools and
// tests: overlapping L0 files, sorted non-overlapping runs on L1 and
// below, and scores derived from byte totals against exponential
// per-level targets.
type SnapshotGenerator struct {
	cfg    GeneratorConfig
	rng    *rand.Rand
	dist   Distribution
	nextID uint64
}

// NewSnapshotGenerator creates a generator. A zero seed is replaced by
// a random one, matching the reproducibility convention of the config:
// pass an explicit seed to get identical trees across runs.
func NewSnapshotGenerator(cfg GeneratorConfig) (*SnapshotGenerator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	return &SnapshotGenerator{
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(seed)),
		dist:   NewDistribution(cfg.SizeDistribution),
		nextID: 1,
	}, nil
}

// key renders a key-space position as a fixed-width byte key so that
// bytes.Compare orders keys numerically.
func (g *SnapshotGenerator) key(pos int) []byte {
	return []byte(fmt.Sprintf("%010d", pos))
}

func (g *SnapshotGenerator) fileSize() uint64 {
	mean := g.cfg.FileSizeBytes
	lo := mean / 2
	hi := mean + mean/2
	return uint64(g.dist.Sample(g.rng, lo, hi))
}

// Generate builds one snapshot. L0 files carry random overlapping
// ranges; each deeper level is a sorted partition of the key space cut
// at random boundaries, so in-level files never overlap.
func (g *SnapshotGenerator) Generate() *TreeSnapshot {
	snap := &TreeSnapshot{Levels: make([]LevelView, g.cfg.NumLevels)}

	snap.Levels[0] = g.genL0()
	for level := 1; level < g.cfg.NumLevels; level++ {
		snap.Levels[level] = g.genSorted(level)
	}
	return snap
}

func (g *SnapshotGenerator) genL0() LevelView {
	lv := LevelView{Index: 0}
	for i := 0; i < g.cfg.L0Files; i++ {
		a := g.rng.Intn(g.cfg.KeySpace - 1)
		b := a + 1 + g.rng.Intn(g.cfg.KeySpace-a-1)
		size := g.fileSize()
		lv.Files = append(lv.Files, FileRef{
			ID:        g.nextID,
			Smallest:  g.key(a),
			Largest:   g.key(b),
			SizeBytes: size,
		})
		lv.TotalBytes += size
		g.nextID++
	}
	if g.cfg.L0Trigger > 0 {
		lv.Score = float64(len(lv.Files)) / float64(g.cfg.L0Trigger)
	}
	return lv
}

func (g *SnapshotGenerator) genSorted(level int) LevelView {
	lv := LevelView{Index: level}

	target := uint64(g.cfg.BaseBytes)
	count := g.cfg.FilesPerLevel
	for l := 1; l < level; l++ {
		target *= uint64(g.cfg.Multiplier)
		count *= 2 // file count grows slower than bytes: deeper files are larger
	}
	wantBytes := uint64(float64(target) * g.cfg.FillFactor)

	// Cut the key space into count disjoint closed ranges.
	cuts := make([]int, 0, count+1)
	cuts = append(cuts, 0)
	for i := 1; i < count; i++ {
		cuts = append(cuts, (g.cfg.KeySpace*i)/count+g.rng.Intn(g.cfg.KeySpace/count/2+1))
	}
	cuts = append(cuts, g.cfg.KeySpace-1)

	perFile := wantBytes / uint64(count)
	for i := 0; i < count; i++ {
		lo := cuts[i]
		hi := cuts[i+1] - 1
		if i == count-1 {
			hi = g.cfg.KeySpace - 1
		}
		if hi < lo {
			hi = lo
		}
		size := perFile/2 + uint64(g.dist.Sample(g.rng, 0, int(perFile)))
		lv.Files = append(lv.Files, FileRef{
			ID:        g.nextID,
			Smallest:  g.key(lo),
			Largest:   g.key(hi),
			SizeBytes: size,
		})
		lv.TotalBytes += size
		g.nextID++
	}

	lv.Score = float64(lv.TotalBytes) / float64(target)
	lv.ResumeCursor = g.rng.Intn(count)
	return lv
}
