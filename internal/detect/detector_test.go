package detect

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"photodedup/internal/config"
	"photodedup/internal/index"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default(t.TempDir())
	cfg.MinSizeBytes = 0
	return cfg
}

// gradient paints a brightness ramp along x (horizontal true) or y.
// The two orientations hash far apart; copies hash identically.
func gradient(horizontal bool) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			v := uint8(x * 255 / 63)
			if !horizontal {
				v = uint8(y * 255 / 47)
			}
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
}

func TestRun_EmptyInput(t *testing.T) {
	var final string
	progress := func(percent int, message string) {
		if percent == 100 {
			final = message
		}
	}

	stats, data, groups, err := New(testConfig(t)).Run(context.Background(), nil, 5, progress)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.FilesProcessed != 0 || len(data) != 0 || len(groups) != 0 {
		t.Errorf("expected degenerate result, got stats=%+v data=%v groups=%v", stats, data, groups)
	}
	if final != "No image files to check." {
		t.Errorf("terminal message = %q", final)
	}
}

func TestRun_FindsExactDuplicates(t *testing.T) {
	tmp := t.TempDir()
	a := filepath.Join(tmp, "a.png")
	b := filepath.Join(tmp, "b.png") // identical pixels to a
	c := filepath.Join(tmp, "c.png") // different image
	writePNG(t, a, gradient(true))
	writePNG(t, b, gradient(true))
	writePNG(t, c, gradient(false))

	stats, data, groups, err := New(testConfig(t)).Run(context.Background(), []string{a, b, c}, 0, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.ImagesHashed != 3 || stats.FailedFiles != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if len(data) != 3 {
		t.Errorf("expected 3 metadata entries, got %d", len(data))
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %v", groups)
	}
	if !reflect.DeepEqual(groups[0], []string{a, b}) {
		t.Errorf("group = %v, want [%s %s]", groups[0], a, b)
	}
	if stats.GroupsFound != 1 {
		t.Errorf("GroupsFound = %d, want 1", stats.GroupsFound)
	}
}

func TestRun_FailedFilesAbsorbed(t *testing.T) {
	tmp := t.TempDir()
	good1 := filepath.Join(tmp, "good1.png")
	good2 := filepath.Join(tmp, "good2.png")
	bad := filepath.Join(tmp, "bad.png")
	missing := filepath.Join(tmp, "missing.png")
	writePNG(t, good1, gradient(true))
	writePNG(t, good2, gradient(true))
	if err := os.WriteFile(bad, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	stats, data, groups, err := New(testConfig(t)).Run(
		context.Background(), []string{good1, bad, good2, missing}, 0, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.FilesProcessed != 4 || stats.ImagesHashed != 2 || stats.FailedFiles != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if _, ok := data[bad]; ok {
		t.Error("corrupt file leaked into metadata")
	}
	if len(groups) != 1 {
		t.Errorf("expected the two good copies grouped, got %v", groups)
	}
}

func TestRun_BelowMinSizeExcluded(t *testing.T) {
	tmp := t.TempDir()
	a := filepath.Join(tmp, "a.png")
	b := filepath.Join(tmp, "b.png") // byte-identical to a
	writePNG(t, a, gradient(true))
	data, err := os.ReadFile(a)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default(t.TempDir())
	cfg.MinSizeBytes = int64(len(data)) + 1 // everything is too small

	var final string
	stats, fileData, groups, err := New(cfg).Run(context.Background(), []string{a, b}, 0,
		func(percent int, message string) {
			if percent == 100 {
				final = message
			}
		})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(fileData) != 0 || len(groups) != 0 {
		t.Errorf("small files leaked: data=%v groups=%v", fileData, groups)
	}
	if stats.FailedFiles != 2 {
		t.Errorf("FailedFiles = %d, want 2", stats.FailedFiles)
	}
	if final != "No images could be hashed." {
		t.Errorf("terminal message = %q", final)
	}
}

func TestRun_ProgressMonotonicReaches100(t *testing.T) {
	tmp := t.TempDir()
	var paths []string
	for i := 0; i < 6; i++ {
		p := filepath.Join(tmp, string(rune('a'+i))+".png")
		writePNG(t, p, gradient(i%2 == 0))
		paths = append(paths, p)
	}

	var mu sync.Mutex
	var percents []int
	progress := func(percent int, message string) {
		mu.Lock()
		percents = append(percents, percent)
		mu.Unlock()
	}

	if _, _, _, err := New(testConfig(t)).Run(context.Background(), paths, 0, progress); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(percents) == 0 {
		t.Fatal("no progress reported")
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Fatalf("progress went backwards: %v", percents)
		}
	}
	if percents[len(percents)-1] != 100 {
		t.Errorf("final progress = %d, want 100", percents[len(percents)-1])
	}
}

func TestRun_Deterministic(t *testing.T) {
	tmp := t.TempDir()
	var paths []string
	for i := 0; i < 8; i++ {
		p := filepath.Join(tmp, string(rune('a'+i))+".png")
		writePNG(t, p, gradient(i < 4))
		paths = append(paths, p)
	}

	detector := New(testConfig(t))
	_, _, groups1, err := detector.Run(context.Background(), paths, 5, nil)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	// Second run with reversed input order.
	reversed := make([]string, len(paths))
	for i, p := range paths {
		reversed[len(paths)-1-i] = p
	}
	_, _, groups2, err := detector.Run(context.Background(), reversed, 5, nil)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if !reflect.DeepEqual(groupSet(groups1), groupSet(groups2)) {
		t.Errorf("groups differ across runs:\n%v\n%v", groups1, groups2)
	}
}

func TestRun_CompletesWithBoundedWorkers(t *testing.T) {
	tmp := t.TempDir()
	cfg := testConfig(t)
	cfg.Workers = 2 // fewer workers than files, so submission blocks

	var paths []string
	for i := 0; i < 7; i++ {
		p := filepath.Join(tmp, string(rune('a'+i))+".png")
		writePNG(t, p, gradient(i%2 == 0))
		paths = append(paths, p)
	}

	stats, data, _, err := New(cfg).Run(context.Background(), paths, 0, nil)
	if err != nil {
		t.Fatalf("Run failed on a live context: %v", err)
	}
	if stats.ImagesHashed != 7 || len(data) != 7 {
		t.Errorf("stats = %+v, data entries = %d, want all 7 hashed", stats, len(data))
	}
}

func TestRun_InvalidThreshold(t *testing.T) {
	d := New(testConfig(t))
	if _, _, _, err := d.Run(context.Background(), nil, -1, nil); err == nil {
		t.Error("expected error for negative threshold")
	}
	if _, _, _, err := d.Run(context.Background(), nil, 65, nil); err == nil {
		t.Error("expected error for threshold above hash width")
	}
}

func TestRun_CancelledContext(t *testing.T) {
	tmp := t.TempDir()
	p := filepath.Join(tmp, "a.png")
	writePNG(t, p, gradient(true))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, _, err := New(testConfig(t)).Run(ctx, []string{p}, 0, nil); err == nil {
		t.Error("expected error for cancelled context")
	}
}

// compareHashes skips matched hashes as later query anchors. For a
// chain A-B-C with both links at the threshold boundary and A-C beyond
// it, the B and C anchors still run (A's radius query does not see C),
// so the chain must come out as one transitive group.
func TestCompareHashes_ChainAtThresholdBoundary(t *testing.T) {
	const threshold = 5
	hashA := uint64(0b0000000000)
	hashB := uint64(0b0000011111) // 5 bits from A
	hashC := uint64(0b1111111111) // 5 bits from B, 10 from A

	hashToPaths := map[uint64][]string{
		hashA: {"a.png"},
		hashB: {"b.png"},
		hashC: {"c.png"},
	}

	for _, order := range [][]uint64{
		{hashA, hashB, hashC},
		{hashC, hashB, hashA},
		{hashB, hashA, hashC},
	} {
		tree := index.New()
		for _, h := range order {
			tree.Insert(h)
		}
		engine := compareHashes(tree, order, hashToPaths, threshold, func(int, string) {})
		groups := engine.Groups()
		if len(groups) != 1 || len(groups[0]) != 3 {
			t.Errorf("order %v: expected one group of 3, got %v", order, groups)
		}
	}
}

func groupSet(groups [][]string) map[string][]string {
	set := make(map[string][]string)
	for _, g := range groups {
		set[g[0]] = g
	}
	return set
}
