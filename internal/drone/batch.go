package drone

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/schollz/progressbar/v3"

	"github.com/agriscope/agriscope/internal/index"
)

const batchWorkers = 4

// BatchItem pairs one input image with its analysis or failure.
type BatchItem struct {
	Path     string
	Analysis Analysis
	Err      error
}

// BatchResult collects per-image outcomes for a folder run.
type BatchResult struct {
	Items    []BatchItem
	Failures int
}

// AnalyzeBatch runs Analyze over every image concurrently and renders a
// colormap next to each input. Failed images are recorded and skipped,
// they never abort the rest of the batch.
func AnalyzeBatch(paths []string, idx index.RGBIndex, showProgress bool) BatchResult {
	var bar *progressbar.ProgressBar
	if showProgress {
		bar = progressbar.Default(int64(len(paths)), "Analyzing drone images")
	}

	result := BatchResult{Items: make([]BatchItem, len(paths))}
	var mu sync.Mutex

	wp := workerpool.New(batchWorkers)
	for i, path := range paths {
		i, path := i, path
		wp.Submit(func() {
			item := BatchItem{Path: path}
			item.Analysis, item.Err = analyzeFile(path, idx)

			mu.Lock()
			result.Items[i] = item
			if item.Err != nil {
				result.Failures++
			}
			if bar != nil {
				bar.Add(1)
			}
			mu.Unlock()
		})
	}
	wp.StopWait()

	return result
}

func analyzeFile(path string, idx index.RGBIndex) (Analysis, error) {
	img, err := LoadImage(path)
	if err != nil {
		return Analysis{}, err
	}
	analysis, err := Analyze(img, idx)
	if err != nil {
		return Analysis{}, fmt.Errorf("failed to analyze %s: %w", path, err)
	}

	output := colormapPath(path, idx)
	if err := RenderColormap(analysis, output); err != nil {
		return analysis, err
	}
	return analysis, nil
}

func colormapPath(input string, idx index.RGBIndex) string {
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(input, ext)
	return fmt.Sprintf("%s_%s.png", base, strings.ToLower(idx.String()))
}
