// Package dataset turns raw price history into fixed-length, leakage-aware
// feature windows: bulk sliding windows for training and single-date windows
// for daily inference.
package dataset

import (
	"runtime"
	"sync"

	"github.com/adelgado/quantbt/internal/domain"
)

// DefaultSplit is the fraction of samples, taken from the front, that forms
// the training subset.
const DefaultSplit = 0.9

// BuildTrainingWindows slides a window of width domain.WindowWidth across
// every company's close series with stride 1, pairing each window with the
// close predictionInterval rows past the window's end. Companies shorter
// than width+interval+1 rows contribute nothing; flat windows are dropped.
//
// Chunking is independent per company, so companies are processed by a
// worker pool and the per-company results merged back in universe order —
// the output ordering (chronological within a company, companies in input
// order) never depends on worker completion order.
func BuildTrainingWindows(u *domain.Universe, predictionInterval, workers int) []domain.NormalizedWindow {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	perCompany := make([][]domain.NormalizedWindow, u.Len())
	idxCh := make(chan int, u.Len())

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idxCh {
				perCompany[i] = chunkCompany(&u.Companies[i], predictionInterval)
			}
		}()
	}
	for i := 0; i < u.Len(); i++ {
		idxCh <- i
	}
	close(idxCh)
	wg.Wait()

	var items []domain.NormalizedWindow
	for _, chunk := range perCompany {
		items = append(items, chunk...)
	}
	return items
}

// chunkCompany produces one sample per valid starting offset of the series.
func chunkCompany(s *domain.CompanySeries, predictionInterval int) []domain.NormalizedWindow {
	minLen := domain.WindowWidth + predictionInterval + 1
	if len(s.Bars) < minLen {
		return nil
	}

	var items []domain.NormalizedWindow
	closes := make([]float64, domain.WindowWidth)
	for i := 0; i < len(s.Bars)-domain.WindowWidth-predictionInterval; i++ {
		for j := 0; j < domain.WindowWidth; j++ {
			closes[j] = s.Bars[i+j].Close
		}
		target := s.Bars[i+domain.WindowWidth+predictionInterval].Close

		w, err := domain.NewWindow(closes, target)
		if err != nil {
			continue
		}
		norm, err := w.Normalize()
		if err != nil {
			// flat window, no sample
			continue
		}
		items = append(items, norm)
	}
	return items
}

// Split divides the concatenated samples positionally: the front splitVal
// fraction trains, the remainder validates. The split is not random —
// shuffling, if any, happens inside the loaders, never across this
// boundary. Adjacent windows straddling the boundary overlap by
// construction; that minor leakage is accepted.
func Split(items []domain.NormalizedWindow, splitVal float64) (train, validation []domain.NormalizedWindow) {
	split := int(float64(len(items)) * splitVal)
	return items[:split], items[split:]
}
