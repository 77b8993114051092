package service

import (
	"context"
	"errors"
	"fmt"
	"tender-aggregator-api/internal/entity"
	"tender-aggregator-api/internal/guru"
	"tender-aggregator-api/internal/repo"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

var (
	tendersIngestedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tenders_ingested_total",
		Help: "Total tenders merged into the store",
	})

	ingestBatchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tender_ingest_batches_total",
		Help: "Total merged ingestion batches",
	})

	ingestFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tender_ingest_failures_total",
		Help: "Total ingestion runs that ended in failure",
	})
)

// DownloaderState is the observable lifecycle of the ingestion run.
// Running is the only state with substeps; Failed is terminal for the
// process lifetime, there is no automatic restart.
type DownloaderState int32

const (
	StateIdle DownloaderState = iota
	StateRunning
	StateCompleted
	StateCancelled
	StateFailed
)

func (s DownloaderState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateCompleted:
		return "Completed"
	case StateCancelled:
		return "Cancelled"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// PageFetcher is what the downloader needs from the external source.
type PageFetcher interface {
	FetchPage(ctx context.Context, page int) (*guru.TendersPage, error)
}

type DownloaderConfig struct {
	TotalPagesWanted int
	PageSize         int
}

// Downloader drives the fetch→merge→estimate loop once per process run.
type Downloader struct {
	source       PageFetcher
	tenderRepo   repo.Tender
	supplierRepo repo.Supplier
	estimator    *ProgressEstimator
	cfg          DownloaderConfig
	logger       zerolog.Logger

	state  atomic.Int32
	cancel context.CancelFunc
	done   chan struct{}
}

func NewDownloader(source PageFetcher, repos *repo.Repositories, cfg DownloaderConfig) *Downloader {
	return &Downloader{
		source:       source,
		tenderRepo:   repos.Tender,
		supplierRepo: repos.Supplier,
		estimator:    NewProgressEstimator(),
		cfg:          cfg,
		logger:       log.With().Str("component", "downloader").Logger(),
		done:         make(chan struct{}),
	}
}

// Start launches the background run. Calling Start more than once has no
// effect.
func (d *Downloader) Start() {
	if !d.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	go func() {
		defer close(d.done)

		logger := d.logger.With().Str("run_id", uuid.NewString()).Logger()
		err := d.run(ctx, logger)
		switch {
		case err == nil:
			d.state.Store(int32(StateCompleted))
		case errors.Is(err, context.Canceled):
			d.state.Store(int32(StateCancelled))
			logger.Info().Msg("Stopped the downloader as requested")
		default:
			d.state.Store(int32(StateFailed))
			ingestFailuresTotal.Inc()
			logger.Error().Err(err).Msg("Error while loading tenders")
		}
	}()
}

// Stop requests cancellation and waits for the run to wind down. The loop
// only checks between batches, an in-flight fetch or merge completes first.
func (d *Downloader) Stop() {
	if DownloaderState(d.state.Load()) == StateIdle {
		return
	}

	d.cancel()
	<-d.done
}

func (d *Downloader) State() DownloaderState {
	return DownloaderState(d.state.Load())
}

// TimeLeft is the estimator's current value, safe to poll from any
// goroutine.
func (d *Downloader) TimeLeft() time.Duration {
	return d.estimator.TimeLeft()
}

func (d *Downloader) run(ctx context.Context, logger zerolog.Logger) error {
	target := d.cfg.TotalPagesWanted * d.cfg.PageSize

	alreadyLoaded, err := d.tenderRepo.CountAllTenders(ctx)
	if err != nil {
		return err
	}
	logger.Info().
		Int("already_loaded", alreadyLoaded).
		Int("target", target).
		Msg("Downloader started")

	loadedSoFar := 0
	started := time.Now()
	for alreadyLoaded+loadedSoFar < target {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch, err := d.fetchNextPages(ctx, alreadyLoaded+loadedSoFar)
		if err != nil {
			return err
		}

		if err := d.mergeBatch(ctx, batch); err != nil {
			return err
		}

		loadedSoFar += len(batch)
		tendersIngestedTotal.Add(float64(len(batch)))
		ingestBatchesTotal.Inc()
		d.estimator.Observe(time.Since(started), loadedSoFar, alreadyLoaded, target)
		logger.Debug().
			Int("loaded_total", alreadyLoaded+loadedSoFar).
			Dur("time_left", d.estimator.TimeLeft()).
			Msg("Merged batch")

		if len(batch) == 0 {
			// Source ran dry before the target, nothing more to fetch.
			logger.Warn().
				Int("loaded_total", alreadyLoaded+loadedSoFar).
				Msg("Source returned no tenders before target was reached")
			break
		}
	}

	d.estimator.Finish()
	logger.Info().Int("tenders", alreadyLoaded+loadedSoFar).Msg("Downloaded all tenders")

	return nil
}

// fetchNextPages fans out the current and the next page concurrently and
// returns the combined batch. Two-ahead is a fixed throughput choice, not
// adaptive.
func (d *Downloader) fetchNextPages(ctx context.Context, loadedCount int) ([]guru.TenderDto, error) {
	nextPage := 1 + loadedCount/d.cfg.PageSize

	pages := make([]*guru.TendersPage, 2)
	g, gctx := errgroup.WithContext(ctx)
	for i := range pages {
		i := i
		g.Go(func() error {
			page, err := d.source.FetchPage(gctx, nextPage+i)
			if err != nil {
				return err
			}
			pages[i] = page

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	combined := make([]guru.TenderDto, 0, len(pages[0].Tenders)+len(pages[1].Tenders))
	combined = append(combined, pages[0].Tenders...)
	combined = append(combined, pages[1].Tenders...)

	return combined, nil
}

// mergeBatch is the merge writer: it leaves the store with every supplier
// referenced by the batch existing exactly once and every tender inserted
// with its resolved supplier list, or fails the batch as a whole.
func (d *Downloader) mergeBatch(ctx context.Context, batch []guru.TenderDto) error {
	if len(batch) == 0 {
		return nil
	}

	// Dedup supplier references within the batch first.
	staged := make(map[int]entity.Supplier)
	stagedIds := make([]int, 0)
	for _, t := range batch {
		for _, award := range t.Awards {
			for _, s := range award.Suppliers {
				if _, ok := staged[s.Id]; !ok {
					staged[s.Id] = entity.Supplier{Id: s.Id, Name: s.Name}
					stagedIds = append(stagedIds, s.Id)
				}
			}
		}
	}

	existing, err := d.supplierRepo.GetSuppliersByIds(ctx, stagedIds)
	if err != nil {
		return err
	}

	newSuppliers := make([]entity.Supplier, 0, len(stagedIds))
	for _, id := range stagedIds {
		if _, ok := existing[id]; !ok {
			newSuppliers = append(newSuppliers, staged[id])
		}
	}

	tenders := make([]entity.Tender, 0, len(batch))
	for _, dto := range batch {
		value, err := decimal.NewFromString(dto.AwardedValueInEuro)
		if err != nil {
			return fmt.Errorf("tender %s: parsing awarded value %q: %w", dto.Id, dto.AwardedValueInEuro, err)
		}

		seen := make(map[int]struct{})
		suppliers := make([]entity.Supplier, 0)
		for _, award := range dto.Awards {
			for _, s := range award.Suppliers {
				if _, ok := seen[s.Id]; ok {
					continue
				}
				seen[s.Id] = struct{}{}

				// Resolve to the store row or the staged one, never a
				// second instance for the same id.
				if supplier, ok := existing[s.Id]; ok {
					suppliers = append(suppliers, supplier)
				} else {
					suppliers = append(suppliers, staged[s.Id])
				}
			}
		}

		tenders = append(tenders, entity.Tender{
			Id:                 dto.Id,
			Date:               dto.Date.Time,
			Title:              dto.Title,
			Description:        dto.Description,
			AwardedValueInEuro: value,
			Suppliers:          suppliers,
		})
	}

	return d.tenderRepo.SaveBatch(ctx, tenders, newSuppliers)
}
