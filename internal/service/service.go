package service

import (
	"context"
	"tender-aggregator-api/internal/entity"
	"tender-aggregator-api/internal/repo"
)

type Diagnostics interface {
	Ping(ctx context.Context) error
}

type Tender interface {
	GetTenders(ctx context.Context, params *entity.TenderQueryParams) (*entity.TenderPage, error)
	GetTenderById(ctx context.Context, id string) (*entity.TenderReadModel, error)
}

type Services struct {
	Diagnostics Diagnostics
	Tender      Tender
	Downloader  *Downloader
}

func NewServices(repos *repo.Repositories, source PageFetcher, cfg DownloaderConfig) *Services {
	return &Services{
		Diagnostics: NewDiagnosticsService(repos),
		Tender:      NewTenderService(repos),
		Downloader:  NewDownloader(source, repos, cfg),
	}
}
