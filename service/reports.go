package service

import (
	"context"
	"net/http"
	"time"

	"github.com/getkayan/medgas/client"
	"github.com/getkayan/medgas/domain"
	"github.com/getkayan/medgas/download"
	"github.com/getkayan/medgas/logger"
	"go.uber.org/zap"
)

const (
	DefaultReportType  = "global"
	DefaultExcelFormat = "xlsx"
)

// ReportsService reads dashboards and fetches server-rendered reports.
type ReportsService struct {
	c     *client.Client
	saver *download.Saver
	now   func() time.Time
}

// DashboardAdmin returns the global statistics (admin only). Accepts
// fecha_inicio and fecha_fin.
func (s *ReportsService) DashboardAdmin(ctx context.Context, params client.Params) (map[string]any, error) {
	return s.object(ctx, "/reportes/dashboard", params)
}

// DashboardHospital returns the statistics of the caller's hospital.
func (s *ReportsService) DashboardHospital(ctx context.Context, params client.Params) (map[string]any, error) {
	return s.object(ctx, "/reportes/dashboard/hospital", params)
}

func (s *ReportsService) MonthlyConsumption(ctx context.Context, params client.Params) (map[string]any, error) {
	return s.object(ctx, "/reportes/consumo-mensual", params)
}

func (s *ReportsService) object(ctx context.Context, path string, params client.Params) (map[string]any, error) {
	out := map[string]any{}
	if err := s.c.Get(ctx, path, params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GeneratePDF asks the server to render a PDF report of reportType
// (default "global") over filter.
func (s *ReportsService) GeneratePDF(ctx context.Context, filter domain.ReportFilter, reportType string) (*domain.DownloadArtifact, error) {
	if reportType == "" {
		reportType = DefaultReportType
	}
	name := download.Filename("reporte_"+reportType, "pdf", s.now())
	return s.fetch(ctx, "/reportes/generar-pdf", filter, client.Params{"tipo_reporte": reportType}, name)
}

// GenerateExcel asks the server for a spreadsheet of the consumption records
// in format (default "xlsx").
func (s *ReportsService) GenerateExcel(ctx context.Context, filter domain.ReportFilter, format string) (*domain.DownloadArtifact, error) {
	if format == "" {
		format = DefaultExcelFormat
	}
	name := download.Filename("reporte_consumos", format, s.now())
	return s.fetch(ctx, "/reportes/generar-excel", filter, client.Params{"formato": format}, name)
}

// fetch downloads the payload and, when a saver is configured, writes it to
// disk. The artifact is returned even if saving fails.
func (s *ReportsService) fetch(ctx context.Context, path string, filter domain.ReportFilter, params client.Params, name string) (*domain.DownloadArtifact, error) {
	resp, err := s.c.Download(ctx, http.MethodPost, path, filter, params)
	if err != nil {
		return nil, err
	}

	a := &domain.DownloadArtifact{
		Filename:    name,
		ContentType: resp.Header.Get("Content-Type"),
		Data:        resp.Body,
	}
	if s.saver == nil {
		return a, nil
	}

	if _, err := s.saver.Save(a); err != nil {
		return a, err
	}
	logger.Log.Info("report saved", zap.String("path", a.Path), zap.Int("bytes", a.Size()))
	return a, nil
}
