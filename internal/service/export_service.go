package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/music-lessons-api/internal/models"
	appErrors "github.com/noah-isme/music-lessons-api/pkg/errors"
	"github.com/noah-isme/music-lessons-api/pkg/export"
)

// Exportable analytics reports.
const (
	ReportRevenueByQuarter     = "revenue-by-quarter"
	ReportInstrumentPopularity = "instrument-popularity"
	ReportOutreach             = "outreach"
	ReportUserCounts           = "user-counts"
	ReportSecondLesson         = "second-lesson"
)

// Supported export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type datasetRenderer interface {
	ContentType() string
	Extension() string
	Render(data export.Dataset) ([]byte, error)
}

// ExportFile is a rendered report ready to be sent as an attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders analytics reports as downloadable files.
type ExportService struct {
	analytics *AnalyticsService
	renderers map[string]datasetRenderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService with CSV and PDF renderers.
func NewExportService(analytics *AnalyticsService, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		analytics: analytics,
		renderers: map[string]datasetRenderer{
			ExportFormatCSV: export.NewCSVExporter(),
			ExportFormatPDF: export.NewPDFExporter(),
		},
		logger: logger,
		now:    time.Now,
	}
}

// Export renders report in format. year only applies to the revenue report.
func (s *ExportService) Export(ctx context.Context, report, format string, year *int) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, validationError("format must be csv or pdf")
	}

	dataset, err := s.Dataset(ctx, report, year)
	if err != nil {
		return nil, err
	}
	body, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render "+report+" export")
	}
	s.logger.Info("analytics exported", zap.String("report", report), zap.String("format", format), zap.Int("rows", len(dataset.Rows)))
	return &ExportFile{
		Filename:    fmt.Sprintf("%s-%s.%s", report, s.now().UTC().Format("20060102-150405"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

// Dataset tabulates one analytics report.
func (s *ExportService) Dataset(ctx context.Context, report string, year *int) (export.Dataset, error) {
	switch report {
	case ReportRevenueByQuarter:
		result, _, err := s.analytics.RevenueByQuarter(ctx, year)
		if err != nil {
			return export.Dataset{}, err
		}
		return revenueDataset(result), nil
	case ReportInstrumentPopularity:
		rows, _, err := s.analytics.InstrumentPopularity(ctx)
		if err != nil {
			return export.Dataset{}, err
		}
		data := export.Dataset{Title: "Instrument Popularity", Headers: []string{"Instrument", "Lessons", "Revenue"}}
		for _, row := range rows {
			data.Rows = append(data.Rows, map[string]string{
				"Instrument": row.Instrument,
				"Lessons":    strconv.Itoa(row.Lessons),
				"Revenue":    money(row.Revenue),
			})
		}
		return data, nil
	case ReportOutreach:
		rows, _, err := s.analytics.OutreachBreakdown(ctx)
		if err != nil {
			return export.Dataset{}, err
		}
		data := export.Dataset{Title: "Outreach Sources", Headers: []string{"Source", "Role", "Accounts"}}
		for _, row := range rows {
			data.Rows = append(data.Rows, map[string]string{
				"Source":   row.Source,
				"Role":     string(row.Role),
				"Accounts": strconv.Itoa(row.Count),
			})
		}
		return data, nil
	case ReportUserCounts:
		rows, _, err := s.analytics.UserCounts(ctx)
		if err != nil {
			return export.Dataset{}, err
		}
		data := export.Dataset{Title: "Accounts by Role", Headers: []string{"Role", "Accounts"}}
		for _, row := range rows {
			data.Rows = append(data.Rows, map[string]string{"Role": string(row.Role), "Accounts": strconv.Itoa(row.Count)})
		}
		return data, nil
	case ReportSecondLesson:
		result, _, err := s.analytics.SecondLessonRate(ctx)
		if err != nil {
			return export.Dataset{}, err
		}
		return export.Dataset{
			Title:   "Second Lesson Rate",
			Headers: []string{"Students with a lesson", "Students with a second lesson", "Percentage"},
			Rows: []map[string]string{{
				"Students with a lesson":        strconv.Itoa(result.StudentsWithLesson),
				"Students with a second lesson": strconv.Itoa(result.StudentsWithSecondLesson),
				"Percentage":                    strconv.FormatFloat(result.Percentage, 'f', 1, 64),
			}},
		}, nil
	}
	return export.Dataset{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("unknown report %q", report))
}

func revenueDataset(report *models.RevenueByQuarterReport) export.Dataset {
	title := "Revenue by Quarter"
	if report.Year != nil {
		title = fmt.Sprintf("%s %d", title, *report.Year)
	}
	data := export.Dataset{Title: title, Headers: []string{"Quarter", "Lessons", "Revenue"}}
	for _, q := range report.Quarters {
		data.Rows = append(data.Rows, map[string]string{
			"Quarter": q.Quarter,
			"Lessons": strconv.Itoa(q.Lessons),
			"Revenue": money(q.Revenue),
		})
	}
	data.Rows = append(data.Rows, map[string]string{"Quarter": "Total", "Revenue": money(report.Total)})
	return data
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
