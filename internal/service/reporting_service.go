package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"time"

	"merchant-collections/internal/core/domain"
	"merchant-collections/internal/core/ports"
	"merchant-collections/internal/feed"
	"merchant-collections/pkg/apperror"

	"github.com/rs/zerolog"
)

// utf8BOM makes spreadsheet tools detect the census encoding correctly.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReportingServiceImpl implements ports.ReportingService.
type ReportingServiceImpl struct {
	statsRepo    ports.StatsRepository
	statsCache   ports.StatsCache
	abonoRepo    ports.AbonoRepository
	merchantRepo ports.MerchantRepository
	statsTTL     time.Duration
	feedPageSize int
	log          zerolog.Logger
}

// NewReportingService creates a new ReportingServiceImpl.
func NewReportingService(
	statsRepo ports.StatsRepository,
	statsCache ports.StatsCache,
	abonoRepo ports.AbonoRepository,
	merchantRepo ports.MerchantRepository,
	statsTTL time.Duration,
	feedPageSize int,
	log zerolog.Logger,
) *ReportingServiceImpl {
	if feedPageSize <= 0 {
		feedPageSize = 20
	}
	return &ReportingServiceImpl{
		statsRepo:    statsRepo,
		statsCache:   statsCache,
		abonoRepo:    abonoRepo,
		merchantRepo: merchantRepo,
		statsTTL:     statsTTL,
		feedPageSize: feedPageSize,
		log:          log,
	}
}

// DashboardStats returns the pre-aggregated dashboard numbers, served from
// the cache when fresh. The aggregate itself is computed by the database.
func (s *ReportingServiceImpl) DashboardStats(ctx context.Context) (*ports.DashboardStats, error) {
	cached, err := s.statsCache.Get(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("stats cache read failed, falling through to DB")
	}
	if cached != nil {
		return cached, nil
	}

	stats, err := s.statsRepo.DashboardStats(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("dashboard stats: %w", err))
	}

	if err := s.statsCache.Set(ctx, stats, s.statsTTL); err != nil {
		s.log.Warn().Err(err).Msg("failed to cache dashboard stats")
	}
	return stats, nil
}

// CollectionsCSV exports every abono in [from, to] with merchant and
// collector names.
func (s *ReportingServiceImpl) CollectionsCSV(ctx context.Context, from, to time.Time) ([]byte, error) {
	details, err := s.abonoRepo.ListDetailed(ctx, from, to, nil)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list abonos: %w", err))
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"date", "merchant", "amount", "collector", "archived"}); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("write csv header: %w", err))
	}
	for _, d := range details {
		record := []string{
			d.CreatedAt.UTC().Format(time.RFC3339),
			d.MerchantName,
			strconv.FormatInt(d.Amount, 10),
			d.CollectorName,
			strconv.FormatBool(d.Archived),
		}
		if err := w.Write(record); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("write csv record: %w", err))
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("flush csv: %w", err))
	}
	return buf.Bytes(), nil
}

// CensusCSV exports the full merchant census. The file carries a UTF-8 BOM
// and is assembled by draining the merchant feed page by page, so the export
// sees exactly what an unfiltered admin listing would.
func (s *ReportingServiceImpl) CensusCSV(ctx context.Context) ([]byte, error) {
	ctrl := feed.New(func(ctx context.Context, term string, page, pageSize int) ([]domain.Merchant, int64, error) {
		return s.merchantRepo.List(ctx, ports.MerchantListParams{
			Viewer:   ports.Viewer{Role: domain.RoleAdmin},
			Search:   term,
			Page:     page,
			PageSize: pageSize,
		})
	}, feed.WithPageSize(s.feedPageSize), feed.WithDebounce(0))

	merchants, err := ctrl.Drain(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("drain merchant feed: %w", err))
	}

	var buf bytes.Buffer
	buf.Write(utf8BOM)
	w := csv.NewWriter(&buf)

	header := []string{"first_name", "last_name", "phone", "total_debt", "balance", "status", "zone_count", "delivery_count", "created_at"}
	if err := w.Write(header); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("write csv header: %w", err))
	}
	for _, m := range merchants {
		record := []string{
			m.FirstName,
			m.LastName,
			m.Phone,
			strconv.FormatInt(m.TotalDebt, 10),
			strconv.FormatInt(m.Balance, 10),
			string(m.Status()),
			strconv.Itoa(len(m.Assignments)),
			strconv.Itoa(m.DeliveryCount),
			m.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("write csv record: %w", err))
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("flush csv: %w", err))
	}
	return buf.Bytes(), nil
}

// CollectorsCSV aggregates collections per staff member in [from, to].
func (s *ReportingServiceImpl) CollectorsCSV(ctx context.Context, from, to time.Time) ([]byte, error) {
	details, err := s.abonoRepo.ListDetailed(ctx, from, to, nil)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list abonos: %w", err))
	}

	type agg struct {
		name  string
		count int
		total int64
	}
	byCollector := make(map[string]*agg)
	for _, d := range details {
		key := d.RecordedBy.String()
		a, ok := byCollector[key]
		if !ok {
			a = &agg{name: d.CollectorName}
			byCollector[key] = a
		}
		a.count++
		a.total += d.Amount
	}

	rows := make([]*agg, 0, len(byCollector))
	for _, a := range byCollector {
		rows = append(rows, a)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].total > rows[j].total })

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"collector", "payments", "total_collected"}); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("write csv header: %w", err))
	}
	for _, a := range rows {
		record := []string{a.name, strconv.Itoa(a.count), strconv.FormatInt(a.total, 10)}
		if err := w.Write(record); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("write csv record: %w", err))
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("flush csv: %w", err))
	}
	return buf.Bytes(), nil
}
