package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"enforcement-analytics/internal/analytics"
	"enforcement-analytics/internal/config"
	"enforcement-analytics/internal/domain/event"
	"enforcement-analytics/internal/repository"
	"enforcement-analytics/internal/storage"
	"enforcement-analytics/internal/utils"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

const (
	defaultWindowDays = 30

	// privacyNote mirrors the wording stamped on every statistical payload.
	privacyNote = "所有資料皆已去識別化"
	noDataNote  = "指定期間內查無資料"
)

// EventStore is the slice of the repository the service needs. Tests swap in
// an in-memory implementation.
type EventStore interface {
	LoadEvents(ctx context.Context, from, to time.Time, f repository.EventFilter) ([]event.Record, error)
	MaxEventDate(ctx context.Context) (*time.Time, error)
	InsertCrashes(ctx context.Context, crashes []repository.Crash) error
	InsertTickets(ctx context.Context, tickets []repository.Ticket) error
	CreateImportBatch(ctx context.Context, batch *repository.ImportBatch) error
	ListImportBatches(ctx context.Context, limit int) ([]repository.ImportBatch, error)
}

// AnalyticsService resolves request parameters into analysis windows, loads
// the records and runs the scoring core. The archive client is optional;
// exports keep working without it.
type AnalyticsService struct {
	store   EventStore
	archive *storage.ArchiveClient
	cfg     *config.Config
	log     zerolog.Logger
	weights analytics.Weights
	now     func() time.Time
}

func NewAnalyticsService(store EventStore, archive *storage.ArchiveClient, cfg *config.Config, log zerolog.Logger) *AnalyticsService {
	return &AnalyticsService{
		store:   store,
		archive: archive,
		cfg:     cfg,
		log:     log,
		weights: analytics.DefaultWeights(),
		now:     time.Now,
	}
}

// RankQuery carries the common ranking parameters. The window is either a
// rolling Days count or an explicit Year+Month; zero values select the
// configured defaults. The handler defaults CompareBaseline to true.
type RankQuery struct {
	Topic           string
	Days            int
	Year            int
	Month           int
	TopN            int
	District        string
	ShiftID         string
	Severity        string
	CompareBaseline bool
}

// TopRecommendations ranks sites by composite score for an optional topic.
// Zero-score sites stay visible: a site with many crashes and no enforcement
// is exactly what the ranking is for.
func (s *AnalyticsService) TopRecommendations(ctx context.Context, q RankQuery) (*RankResponse, error) {
	topic, err := parseTopicParam(q.Topic)
	if err != nil {
		return nil, err
	}
	severities, err := parseSeverities(q.Severity)
	if err != nil {
		return nil, err
	}

	data, err := s.loadRanking(ctx, q)
	if err != nil {
		return nil, err
	}
	sites := analytics.Rank(data.current.Sites, data.window, data.baseStats, analytics.RankOptions{
		Key:        analytics.RankByScore,
		Topic:      topic,
		TopN:       s.clampTopN(q.TopN),
		Severities: severities,
	}, s.weights)

	resp := s.rankResponse(data, sites)
	resp.Topic = string(topic)
	return resp, nil
}

// AccidentHotspots ranks sites by crash count, optionally restricted to
// severity classes ("A1,A2" or "A1+A2" for injury accidents).
func (s *AnalyticsService) AccidentHotspots(ctx context.Context, q RankQuery) (*RankResponse, error) {
	severities, err := parseSeverities(q.Severity)
	if err != nil {
		return nil, err
	}

	data, err := s.loadRanking(ctx, q)
	if err != nil {
		return nil, err
	}
	sites := analytics.Rank(data.current.Sites, data.window, data.baseStats, analytics.RankOptions{
		Key:        analytics.RankByCrashes,
		TopN:       s.clampTopN(q.TopN),
		Severities: severities,
		ActiveOnly: true,
	}, s.weights)

	return s.rankResponse(data, sites), nil
}

// ViolationHotspots ranks sites by citation count for an optional topic.
func (s *AnalyticsService) ViolationHotspots(ctx context.Context, q RankQuery) (*RankResponse, error) {
	topic, err := parseTopicParam(q.Topic)
	if err != nil {
		return nil, err
	}

	data, err := s.loadRanking(ctx, q)
	if err != nil {
		return nil, err
	}
	sites := analytics.Rank(data.current.Sites, data.window, data.baseStats, analytics.RankOptions{
		Key:        analytics.RankByTickets,
		Topic:      topic,
		TopN:       s.clampTopN(q.TopN),
		ActiveOnly: true,
	}, s.weights)

	resp := s.rankResponse(data, sites)
	resp.Topic = string(topic)
	return resp, nil
}

// OverlapAnalysis measures how well enforcement hotspots cover accident
// hotspots and checks the core/buffer partitions for a displacement signal.
// The baseline is always loaded here; displacement needs it.
func (s *AnalyticsService) OverlapAnalysis(ctx context.Context, q RankQuery) (*OverlapResponse, error) {
	topic, err := parseTopicParam(q.Topic)
	if err != nil {
		return nil, err
	}

	q.CompareBaseline = true
	data, err := s.loadRanking(ctx, q)
	if err != nil {
		return nil, err
	}

	topN := s.clampTopN(q.TopN)
	accident := analytics.Rank(data.current.Sites, data.window, nil, analytics.RankOptions{
		Key:        analytics.RankByCrashes,
		TopN:       topN,
		ActiveOnly: true,
	}, s.weights)
	enforcement := analytics.Rank(data.current.Sites, data.window, nil, analytics.RankOptions{
		Key:        analytics.RankByTickets,
		Topic:      topic,
		TopN:       topN,
		ActiveOnly: true,
	}, s.weights)

	rate := analytics.OverlapRate(accident, enforcement)
	disp := analytics.Displacement(data.current.Sites, data.window, data.baseStats, analytics.DisplacementOptions{
		CoreK:        topN,
		BufferMeters: s.cfg.Analytics.BufferRadiusM,
	}, s.weights)

	// Per-topic coverage of the same accident set, one rate per topic.
	topicRates := make(map[string]float64, 3)
	for _, t := range []event.Topic{event.TopicDUI, event.TopicRedLight, event.TopicDangerousDriving} {
		topicEnforcement := analytics.Rank(data.current.Sites, data.window, nil, analytics.RankOptions{
			Key:        analytics.RankByTickets,
			Topic:      t,
			TopN:       topN,
			ActiveOnly: true,
		}, s.weights)
		topicRates[string(t)] = analytics.OverlapRate(accident, topicEnforcement)
	}

	resp := &OverlapResponse{
		Window:           data.window,
		Baseline:         data.baseline,
		Topic:            string(topic),
		District:         data.district,
		TopN:             topN,
		OverlapRate:      rate,
		TopicRates:       topicRates,
		AccidentSites:    siteIDs(accident),
		EnforcementSites: siteIDs(enforcement),
		CoreChangePct:    disp.CoreChangePct,
		BufferChangePct:  disp.BufferChangePct,
		Signal:           disp.Signal,
		Interpretation:   interpretOverlap(rate, disp.Signal),
	}
	if len(accident) == 0 && len(enforcement) == 0 {
		resp.Note = noDataNote
	}
	return resp, nil
}

// CrossAnalysis runs the district×shift enforcement-gap matrix.
func (s *AnalyticsService) CrossAnalysis(ctx context.Context, q RankQuery) (*CrossResponse, error) {
	window, err := s.resolveWindow(ctx, q)
	if err != nil {
		return nil, err
	}
	district := utils.NormalizeDistrict(q.District)

	records, err := s.store.LoadEvents(ctx, window.Start, window.End, repository.EventFilter{District: district})
	if err != nil {
		return nil, fmt.Errorf("loading events: %w", err)
	}

	result := analytics.CrossAnalyze(records, window, analytics.CrossOptions{
		District:        district,
		ViolationWeight: s.cfg.Analytics.ViolationWeight,
		HighThreshold:   s.cfg.Analytics.GapHighThreshold,
		MediumThreshold: s.cfg.Analytics.GapMediumThreshold,
		TopK:            s.cfg.Analytics.DefaultTopN,
	})

	resp := &CrossResponse{Window: window, District: district, CrossResult: result}
	if len(result.Combinations) == 0 {
		resp.Note = noDataNote
	}
	return resp, nil
}

// ShiftDistribution returns the per-shift accident/violation buckets and the
// peak-shift enforcement suggestion.
func (s *AnalyticsService) ShiftDistribution(ctx context.Context, q RankQuery) (*ShiftResponse, error) {
	window, err := s.resolveWindow(ctx, q)
	if err != nil {
		return nil, err
	}
	district := utils.NormalizeDistrict(q.District)

	records, err := s.store.LoadEvents(ctx, window.Start, window.End, repository.EventFilter{District: district})
	if err != nil {
		return nil, fmt.Errorf("loading events: %w", err)
	}

	dist := analytics.ComputeShiftDistribution(records, window, district)
	return &ShiftResponse{Window: window, Distribution: dist}, nil
}

type rankingData struct {
	window    analytics.PeriodWindow
	baseline  *analytics.PeriodWindow
	district  string
	shiftID   string
	current   analytics.AggregateResult
	baseStats *analytics.BaselineStats
}

// loadRanking resolves the query window, loads and aggregates the records,
// and, when the query compares, does the same for the prior-year baseline.
func (s *AnalyticsService) loadRanking(ctx context.Context, q RankQuery) (*rankingData, error) {
	window, err := s.resolveWindow(ctx, q)
	if err != nil {
		return nil, err
	}
	shiftID, err := parseShiftParam(q.ShiftID)
	if err != nil {
		return nil, err
	}
	district := utils.NormalizeDistrict(q.District)

	filter := repository.EventFilter{District: district, ShiftID: shiftID}
	current, err := s.store.LoadEvents(ctx, window.Start, window.End, filter)
	if err != nil {
		return nil, fmt.Errorf("loading current window: %w", err)
	}

	opts := analytics.AggregateOptions{RadiusMeters: s.cfg.Analytics.ClusterRadiusM}
	data := &rankingData{
		window:   window,
		district: district,
		shiftID:  shiftID,
		current:  analytics.Aggregate(current, window, opts),
	}

	if !q.CompareBaseline {
		return data, nil
	}

	baseWindow, err := analytics.Baseline(window, analytics.BaselinePriorYear)
	if err != nil {
		return nil, err
	}
	baseline, err := s.store.LoadEvents(ctx, baseWindow.Start, baseWindow.End, filter)
	if err != nil {
		return nil, fmt.Errorf("loading baseline window: %w", err)
	}
	data.baseline = &baseWindow
	data.baseStats = analytics.NewBaselineStats(baseWindow, analytics.Aggregate(baseline, baseWindow, opts))
	return data, nil
}

// resolveWindow picks the analysis window: an explicit calendar month when
// year+month are given, a rolling days-back window otherwise.
func (s *AnalyticsService) resolveWindow(ctx context.Context, q RankQuery) (analytics.PeriodWindow, error) {
	if q.Year != 0 || q.Month != 0 {
		if q.Year == 0 || q.Month == 0 {
			return analytics.PeriodWindow{}, fmt.Errorf("%w: year and month must be given together", ErrInvalidInput)
		}
		return analytics.ResolveMonth(q.Year, q.Month)
	}
	return s.resolveRolling(ctx, q.Days)
}

// resolveRolling anchors a rolling window on min(latest data date, today) so
// a dataset that stops in March still analyses March instead of an empty
// recent window.
func (s *AnalyticsService) resolveRolling(ctx context.Context, days int) (analytics.PeriodWindow, error) {
	if days < 0 {
		return analytics.PeriodWindow{}, fmt.Errorf("%w: days must be positive", analytics.ErrInvalidPeriod)
	}
	if days == 0 {
		days = defaultWindowDays
	}
	if days > s.cfg.Analytics.MaxQueryDays {
		days = s.cfg.Analytics.MaxQueryDays
	}

	anchor := s.now()
	maxDate, err := s.store.MaxEventDate(ctx)
	if err != nil {
		return analytics.PeriodWindow{}, fmt.Errorf("resolving data horizon: %w", err)
	}
	if maxDate != nil && maxDate.Before(anchor) {
		anchor = *maxDate
	}
	return analytics.ResolveDays(anchor, days)
}

func (s *AnalyticsService) clampTopN(n int) int {
	if n <= 0 {
		return s.cfg.Analytics.DefaultTopN
	}
	if n > s.cfg.Analytics.MaxTopN {
		return s.cfg.Analytics.MaxTopN
	}
	return n
}

func (s *AnalyticsService) rankResponse(data *rankingData, sites []analytics.RankedSite) *RankResponse {
	resp := &RankResponse{
		Window:     data.window,
		Baseline:   data.baseline,
		District:   data.district,
		ShiftID:    data.shiftID,
		Sites:      sites,
		Unlocated:  data.current.Unlocated,
		Considered: data.current.Considered,
	}
	if len(sites) == 0 {
		resp.Note = noDataNote
	}
	return resp
}

func parseTopicParam(raw string) (event.Topic, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	topic, ok := event.ParseTopic(strings.ToUpper(raw))
	if !ok {
		return "", fmt.Errorf("%w: unknown topic %q", ErrInvalidInput, raw)
	}
	return topic, nil
}

// parseSeverities reads a severity class list; "A1,A2" and "A1+A2" both
// select injury accidents.
func parseSeverities(raw string) ([]event.Severity, error) {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '+' || r == ' '
	})
	if len(parts) == 0 {
		return nil, nil
	}
	out := make([]event.Severity, 0, len(parts))
	for _, p := range parts {
		sev, ok := event.ParseSeverity(strings.ToUpper(strings.TrimSpace(p)))
		if !ok {
			return nil, fmt.Errorf("%w: unknown severity %q", ErrInvalidInput, p)
		}
		out = append(out, sev)
	}
	return out, nil
}

func parseShiftParam(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if len(raw) == 1 {
		raw = "0" + raw
	}
	if !event.ValidShiftID(raw) {
		return "", fmt.Errorf("%w: unknown shift %q", ErrInvalidInput, raw)
	}
	return raw, nil
}

func siteIDs(sites []analytics.RankedSite) []string {
	ids := make([]string, 0, len(sites))
	for _, s := range sites {
		ids = append(ids, s.Site.ID)
	}
	return ids
}

// interpretOverlap renders the advisory text. The signal stays a tagged
// value so clients can branch without parsing Chinese prose.
func interpretOverlap(rate float64, signal analytics.DisplacementSignal) string {
	var b strings.Builder
	switch {
	case rate >= 70:
		b.WriteString("事故與違規熱點高度重疊，執法地點與事故熱點對齊良好")
	case rate >= 40:
		b.WriteString("事故與違規熱點中度重疊，建議檢視未覆蓋的事故熱點")
	default:
		b.WriteString("事故與違規熱點重疊度偏低，建議重新評估執法熱點部署")
	}
	switch signal {
	case analytics.DisplacementSuspected:
		b.WriteString("；核心熱點事故下降而周邊緩衝區上升，疑似出現執法位移效應")
	case analytics.InsufficientData:
		b.WriteString("；比較資料不足，無法判斷位移效應")
	}
	return b.String()
}

// RankResponse is the shared payload of the ranking endpoints. Baseline and
// the per-site trends are present only when the query compared.
type RankResponse struct {
	Window     analytics.PeriodWindow  `json:"window"`
	Baseline   *analytics.PeriodWindow `json:"baseline_window,omitempty"`
	Topic      string                  `json:"topic,omitempty"`
	District   string                  `json:"district,omitempty"`
	ShiftID    string                  `json:"shift_id,omitempty"`
	Sites      []analytics.RankedSite  `json:"sites"`
	Unlocated  analytics.Unlocated     `json:"unlocated"`
	Considered int                     `json:"considered"`
	Note       string                  `json:"note,omitempty"`
}

type OverlapResponse struct {
	Window           analytics.PeriodWindow       `json:"window"`
	Baseline         *analytics.PeriodWindow      `json:"baseline_window,omitempty"`
	Topic            string                       `json:"topic,omitempty"`
	District         string                       `json:"district,omitempty"`
	TopN             int                          `json:"top_n"`
	OverlapRate      float64                      `json:"overlap_rate"`
	TopicRates       map[string]float64           `json:"per_topic_overlap"`
	AccidentSites    []string                     `json:"accident_hotspots"`
	EnforcementSites []string                     `json:"enforcement_hotspots"`
	CoreChangePct    *float64                     `json:"core_change_pct,omitempty"`
	BufferChangePct  *float64                     `json:"buffer_change_pct,omitempty"`
	Signal           analytics.DisplacementSignal `json:"signal"`
	Interpretation   string                       `json:"interpretation"`
	Note             string                       `json:"note,omitempty"`
}

type CrossResponse struct {
	Window   analytics.PeriodWindow `json:"window"`
	District string                 `json:"district,omitempty"`
	analytics.CrossResult
	Note string `json:"note,omitempty"`
}

type ShiftResponse struct {
	Window       analytics.PeriodWindow      `json:"window"`
	Distribution analytics.ShiftDistribution `json:"distribution"`
}
